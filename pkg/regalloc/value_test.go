package regalloc

import (
	"testing"
)

func TestValueIdentity(t *testing.T) {
	s1 := NewScope()
	s2 := NewScope()

	t0 := s1.MintTemporary()
	t1 := s1.MintTemporary()
	x1 := s1.DeclareNamed("x")
	x2 := s2.DeclareNamed("x")
	other0 := s2.MintTemporary()

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same temporary", t0, t0, true},
		{"different temporaries", t0, t1, false},
		{"same name same scope", x1, s1.DeclareNamed("x"), true},
		{"same name different scope", x1, x2, false},
		{"same index different scope", t0, other0, false},
		{"named vs temporary", x1, t0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a == tt.b; got != tt.want {
				t.Errorf("%v == %v: got %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTemporaryIndicesIncrease(t *testing.T) {
	s := NewScope()
	for i := 0; i < 5; i++ {
		v := s.MintTemporary()
		if v.Index() != i {
			t.Errorf("temporary %d has index %d", i, v.Index())
		}
		if !v.IsTemporary() {
			t.Errorf("%v should be a temporary", v)
		}
	}
}

func TestValueString(t *testing.T) {
	s := NewScope()
	if got := s.MintTemporary().String(); got != "$t0" {
		t.Errorf("temporary String() = %q, want $t0", got)
	}
	if got := s.DeclareNamed("count").String(); got != "count" {
		t.Errorf("named String() = %q, want count", got)
	}
	var zero Value
	if !zero.IsZero() {
		t.Error("zero Value should report IsZero")
	}
}

func TestScopeLocations(t *testing.T) {
	s := NewScope()

	tmp := s.MintTemporary()
	if loc := s.Lookup(tmp); loc.Kind != Unknown {
		t.Errorf("new temporary location = %s, want unknown", loc)
	}

	x := s.DeclareNamed("x")
	s.Lookup(x).Kind = InRegister
	if again := s.DeclareNamed("x"); s.Lookup(again).Kind != InRegister {
		t.Error("redeclaring a live name reset its location")
	}

	p := s.DeclareParameter("p", -4)
	loc := s.Lookup(p)
	if loc.Kind != InMemory || loc.Offset != -4 || !loc.Spilled {
		t.Errorf("parameter location = %+v", loc)
	}

	if _, ok := s.ResolveByName("p"); !ok {
		t.Error("ResolveByName(p) failed")
	}
	if _, ok := s.ResolveByName("q"); ok {
		t.Error("ResolveByName(q) should fail")
	}

	expectInternal(t, ErrUnresolvedValue, func() { s.Lookup(NewScope().MintTemporary()) })
}

func TestReserveSlotGrowsByWord(t *testing.T) {
	s := NewScope()
	if got := s.reserveSlot(); got != 4 {
		t.Errorf("first slot = %d, want 4", got)
	}
	if got := s.reserveSlot(); got != 8 {
		t.Errorf("second slot = %d, want 8", got)
	}
	if s.SpillArea() != 8 {
		t.Errorf("SpillArea() = %d, want 8", s.SpillArea())
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{}, "unknown"},
		{Location{Kind: InRegister, Reg: 5}, "$5"},
		{Location{Kind: InMemory, Offset: 12}, "-12($fp)"},
		{Location{Kind: InMemory, Offset: -8}, "8($fp)"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.loc, got, tt.want)
		}
	}
}
