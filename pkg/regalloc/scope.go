package regalloc

import (
	"fmt"

	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/stacking"
)

// LocKind says where a value currently lives
type LocKind uint8

const (
	// Unknown values have never been placed; their content is undefined.
	Unknown LocKind = iota
	// InRegister values live in Location.Reg.
	InRegister
	// InMemory values live at FP - Location.Offset.
	InMemory
)

var locKindNames = []string{"unknown", "register", "memory"}

func (k LocKind) String() string {
	if int(k) < len(locKindNames) {
		return locKindNames[k]
	}
	return "?"
}

// Location is the current storage of a value.
//
// A value moves Unknown -> InRegister on first use, InRegister -> InMemory
// only by eviction, and InMemory -> InRegister by reload. Once Spilled is
// set the Offset is fixed for the lifetime of the scope.
type Location struct {
	Kind    LocKind
	Reg     asm.Reg
	Offset  int32
	Spilled bool
}

func (l Location) String() string {
	switch l.Kind {
	case InRegister:
		return l.Reg.String()
	case InMemory:
		return fmt.Sprintf("%d(%s)", -l.Offset, asm.FP)
	}
	return "unknown"
}

// Scope tracks the location of every live value of one function
type Scope struct {
	tag       uint64
	locs      map[Value]*Location
	spillArea int32
	nextTemp  int
}

// NewScope creates an empty scope with a fresh tag
func NewScope() *Scope {
	return &Scope{
		tag:  newScopeTag(),
		locs: make(map[Value]*Location),
	}
}

// MintTemporary creates a new temporary in the Unknown location.
// Indices are never reused within a scope.
func (s *Scope) MintTemporary() Value {
	v := Value{scope: s.tag, temp: true, index: s.nextTemp}
	s.nextTemp++
	s.locs[v] = &Location{Kind: Unknown}
	return v
}

func (s *Scope) named(name string) Value {
	return Value{scope: s.tag, name: name}
}

// DeclareNamed returns the identity for a variable, recording it as
// Unknown if it is not present yet.
func (s *Scope) DeclareNamed(name string) Value {
	v := s.named(name)
	if _, ok := s.locs[v]; !ok {
		s.locs[v] = &Location{Kind: Unknown}
	}
	return v
}

// DeclareParameter records a parameter passed in the caller's frame.
// Its slot is already reserved, so it counts as spilled.
func (s *Scope) DeclareParameter(name string, offset int32) Value {
	v := s.named(name)
	s.locs[v] = &Location{Kind: InMemory, Offset: offset, Spilled: true}
	return v
}

// Lookup returns the location of a live value
func (s *Scope) Lookup(v Value) *Location {
	loc, ok := s.locs[v]
	if !ok {
		panic(newInternalError(ErrUnresolvedValue, v, "no location in scope"))
	}
	return loc
}

// ResolveByName finds the live named value with the given name
func (s *Scope) ResolveByName(name string) (Value, bool) {
	v := s.named(name)
	_, ok := s.locs[v]
	return v, ok
}

// SpillArea returns the bytes of frame reserved for spill slots so far
func (s *Scope) SpillArea() int32 {
	return s.spillArea
}

// reserveSlot grows the spill area by one slot and returns its offset
func (s *Scope) reserveSlot() int32 {
	s.spillArea += stacking.SpillSlotSize
	return s.spillArea
}

func (s *Scope) forget(v Value) {
	delete(s.locs, v)
}
