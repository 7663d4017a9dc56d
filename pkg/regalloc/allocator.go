package regalloc

import (
	"fmt"
	"io"
	"log"

	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/stacking"
)

// Pool size limits. String comparison keeps five registers live at once.
const (
	DefaultGPRs = 16
	MinGPRs     = 6
	MaxGPRs     = asm.MaxGPRs
)

// Options configures an Allocator
type Options struct {
	// GPRs is the number of pool registers to allocate from (0 = default).
	GPRs int
	// Func names the function being lowered, for tracing.
	Func string
	// Log receives a trace of spills, reloads and releases (nil = none).
	Log *log.Logger
}

// slot is one entry of the allocation queue
type slot struct {
	reg   asm.Reg
	val   Value
	bound bool
}

// Allocator hands out registers for one function.
//
// The queue holds every pool register exactly once. The front is the next
// eviction victim; a newly bound register moves to the back and a
// released one to the front. A slot bound to v implies
// Location(v) = InRegister(slot.reg).
type Allocator struct {
	out   asm.Sink
	scope *Scope
	queue []*slot
	fn    string
	log   *log.Logger
}

// New creates an allocator that emits spill and reload code into out
func New(out asm.Sink, opts Options) (*Allocator, error) {
	n := opts.GPRs
	if n == 0 {
		n = DefaultGPRs
	}
	if n < MinGPRs || n > MaxGPRs {
		return nil, fmt.Errorf("regalloc: %d general purpose registers requested, need %d..%d", n, MinGPRs, MaxGPRs)
	}
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &Allocator{
		out:   out,
		scope: NewScope(),
		queue: make([]*slot, n),
		fn:    opts.Func,
		log:   logger,
	}
	for i := range a.queue {
		a.queue[i] = &slot{reg: asm.FirstGPR + asm.Reg(i)}
	}
	return a, nil
}

// Scope returns the location tracker of the function
func (a *Allocator) Scope() *Scope { return a.scope }

// Role accessors for the reserved registers
func (a *Allocator) Zero() asm.Reg        { return asm.Zero }
func (a *Allocator) Scratch() asm.Reg     { return asm.AT }
func (a *Allocator) HeapPtr() asm.Reg     { return asm.GP }
func (a *Allocator) StackPtr() asm.Reg    { return asm.SP }
func (a *Allocator) FramePtr() asm.Reg    { return asm.FP }
func (a *Allocator) ReturnAddr() asm.Reg  { return asm.RA }
func (a *Allocator) ReturnValue() asm.Reg { return asm.V0 }

// FreshTemporary creates a new temporary value
func (a *Allocator) FreshTemporary() Value {
	return a.scope.MintTemporary()
}

// DeclareParameter records a parameter living at FP - offset
func (a *Allocator) DeclareParameter(name string, offset int32) Value {
	return a.scope.DeclareParameter(name, offset)
}

// ResolveOrDeclareNamed returns the live value for name, declaring it if
// this is its first occurrence.
func (a *Allocator) ResolveOrDeclareNamed(name string) Value {
	return a.scope.DeclareNamed(name)
}

// MustResolveNamed returns the live value for name
func (a *Allocator) MustResolveNamed(name string) Value {
	v, ok := a.scope.ResolveByName(name)
	if !ok {
		panic(newInternalError(ErrUndeclaredName, Value{}, "%s", name))
	}
	return v
}

// LocationOf returns a copy of v's current location
func (a *Allocator) LocationOf(v Value) Location {
	return *a.scope.Lookup(v)
}

// Bound returns the values currently held in registers, in queue order
func (a *Allocator) Bound() []Value {
	var vals []Value
	for _, s := range a.queue {
		if s.bound {
			vals = append(vals, s.val)
		}
	}
	return vals
}

// Acquire returns a register holding v, evicting the queue front if v is
// not in a register yet. A value in memory is reloaded; an Unknown value
// gets a register with undefined content. Acquiring a value that is
// already in a register moves it to the back of the queue, so operands
// of one instruction never evict each other.
func (a *Allocator) Acquire(v Value) asm.Reg {
	loc := a.scope.Lookup(v)
	switch loc.Kind {
	case InRegister:
		i := a.indexOf(loc.Reg)
		if i < 0 || !a.queue[i].bound || a.queue[i].val != v {
			panic(newInternalError(ErrRegisterNotQueued, v, "location says %s", loc.Reg))
		}
		a.moveToBack(i)
		return loc.Reg
	case InMemory:
		s := a.evict()
		a.comment("reload %s", v)
		a.out.Append(asm.LW{Rt: s.reg, Base: asm.FP, Offset: -loc.Offset})
		a.log.Printf("%s: reload %s from %s into %s", a.fn, v, loc, s.reg)
		a.bind(s, v, loc)
		return s.reg
	default:
		s := a.evict()
		a.bind(s, v, loc)
		return s.reg
	}
}

// AcquireNoSpill returns a register holding v without touching the queue
// or the frame. A value in memory is loaded into the scratch register,
// which stays valid only until the next AcquireNoSpill.
func (a *Allocator) AcquireNoSpill(v Value) asm.Reg {
	loc := a.scope.Lookup(v)
	switch loc.Kind {
	case InRegister:
		return loc.Reg
	case InMemory:
		a.comment("load %s", v)
		a.out.Append(asm.LW{Rt: asm.AT, Base: asm.FP, Offset: -loc.Offset})
		return asm.AT
	default:
		panic(newInternalError(ErrNoSpillUnknown, v, "value has no content"))
	}
}

// Release frees a temporary after its last use. Named values stay live
// for the whole function and are left alone.
func (a *Allocator) Release(v Value) {
	if !v.IsTemporary() {
		return
	}
	loc := a.scope.Lookup(v)
	if loc.Kind == InRegister {
		i := a.indexOf(loc.Reg)
		if i < 0 {
			panic(newInternalError(ErrRegisterNotQueued, v, "release of %s", loc.Reg))
		}
		s := a.queue[i]
		s.bound = false
		s.val = Value{}
		a.moveToFront(i)
	}
	a.scope.forget(v)
	a.log.Printf("%s: release %s", a.fn, v)
}

// SpillNamed evicts every register holding a named value, leaving all
// named values in memory and their registers free. Lowering calls it
// wherever control flow joins, so every path into a label leaves the
// allocator in the same state.
func (a *Allocator) SpillNamed() {
	var freed, free, kept []*slot
	for _, s := range a.queue {
		switch {
		case s.bound && !s.val.IsTemporary():
			a.spill(s)
			s.bound = false
			s.val = Value{}
			freed = append(freed, s)
		case s.bound:
			kept = append(kept, s)
		default:
			free = append(free, s)
		}
	}
	a.queue = append(append(freed, free...), kept...)
}

// SaveCallerState pushes FP, RA and every bound register onto the stack
// and returns them in save order for RestoreCallerState.
func (a *Allocator) SaveCallerState() []asm.Reg {
	saved := append([]asm.Reg(nil), stacking.FrameRegs...)
	for _, s := range a.queue {
		if s.bound {
			saved = append(saved, s.reg)
		}
	}
	a.comment("save %d registers", len(saved))
	for _, inst := range stacking.GenerateSave(saved) {
		a.out.Append(inst)
	}
	return saved
}

// RestoreCallerState reloads the registers pushed by SaveCallerState
// and pops the save area.
func (a *Allocator) RestoreCallerState(saved []asm.Reg) {
	a.comment("restore %d registers", len(saved))
	for _, inst := range stacking.GenerateRestore(saved) {
		a.out.Append(inst)
	}
}

// evict pops the queue front, spilling its value if it holds one
func (a *Allocator) evict() *slot {
	s := a.queue[0]
	a.queue = a.queue[1:]
	if s.bound {
		a.spill(s)
		s.bound = false
		s.val = Value{}
	}
	return s
}

// spill stores the value held by s to its slot. The first spill of a
// value reserves a slot for it and makes sure SP is below that slot.
func (a *Allocator) spill(s *slot) {
	loc := a.scope.Lookup(s.val)
	if loc.Kind != InRegister || loc.Reg != s.reg {
		panic(newInternalError(ErrSpillNotRegister, s.val, "location is %s, slot is %s", loc, s.reg))
	}
	if !loc.Spilled {
		loc.Offset = a.scope.reserveSlot()
		loc.Spilled = true
		a.comment("spill1 %s", s.val)
		for _, inst := range stacking.GenerateReserve(loc.Offset, a.out.NewLabel()) {
			a.out.Append(inst)
		}
	} else {
		a.comment("spill %s", s.val)
	}
	a.out.Append(asm.SW{Rt: s.reg, Base: asm.FP, Offset: -loc.Offset})
	loc.Kind = InMemory
	a.log.Printf("%s: spill %s from %s to %s", a.fn, s.val, s.reg, loc)
}

// bind assigns s to v and queues it at the back
func (a *Allocator) bind(s *slot, v Value, loc *Location) {
	s.val = v
	s.bound = true
	loc.Kind = InRegister
	loc.Reg = s.reg
	a.queue = append(a.queue, s)
}

func (a *Allocator) indexOf(r asm.Reg) int {
	for i, s := range a.queue {
		if s.reg == r {
			return i
		}
	}
	return -1
}

func (a *Allocator) moveToBack(i int) {
	s := a.queue[i]
	a.queue = append(a.queue[:i], a.queue[i+1:]...)
	a.queue = append(a.queue, s)
}

func (a *Allocator) moveToFront(i int) {
	s := a.queue[i]
	copy(a.queue[1:i+1], a.queue[:i])
	a.queue[0] = s
}

func (a *Allocator) comment(format string, args ...any) {
	a.out.Append(asm.Comment{Text: fmt.Sprintf(format, args...)})
}
