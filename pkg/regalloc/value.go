// Package regalloc assigns the target's general purpose registers to
// program values while a function is being lowered.
//
// Allocation is on demand: a value gets a register when an instruction
// needs it, and when no register is free the least recently bound one is
// evicted to a stack slot in the current frame. A fresh Allocator (and
// Scope) is used for every function.
package regalloc

import (
	"fmt"
	"sync/atomic"
)

// Value identifies a program value within one function: either a named
// variable or parameter, or a compiler temporary. Values from different
// scopes never compare equal, even with the same name or index.
type Value struct {
	scope uint64
	temp  bool
	index int
	name  string
}

var scopeTags atomic.Uint64

// newScopeTag returns a tag unique for the lifetime of the process.
// Functions are lowered concurrently, hence the atomic.
func newScopeTag() uint64 {
	return scopeTags.Add(1)
}

// IsTemporary reports whether v is a compiler temporary
func (v Value) IsTemporary() bool { return v.temp }

// Name returns the variable name of a named value
func (v Value) Name() string { return v.name }

// Index returns the index of a temporary
func (v Value) Index() int { return v.index }

// IsZero reports whether v is the zero Value, which names nothing
func (v Value) IsZero() bool { return v.scope == 0 }

func (v Value) String() string {
	if v.temp {
		return fmt.Sprintf("$t%d", v.index)
	}
	return v.name
}
