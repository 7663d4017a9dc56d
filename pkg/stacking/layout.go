// Package stacking lays out activation records for the VYPe calling
// convention: argument slots, the caller save area, spill slots, and the
// prologue/epilogue that delimit a frame.
package stacking

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/raymyers/vypec/pkg/asm"
)

// Frame layout (callee's view, addresses grow upward):
//
//	+---------------------------+
//	| caller's save area        |  FP, RA and live GPRs of the caller
//	+---------------------------+
//	| argument 0                |  FP + 4*(N-1)
//	| ...                       |
//	| argument N-1              |  FP + 0
//	+---------------------------+  <- FP == SP at entry
//	| spill slot 1              |  FP - 4
//	| spill slot 2              |  FP - 8
//	| ...                       |
//	+---------------------------+  <- SP (never above the deepest
//	                                     spill slot written so far)
//
// Spill slots are addressed from FP with the positive offset the
// register allocator records, so a slot at offset k lives at FP - k.

// words returns n words in bytes as an immediate
func words(n int) int32 {
	b, err := safecast.Conv[int32](n * asm.WordSize)
	if err != nil {
		panic(fmt.Sprintf("stacking: %d words do not fit an immediate", n))
	}
	return b
}

// ParamOffset returns the frame offset recorded for parameter i of n.
// The parameter lives at FP - ParamOffset(i, n), i.e. at or above FP.
func ParamOffset(i, n int) int32 {
	return -words(n - 1 - i)
}

// ArgSlotOffset returns the SP-relative offset at which the caller stores
// argument i of n. The first argument occupies the highest slot.
func ArgSlotOffset(i, n int) int32 {
	return words(n - 1 - i)
}

// ArgAreaSize returns the bytes reserved on the stack for n arguments
func ArgAreaSize(n int) int32 {
	return words(n)
}

// SaveSlotOffset returns the SP-relative offset of register i in a save
// area holding k registers. The first saved register is highest.
func SaveSlotOffset(i, k int) int32 {
	return words(k - 1 - i)
}

// SaveAreaSize returns the bytes reserved for k saved registers
func SaveAreaSize(k int) int32 {
	return words(k)
}

// SpillSlotSize is the growth of the spill area per first-time spill
const SpillSlotSize int32 = asm.WordSize
