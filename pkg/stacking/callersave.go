package stacking

import "github.com/raymyers/vypec/pkg/asm"

// Registers a caller must preserve across a call: FP and RA always, then
// every general purpose register that holds a live value. The callee may
// use any register, so nothing is callee-saved.

// FrameRegs are saved ahead of the live GPRs on every call
var FrameRegs = []asm.Reg{asm.FP, asm.RA}

// GenerateSave pushes regs onto the stack, first register highest.
//
//	addi $sp, $sp, -4k
//	sw   regs[0], 4(k-1)($sp)
//	...
//	sw   regs[k-1], 0($sp)
func GenerateSave(regs []asm.Reg) []asm.Instruction {
	if len(regs) == 0 {
		return nil
	}
	k := len(regs)
	code := []asm.Instruction{
		asm.ADDI{Rd: asm.SP, Rs: asm.SP, Imm: -SaveAreaSize(k)},
	}
	for i, r := range regs {
		code = append(code, asm.SW{Rt: r, Base: asm.SP, Offset: SaveSlotOffset(i, k)})
	}
	return code
}

// GenerateRestore pops the area written by GenerateSave, reloading the
// registers in reverse order.
func GenerateRestore(regs []asm.Reg) []asm.Instruction {
	if len(regs) == 0 {
		return nil
	}
	k := len(regs)
	var code []asm.Instruction
	for i := k - 1; i >= 0; i-- {
		code = append(code, asm.LW{Rt: regs[i], Base: asm.SP, Offset: SaveSlotOffset(i, k)})
	}
	code = append(code, asm.ADDI{Rd: asm.SP, Rs: asm.SP, Imm: SaveAreaSize(k)})
	return code
}
