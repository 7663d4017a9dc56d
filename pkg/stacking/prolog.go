package stacking

import "github.com/raymyers/vypec/pkg/asm"

// GeneratePrologue generates the function prologue.
// The caller has already pushed the arguments and JAL has set RA, so the
// callee only anchors its frame: FP = SP.
func GeneratePrologue() []asm.Instruction {
	return []asm.Instruction{
		asm.MOVE{Rd: asm.FP, Rs: asm.SP},
	}
}

// GenerateEpilogue generates the function epilogue.
// Popping to FP discards every spill slot; the caller restores its own FP
// and RA from its save area after the call returns.
func GenerateEpilogue() []asm.Instruction {
	return []asm.Instruction{
		asm.MOVE{Rd: asm.SP, Rs: asm.FP},
		asm.JR{Rs: asm.RA},
	}
}

// GenerateEntry generates the program entry stub that calls the entry
// function and halts the machine when it returns.
func GenerateEntry(entry asm.Label) []asm.Instruction {
	return []asm.Instruction{
		asm.JAL{Target: entry},
		asm.BREAK{},
	}
}

// GenerateReserve keeps the spill slot at FP-offset below the stack
// pointer: SP = min(SP, FP-offset). Executing it again, e.g. on a later
// loop iteration, never moves SP. skip must be a fresh label.
//
//	addi $at, $fp, -offset
//	sub  $at, $at, $sp
//	bgtz $at, skip
//	addi $sp, $fp, -offset
//	skip:
func GenerateReserve(offset int32, skip asm.Label) []asm.Instruction {
	return []asm.Instruction{
		asm.ADDI{Rd: asm.AT, Rs: asm.FP, Imm: -offset},
		asm.SUB{Rd: asm.AT, Rs: asm.AT, Rt: asm.SP},
		asm.BGTZ{Rs: asm.AT, Target: skip},
		asm.ADDI{Rd: asm.SP, Rs: asm.FP, Imm: -offset},
		asm.LabelDef{Name: skip},
	}
}
