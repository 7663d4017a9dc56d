package asm

import "testing"

func TestRegString(t *testing.T) {
	tests := []struct {
		reg  Reg
		want string
	}{
		{Zero, "$zero"},
		{AT, "$at"},
		{V0, "$v0"},
		{FirstGPR, "$3"},
		{FirstGPR + MaxGPRs - 1, "$27"},
		{GP, "$gp"},
		{SP, "$sp"},
		{FP, "$fp"},
		{RA, "$ra"},
	}
	for _, tt := range tests {
		if got := tt.reg.String(); got != tt.want {
			t.Errorf("Reg(%d).String() = %q, want %q", uint8(tt.reg), got, tt.want)
		}
	}
}

func TestRegIsGPR(t *testing.T) {
	for r := Reg(0); r < NumRegs; r++ {
		want := r >= 3 && r <= 27
		if got := r.IsGPR(); got != want {
			t.Errorf("Reg(%d).IsGPR() = %v, want %v", r, got, want)
		}
	}
}

func TestInstructionInterface(t *testing.T) {
	// Verify all instruction types implement the Instruction interface
	var _ Instruction = ADD{}
	var _ Instruction = SUB{}
	var _ Instruction = ADDI{}
	var _ Instruction = MUL{}
	var _ Instruction = DIV{}
	var _ Instruction = MFHI{}
	var _ Instruction = MFLO{}
	var _ Instruction = ANDI{}
	var _ Instruction = SLT{}
	var _ Instruction = MOVE{}
	var _ Instruction = LI{}
	var _ Instruction = LA{}
	var _ Instruction = MOVZ{}
	var _ Instruction = MOVN{}
	var _ Instruction = LW{}
	var _ Instruction = SW{}
	var _ Instruction = LBU{}
	var _ Instruction = SB{}
	var _ Instruction = J{}
	var _ Instruction = JAL{}
	var _ Instruction = JR{}
	var _ Instruction = BEQ{}
	var _ Instruction = BNE{}
	var _ Instruction = BGTZ{}
	var _ Instruction = BLTZ{}
	var _ Instruction = BREAK{}
	var _ Instruction = ReadInt{}
	var _ Instruction = ReadChar{}
	var _ Instruction = ReadString{}
	var _ Instruction = PrintInt{}
	var _ Instruction = PrintChar{}
	var _ Instruction = PrintString{}
	var _ Instruction = LabelDef{}
	var _ Instruction = Comment{}
}

func TestFunctionLabelsAreNamespaced(t *testing.T) {
	f := NewFunction("f", 2)
	g := NewFunction("g", 3)

	if got := f.NewLabel(); got != "L2_0" {
		t.Errorf("first label = %q, want L2_0", got)
	}
	if got := f.NewLabel(); got != "L2_1" {
		t.Errorf("second label = %q, want L2_1", got)
	}
	if got := g.NewLabel(); got != "L3_0" {
		t.Errorf("other function label = %q, want L3_0", got)
	}
	if got := f.NewStringLabel(); got != "S2_0" {
		t.Errorf("string label = %q, want S2_0", got)
	}
}

func TestFunctionAppend(t *testing.T) {
	f := NewFunction("main", 0)
	f.AppendLabel("main")
	f.Append(LI{Rd: 3, Imm: 1})
	f.Append(Comment{Text: "note"})
	f.Append(JR{Rs: RA})

	if len(f.Code) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(f.Code))
	}
	if _, ok := f.Code[0].(LabelDef); !ok {
		t.Errorf("expected LabelDef first, got %T", f.Code[0])
	}

	prog := &Program{Functions: []Function{*f}}
	if got := prog.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 (labels and comments do not count)", got)
	}
}

func TestProgramStringsInFunctionOrder(t *testing.T) {
	a := NewFunction("a", 0)
	a.AddString(a.NewStringLabel(), []byte("x"))
	b := NewFunction("b", 1)
	b.AddString(b.NewStringLabel(), []byte("y"))
	b.AddString(b.NewStringLabel(), []byte("z"))

	prog := &Program{Functions: []Function{*a, *b}}
	strs := prog.Strings()
	want := []Label{"S0_0", "S1_0", "S1_1"}
	if len(strs) != len(want) {
		t.Fatalf("got %d strings, want %d", len(strs), len(want))
	}
	for i, s := range strs {
		if s.Label != want[i] {
			t.Errorf("strings[%d] = %q, want %q", i, s.Label, want[i])
		}
	}
}
