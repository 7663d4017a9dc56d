package stacking

import (
	"reflect"
	"testing"

	"github.com/raymyers/vypec/pkg/asm"
)

func TestParamOffset(t *testing.T) {
	tests := []struct {
		i, n int
		want int32
	}{
		{0, 1, 0},
		{0, 2, -4},
		{1, 2, 0},
		{0, 3, -8},
		{2, 3, 0},
	}
	for _, tt := range tests {
		if got := ParamOffset(tt.i, tt.n); got != tt.want {
			t.Errorf("ParamOffset(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestArgSlotMatchesParamSlot(t *testing.T) {
	// After JAL the callee's FP equals the caller's SP, so the caller's
	// store offset must equal the address the callee loads from.
	for n := 1; n <= 5; n++ {
		for i := 0; i < n; i++ {
			if got, want := ArgSlotOffset(i, n), -ParamOffset(i, n); got != want {
				t.Errorf("arg %d of %d: store at %d($sp), load from %d($fp)", i, n, got, want)
			}
		}
	}
}

func TestAreaSizes(t *testing.T) {
	if got := ArgAreaSize(3); got != 12 {
		t.Errorf("ArgAreaSize(3) = %d, want 12", got)
	}
	if got := SaveAreaSize(0); got != 0 {
		t.Errorf("SaveAreaSize(0) = %d, want 0", got)
	}
	if got := SaveAreaSize(4); got != 16 {
		t.Errorf("SaveAreaSize(4) = %d, want 16", got)
	}
	if got := SaveSlotOffset(0, 4); got != 12 {
		t.Errorf("SaveSlotOffset(0, 4) = %d, want 12", got)
	}
	if got := SaveSlotOffset(3, 4); got != 0 {
		t.Errorf("SaveSlotOffset(3, 4) = %d, want 0", got)
	}
}

func TestPrologueEpilogue(t *testing.T) {
	pro := GeneratePrologue()
	if !reflect.DeepEqual(pro, []asm.Instruction{asm.MOVE{Rd: asm.FP, Rs: asm.SP}}) {
		t.Errorf("prologue = %#v", pro)
	}
	epi := GenerateEpilogue()
	want := []asm.Instruction{asm.MOVE{Rd: asm.SP, Rs: asm.FP}, asm.JR{Rs: asm.RA}}
	if !reflect.DeepEqual(epi, want) {
		t.Errorf("epilogue = %#v, want %#v", epi, want)
	}
}

func TestGenerateEntry(t *testing.T) {
	got := GenerateEntry("main")
	want := []asm.Instruction{asm.JAL{Target: "main"}, asm.BREAK{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entry = %#v, want %#v", got, want)
	}
}

func TestGenerateReserve(t *testing.T) {
	code := GenerateReserve(8, "L0_4")
	if len(code) != 5 {
		t.Fatalf("expected 5 instructions, got %d", len(code))
	}
	if got := code[0]; got != (asm.ADDI{Rd: asm.AT, Rs: asm.FP, Imm: -8}) {
		t.Errorf("code[0] = %#v", got)
	}
	if got := code[3]; got != (asm.ADDI{Rd: asm.SP, Rs: asm.FP, Imm: -8}) {
		t.Errorf("code[3] = %#v", got)
	}
	if got := code[4]; got != (asm.LabelDef{Name: "L0_4"}) {
		t.Errorf("code[4] = %#v", got)
	}
}

func TestSaveRestoreMirror(t *testing.T) {
	regs := []asm.Reg{asm.FP, asm.RA, 5, 3}
	save := GenerateSave(regs)
	restore := GenerateRestore(regs)

	if len(save) != 5 || len(restore) != 5 {
		t.Fatalf("save has %d, restore has %d instructions, want 5 each", len(save), len(restore))
	}
	if got := save[0]; got != (asm.ADDI{Rd: asm.SP, Rs: asm.SP, Imm: -16}) {
		t.Errorf("save[0] = %#v", got)
	}
	if got := save[1]; got != (asm.SW{Rt: asm.FP, Base: asm.SP, Offset: 12}) {
		t.Errorf("save[1] = %#v", got)
	}
	if got := save[4]; got != (asm.SW{Rt: 3, Base: asm.SP, Offset: 0}) {
		t.Errorf("save[4] = %#v", got)
	}

	// Restore runs in reverse order from the same slots.
	if got := restore[0]; got != (asm.LW{Rt: 3, Base: asm.SP, Offset: 0}) {
		t.Errorf("restore[0] = %#v", got)
	}
	if got := restore[3]; got != (asm.LW{Rt: asm.FP, Base: asm.SP, Offset: 12}) {
		t.Errorf("restore[3] = %#v", got)
	}
	if got := restore[4]; got != (asm.ADDI{Rd: asm.SP, Rs: asm.SP, Imm: 16}) {
		t.Errorf("restore[4] = %#v", got)
	}
}

func TestSaveRestoreEmpty(t *testing.T) {
	if code := GenerateSave(nil); code != nil {
		t.Errorf("expected nil, got %#v", code)
	}
	if code := GenerateRestore(nil); code != nil {
		t.Errorf("expected nil, got %#v", code)
	}
}
