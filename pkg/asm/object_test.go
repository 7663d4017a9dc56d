package asm

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func sampleProgram() *Program {
	start := NewFunction("__start", 0)
	start.AppendLabel("__start")
	start.Append(JAL{Target: "main"})
	start.Append(BREAK{})

	main := NewFunction("main", 1)
	main.AppendLabel("main")
	main.Append(MOVE{Rd: FP, Rs: SP})
	l := main.NewStringLabel()
	main.AddString(l, []byte("a\"b\n"))
	main.Append(LA{Rd: 3, Label: l})
	main.Append(PrintString{Rs: 3})
	main.Append(Comment{Text: "spill1 x"})
	main.Append(SW{Rt: 4, Base: FP, Offset: -4})
	main.Append(ADDI{Rd: SP, Rs: SP, Imm: -8})
	main.Append(BEQ{Rs: 4, Rt: Zero, Target: "L1_0"})
	main.Append(ReadString{Addr: GP, Len: 5})
	main.AppendLabel("L1_0")
	main.Append(MOVE{Rd: SP, Rs: FP})
	main.Append(JR{Rs: RA})

	return &Program{Functions: []Function{*start, *main}}
}

func TestObjectRoundTrip(t *testing.T) {
	prog := sampleProgram()

	var buf bytes.Buffer
	if err := WriteObject(&buf, prog); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	got, err := ReadObject(&buf)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}

	if len(got.Functions) != len(prog.Functions) {
		t.Fatalf("got %d functions, want %d", len(got.Functions), len(prog.Functions))
	}
	for i := range prog.Functions {
		want, have := prog.Functions[i], got.Functions[i]
		if have.Name != want.Name {
			t.Errorf("function %d name = %q, want %q", i, have.Name, want.Name)
		}
		if !reflect.DeepEqual(have.Code, want.Code) {
			t.Errorf("function %s code mismatch\ngot:  %#v\nwant: %#v", want.Name, have.Code, want.Code)
		}
		if !reflect.DeepEqual(have.Strings, want.Strings) {
			t.Errorf("function %s strings = %#v, want %#v", want.Name, have.Strings, want.Strings)
		}
	}
}

func TestObjectFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.vo")
	if err := WriteObjectFile(path, sampleProgram()); err != nil {
		t.Fatalf("WriteObjectFile: %v", err)
	}
	got, err := ReadObjectFile(path)
	if err != nil {
		t.Fatalf("ReadObjectFile: %v", err)
	}
	if got.Len() != sampleProgram().Len() {
		t.Errorf("Len() = %d, want %d", got.Len(), sampleProgram().Len())
	}
}

func TestReadObjectRejectsGarbage(t *testing.T) {
	if _, err := ReadObject(bytes.NewReader([]byte("not msgpack at all"))); !errors.Is(err, ErrBadObject) {
		t.Errorf("expected ErrBadObject, got %v", err)
	}
}

func TestReadObjectRejectsWrongMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&objectFile{Magic: "ELF", Schema: objectSchema}); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadObject(&buf); !errors.Is(err, ErrBadObject) {
		t.Errorf("expected ErrBadObject, got %v", err)
	}
}

func TestDecodeRejectsBadOperands(t *testing.T) {
	tests := []struct {
		name string
		rec  objectInst
	}{
		{"unknown op", objectInst{Op: "frob"}},
		{"missing operand", objectInst{Op: "add", Regs: []int{3, 4}}},
		{"register out of range", objectInst{Op: "jr", Regs: []int{40}}},
		{"negative register", objectInst{Op: "jr", Regs: []int{-1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.rec.decode(); err == nil {
				t.Errorf("expected error decoding %+v", tt.rec)
			}
		})
	}
}
