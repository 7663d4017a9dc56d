package asm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Object files (.vo) hold a lowered program so it can be run later
// without recompiling. Bump objectSchema when the record layout changes.
const (
	objectMagic         = "VYPO"
	objectSchema uint16 = 1
)

// ErrBadObject is returned when an object file cannot be decoded
var ErrBadObject = errors.New("not a vypec object file")

type objectFile struct {
	Magic     string           `msgpack:"magic"`
	Schema    uint16           `msgpack:"schema"`
	Functions []objectFunction `msgpack:"functions"`
}

type objectFunction struct {
	Name    string         `msgpack:"name"`
	Code    []objectInst   `msgpack:"code"`
	Strings []objectString `msgpack:"strings,omitempty"`
}

type objectString struct {
	Label Label  `msgpack:"label"`
	Data  []byte `msgpack:"data"`
}

// objectInst is the flat on-disk form of an Instruction.
type objectInst struct {
	Op    string `msgpack:"op"`
	Regs  []int  `msgpack:"r,omitempty"`
	Imm   int32  `msgpack:"i,omitempty"`
	Label string `msgpack:"l,omitempty"`
}

// WriteObject serializes a program in msgpack form
func WriteObject(w io.Writer, prog *Program) error {
	file := objectFile{Magic: objectMagic, Schema: objectSchema}
	for _, f := range prog.Functions {
		of := objectFunction{Name: f.Name}
		for _, inst := range f.Code {
			rec, err := encodeInst(inst)
			if err != nil {
				return fmt.Errorf("function %s: %w", f.Name, err)
			}
			of.Code = append(of.Code, rec)
		}
		for _, s := range f.Strings {
			of.Strings = append(of.Strings, objectString{Label: s.Label, Data: s.Data})
		}
		file.Functions = append(file.Functions, of)
	}
	return msgpack.NewEncoder(w).Encode(&file)
}

// WriteObjectFile writes the object next to its final path and renames
// it into place.
func WriteObjectFile(path string, prog *Program) error {
	f, err := os.CreateTemp(filepath.Dir(path), "vypec-*.vo")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := WriteObject(f, prog); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadObject decodes a program written by WriteObject
func ReadObject(r io.Reader) (*Program, error) {
	var file objectFile
	if err := msgpack.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadObject, err)
	}
	if file.Magic != objectMagic {
		return nil, ErrBadObject
	}
	if file.Schema != objectSchema {
		return nil, fmt.Errorf("%w: schema %d, want %d", ErrBadObject, file.Schema, objectSchema)
	}

	prog := &Program{}
	for i, of := range file.Functions {
		f := NewFunction(of.Name, i)
		for _, rec := range of.Code {
			inst, err := rec.decode()
			if err != nil {
				return nil, fmt.Errorf("%w: function %s: %v", ErrBadObject, of.Name, err)
			}
			f.Append(inst)
		}
		for _, s := range of.Strings {
			f.AddString(s.Label, s.Data)
		}
		prog.Functions = append(prog.Functions, *f)
	}
	return prog, nil
}

// ReadObjectFile opens and decodes an object file
func ReadObjectFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadObject(f)
}

func regs(rs ...Reg) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = int(r)
	}
	return out
}

func encodeInst(inst Instruction) (objectInst, error) {
	switch i := inst.(type) {
	case ADD:
		return objectInst{Op: "add", Regs: regs(i.Rd, i.Rs, i.Rt)}, nil
	case SUB:
		return objectInst{Op: "sub", Regs: regs(i.Rd, i.Rs, i.Rt)}, nil
	case ADDI:
		return objectInst{Op: "addi", Regs: regs(i.Rd, i.Rs), Imm: i.Imm}, nil
	case MUL:
		return objectInst{Op: "mul", Regs: regs(i.Rd, i.Rs, i.Rt)}, nil
	case DIV:
		return objectInst{Op: "div", Regs: regs(i.Rs, i.Rt)}, nil
	case MFHI:
		return objectInst{Op: "mfhi", Regs: regs(i.Rd)}, nil
	case MFLO:
		return objectInst{Op: "mflo", Regs: regs(i.Rd)}, nil
	case ANDI:
		return objectInst{Op: "andi", Regs: regs(i.Rd, i.Rs), Imm: i.Imm}, nil
	case SLT:
		return objectInst{Op: "slt", Regs: regs(i.Rd, i.Rs, i.Rt)}, nil
	case MOVE:
		return objectInst{Op: "move", Regs: regs(i.Rd, i.Rs)}, nil
	case LI:
		return objectInst{Op: "li", Regs: regs(i.Rd), Imm: i.Imm}, nil
	case LA:
		return objectInst{Op: "la", Regs: regs(i.Rd), Label: string(i.Label)}, nil
	case MOVZ:
		return objectInst{Op: "movz", Regs: regs(i.Rd, i.Rs, i.Rt)}, nil
	case MOVN:
		return objectInst{Op: "movn", Regs: regs(i.Rd, i.Rs, i.Rt)}, nil
	case LW:
		return objectInst{Op: "lw", Regs: regs(i.Rt, i.Base), Imm: i.Offset}, nil
	case SW:
		return objectInst{Op: "sw", Regs: regs(i.Rt, i.Base), Imm: i.Offset}, nil
	case LBU:
		return objectInst{Op: "lbu", Regs: regs(i.Rt, i.Base), Imm: i.Offset}, nil
	case SB:
		return objectInst{Op: "sb", Regs: regs(i.Rt, i.Base), Imm: i.Offset}, nil
	case J:
		return objectInst{Op: "j", Label: string(i.Target)}, nil
	case JAL:
		return objectInst{Op: "jal", Label: string(i.Target)}, nil
	case JR:
		return objectInst{Op: "jr", Regs: regs(i.Rs)}, nil
	case BEQ:
		return objectInst{Op: "beq", Regs: regs(i.Rs, i.Rt), Label: string(i.Target)}, nil
	case BNE:
		return objectInst{Op: "bne", Regs: regs(i.Rs, i.Rt), Label: string(i.Target)}, nil
	case BGTZ:
		return objectInst{Op: "bgtz", Regs: regs(i.Rs), Label: string(i.Target)}, nil
	case BLTZ:
		return objectInst{Op: "bltz", Regs: regs(i.Rs), Label: string(i.Target)}, nil
	case BREAK:
		return objectInst{Op: "break"}, nil
	case ReadInt:
		return objectInst{Op: "read_int", Regs: regs(i.Rd)}, nil
	case ReadChar:
		return objectInst{Op: "read_char", Regs: regs(i.Rd)}, nil
	case ReadString:
		return objectInst{Op: "read_string", Regs: regs(i.Addr, i.Len)}, nil
	case PrintInt:
		return objectInst{Op: "print_int", Regs: regs(i.Rs)}, nil
	case PrintChar:
		return objectInst{Op: "print_char", Regs: regs(i.Rs)}, nil
	case PrintString:
		return objectInst{Op: "print_string", Regs: regs(i.Rs)}, nil
	case LabelDef:
		return objectInst{Op: ".label", Label: string(i.Name)}, nil
	case Comment:
		return objectInst{Op: ".comment", Label: i.Text}, nil
	}
	return objectInst{}, fmt.Errorf("cannot encode instruction %T", inst)
}

// reg returns operand n as a register
func (o objectInst) reg(n int) (Reg, error) {
	if n >= len(o.Regs) {
		return 0, fmt.Errorf("%s: missing operand %d", o.Op, n)
	}
	r, err := safecast.Conv[uint8](o.Regs[n])
	if err != nil || r >= NumRegs {
		return 0, fmt.Errorf("%s: bad register %d", o.Op, o.Regs[n])
	}
	return Reg(r), nil
}

// operands decodes the first n register operands
func (o objectInst) operands(n int) ([]Reg, error) {
	if len(o.Regs) != n {
		return nil, fmt.Errorf("%s: got %d register operands, want %d", o.Op, len(o.Regs), n)
	}
	out := make([]Reg, n)
	for k := range out {
		r, err := o.reg(k)
		if err != nil {
			return nil, err
		}
		out[k] = r
	}
	return out, nil
}

func (o objectInst) decode() (Instruction, error) {
	var want int
	switch o.Op {
	case "add", "sub", "mul", "slt", "movz", "movn":
		want = 3
	case "addi", "div", "andi", "move", "lw", "sw", "lbu", "sb", "beq", "bne", "read_string":
		want = 2
	case "mfhi", "mflo", "li", "la", "jr", "bgtz", "bltz",
		"read_int", "read_char", "print_int", "print_char", "print_string":
		want = 1
	case "j", "jal", "break", ".label", ".comment":
		want = 0
	default:
		return nil, fmt.Errorf("unknown op %q", o.Op)
	}
	r, err := o.operands(want)
	if err != nil {
		return nil, err
	}
	target := Label(o.Label)

	switch o.Op {
	case "add":
		return ADD{Rd: r[0], Rs: r[1], Rt: r[2]}, nil
	case "sub":
		return SUB{Rd: r[0], Rs: r[1], Rt: r[2]}, nil
	case "mul":
		return MUL{Rd: r[0], Rs: r[1], Rt: r[2]}, nil
	case "slt":
		return SLT{Rd: r[0], Rs: r[1], Rt: r[2]}, nil
	case "movz":
		return MOVZ{Rd: r[0], Rs: r[1], Rt: r[2]}, nil
	case "movn":
		return MOVN{Rd: r[0], Rs: r[1], Rt: r[2]}, nil
	case "addi":
		return ADDI{Rd: r[0], Rs: r[1], Imm: o.Imm}, nil
	case "div":
		return DIV{Rs: r[0], Rt: r[1]}, nil
	case "andi":
		return ANDI{Rd: r[0], Rs: r[1], Imm: o.Imm}, nil
	case "move":
		return MOVE{Rd: r[0], Rs: r[1]}, nil
	case "lw":
		return LW{Rt: r[0], Base: r[1], Offset: o.Imm}, nil
	case "sw":
		return SW{Rt: r[0], Base: r[1], Offset: o.Imm}, nil
	case "lbu":
		return LBU{Rt: r[0], Base: r[1], Offset: o.Imm}, nil
	case "sb":
		return SB{Rt: r[0], Base: r[1], Offset: o.Imm}, nil
	case "beq":
		return BEQ{Rs: r[0], Rt: r[1], Target: target}, nil
	case "bne":
		return BNE{Rs: r[0], Rt: r[1], Target: target}, nil
	case "read_string":
		return ReadString{Addr: r[0], Len: r[1]}, nil
	case "mfhi":
		return MFHI{Rd: r[0]}, nil
	case "mflo":
		return MFLO{Rd: r[0]}, nil
	case "li":
		return LI{Rd: r[0], Imm: o.Imm}, nil
	case "la":
		return LA{Rd: r[0], Label: target}, nil
	case "jr":
		return JR{Rs: r[0]}, nil
	case "bgtz":
		return BGTZ{Rs: r[0], Target: target}, nil
	case "bltz":
		return BLTZ{Rs: r[0], Target: target}, nil
	case "read_int":
		return ReadInt{Rd: r[0]}, nil
	case "read_char":
		return ReadChar{Rd: r[0]}, nil
	case "print_int":
		return PrintInt{Rs: r[0]}, nil
	case "print_char":
		return PrintChar{Rs: r[0]}, nil
	case "print_string":
		return PrintString{Rs: r[0]}, nil
	case "j":
		return J{Target: target}, nil
	case "jal":
		return JAL{Target: target}, nil
	case "break":
		return BREAK{}, nil
	case ".label":
		return LabelDef{Name: target}, nil
	default: // ".comment"
		return Comment{Text: o.Label}, nil
	}
}
