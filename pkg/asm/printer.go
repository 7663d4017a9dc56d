package asm

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs assembly in the syntax accepted by the VYPe simulator
type Printer struct {
	w io.Writer
	// OmitComments drops Comment lines from the output.
	OmitComments bool
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program
func (p *Printer) PrintProgram(prog *Program) {
	if strs := prog.Strings(); len(strs) > 0 {
		fmt.Fprintf(p.w, "\t.data\n")
		for _, s := range strs {
			fmt.Fprintf(p.w, "%s:\t.asciiz\t%s\n", s.Label, Quote(s.Data))
		}
		fmt.Fprintf(p.w, "\n")
	}

	fmt.Fprintf(p.w, "\t.text\n")
	for i := range prog.Functions {
		p.printFunction(&prog.Functions[i])
	}
}

func (p *Printer) printFunction(f *Function) {
	for _, inst := range f.Code {
		p.printInstruction(inst)
	}
	fmt.Fprintf(p.w, "\n")
}

// Quote renders a string constant as an .asciiz operand
func Quote(data []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, b := range data {
		switch {
		case b == '\n':
			sb.WriteString(`\n`)
		case b == '\t':
			sb.WriteString(`\t`)
		case b == '"':
			sb.WriteString(`\"`)
		case b == '\\':
			sb.WriteString(`\\`)
		case b < 0x20 || b >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, b)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func (p *Printer) printInstruction(inst Instruction) {
	switch i := inst.(type) {
	// Labels
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)
	case Comment:
		if !p.OmitComments {
			fmt.Fprintf(p.w, "\t# %s\n", i.Text)
		}

	// Arithmetic
	case ADD:
		fmt.Fprintf(p.w, "\tadd\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case SUB:
		fmt.Fprintf(p.w, "\tsub\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case ADDI:
		fmt.Fprintf(p.w, "\taddi\t%s, %s, %d\n", i.Rd, i.Rs, i.Imm)
	case MUL:
		fmt.Fprintf(p.w, "\tmul\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case DIV:
		fmt.Fprintf(p.w, "\tdiv\t%s, %s\n", i.Rs, i.Rt)
	case MFHI:
		fmt.Fprintf(p.w, "\tmfhi\t%s\n", i.Rd)
	case MFLO:
		fmt.Fprintf(p.w, "\tmflo\t%s\n", i.Rd)
	case ANDI:
		fmt.Fprintf(p.w, "\tandi\t%s, %s, %d\n", i.Rd, i.Rs, i.Imm)
	case SLT:
		fmt.Fprintf(p.w, "\tslt\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)

	// Moves
	case MOVE:
		fmt.Fprintf(p.w, "\tmove\t%s, %s\n", i.Rd, i.Rs)
	case LI:
		fmt.Fprintf(p.w, "\tli\t%s, %d\n", i.Rd, i.Imm)
	case LA:
		fmt.Fprintf(p.w, "\tla\t%s, %s\n", i.Rd, i.Label)
	case MOVZ:
		fmt.Fprintf(p.w, "\tmovz\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)
	case MOVN:
		fmt.Fprintf(p.w, "\tmovn\t%s, %s, %s\n", i.Rd, i.Rs, i.Rt)

	// Memory
	case LW:
		fmt.Fprintf(p.w, "\tlw\t%s, %d(%s)\n", i.Rt, i.Offset, i.Base)
	case SW:
		fmt.Fprintf(p.w, "\tsw\t%s, %d(%s)\n", i.Rt, i.Offset, i.Base)
	case LBU:
		fmt.Fprintf(p.w, "\tlbu\t%s, %d(%s)\n", i.Rt, i.Offset, i.Base)
	case SB:
		fmt.Fprintf(p.w, "\tsb\t%s, %d(%s)\n", i.Rt, i.Offset, i.Base)

	// Control flow
	case J:
		fmt.Fprintf(p.w, "\tj\t%s\n", i.Target)
	case JAL:
		fmt.Fprintf(p.w, "\tjal\t%s\n", i.Target)
	case JR:
		fmt.Fprintf(p.w, "\tjr\t%s\n", i.Rs)
	case BEQ:
		fmt.Fprintf(p.w, "\tbeq\t%s, %s, %s\n", i.Rs, i.Rt, i.Target)
	case BNE:
		fmt.Fprintf(p.w, "\tbne\t%s, %s, %s\n", i.Rs, i.Rt, i.Target)
	case BGTZ:
		fmt.Fprintf(p.w, "\tbgtz\t%s, %s\n", i.Rs, i.Target)
	case BLTZ:
		fmt.Fprintf(p.w, "\tbltz\t%s, %s\n", i.Rs, i.Target)
	case BREAK:
		fmt.Fprintf(p.w, "\tbreak\n")

	// I/O
	case ReadInt:
		fmt.Fprintf(p.w, "\tread_int\t%s\n", i.Rd)
	case ReadChar:
		fmt.Fprintf(p.w, "\tread_char\t%s\n", i.Rd)
	case ReadString:
		fmt.Fprintf(p.w, "\tread_string\t%s, %s\n", i.Addr, i.Len)
	case PrintInt:
		fmt.Fprintf(p.w, "\tprint_int\t%s\n", i.Rs)
	case PrintChar:
		fmt.Fprintf(p.w, "\tprint_char\t%s\n", i.Rs)
	case PrintString:
		fmt.Fprintf(p.w, "\tprint_string\t%s\n", i.Rs)

	default:
		fmt.Fprintf(p.w, "\t# unknown instruction %T\n", inst)
	}
}
