// Package asm defines the assembly representation for the VYPe target,
// a small load/store MIPS-like machine with 32 word registers.
// This is the final output of the compiler.
package asm

import "fmt"

// WordSize is the size in bytes of a register and of a stack slot.
const WordSize = 4

// Reg is a machine register number (0..31).
type Reg uint8

// Reserved registers, resolved by role.
const (
	Zero Reg = 0  // hard-wired zero
	AT   Reg = 1  // assembler scratch, used for reloads that must not spill
	V0   Reg = 2  // function return value
	GP   Reg = 28 // heap bump pointer
	SP   Reg = 29 // stack pointer
	FP   Reg = 30 // frame pointer
	RA   Reg = 31 // return address
)

// General purpose registers available to the allocator are
// FirstGPR .. FirstGPR+MaxGPRs-1.
const (
	FirstGPR Reg = 3
	MaxGPRs      = 25
	NumRegs      = 32
)

var regNames = map[Reg]string{
	Zero: "$zero",
	AT:   "$at",
	V0:   "$v0",
	GP:   "$gp",
	SP:   "$sp",
	FP:   "$fp",
	RA:   "$ra",
}

func (r Reg) String() string {
	if name, ok := regNames[r]; ok {
		return name
	}
	return fmt.Sprintf("$%d", uint8(r))
}

// IsGPR reports whether r belongs to the allocatable pool.
func (r Reg) IsGPR() bool {
	return r >= FirstGPR && r < FirstGPR+MaxGPRs
}

// Label represents a branch target or data label
type Label string

// Instruction is the interface for target instructions
type Instruction interface {
	implInstruction()
}

// --- Arithmetic ---

// ADD - Rd = Rs + Rt
type ADD struct {
	Rd, Rs, Rt Reg
}

// SUB - Rd = Rs - Rt
type SUB struct {
	Rd, Rs, Rt Reg
}

// ADDI - Rd = Rs + Imm
type ADDI struct {
	Rd, Rs Reg
	Imm    int32
}

// MUL - Rd = Rs * Rt (low word)
type MUL struct {
	Rd, Rs, Rt Reg
}

// DIV - LO = Rs / Rt, HI = Rs % Rt
type DIV struct {
	Rs, Rt Reg
}

// MFHI - Rd = HI
type MFHI struct {
	Rd Reg
}

// MFLO - Rd = LO
type MFLO struct {
	Rd Reg
}

// ANDI - Rd = Rs & Imm
type ANDI struct {
	Rd, Rs Reg
	Imm    int32
}

// SLT - Rd = 1 if Rs < Rt else 0
type SLT struct {
	Rd, Rs, Rt Reg
}

// --- Moves ---

// MOVE - Rd = Rs
type MOVE struct {
	Rd, Rs Reg
}

// LI - Rd = Imm
type LI struct {
	Rd  Reg
	Imm int32
}

// LA - Rd = address of a data label
type LA struct {
	Rd    Reg
	Label Label
}

// MOVZ - Rd = Rs if Rt == 0
type MOVZ struct {
	Rd, Rs, Rt Reg
}

// MOVN - Rd = Rs if Rt != 0
type MOVN struct {
	Rd, Rs, Rt Reg
}

// --- Memory ---

// LW - load word: Rt = mem32[Base+Offset]
type LW struct {
	Rt, Base Reg
	Offset   int32
}

// SW - store word: mem32[Base+Offset] = Rt
type SW struct {
	Rt, Base Reg
	Offset   int32
}

// LBU - load byte unsigned
type LBU struct {
	Rt, Base Reg
	Offset   int32
}

// SB - store low byte
type SB struct {
	Rt, Base Reg
	Offset   int32
}

// --- Control flow ---

// J - unconditional jump
type J struct {
	Target Label
}

// JAL - jump and link (RA = return point)
type JAL struct {
	Target Label
}

// JR - jump to register
type JR struct {
	Rs Reg
}

// BEQ - branch if Rs == Rt
type BEQ struct {
	Rs, Rt Reg
	Target Label
}

// BNE - branch if Rs != Rt
type BNE struct {
	Rs, Rt Reg
	Target Label
}

// BGTZ - branch if Rs > 0
type BGTZ struct {
	Rs     Reg
	Target Label
}

// BLTZ - branch if Rs < 0
type BLTZ struct {
	Rs     Reg
	Target Label
}

// BREAK - stop the machine
type BREAK struct{}

// --- I/O provided by the target simulator ---

// ReadInt reads a decimal integer into Rd
type ReadInt struct {
	Rd Reg
}

// ReadChar reads one byte into Rd
type ReadChar struct {
	Rd Reg
}

// ReadString reads a line into memory at Addr and puts its length in Len
type ReadString struct {
	Addr, Len Reg
}

// PrintInt writes Rs as a decimal integer
type PrintInt struct {
	Rs Reg
}

// PrintChar writes the low byte of Rs
type PrintChar struct {
	Rs Reg
}

// PrintString writes the NUL-terminated string at address Rs
type PrintString struct {
	Rs Reg
}

// --- Pseudo instructions ---

// LabelDef places a label
type LabelDef struct {
	Name Label
}

// Comment is an annotation line with no effect on execution
type Comment struct {
	Text string
}

// --- Marker methods for Instruction interface ---

func (ADD) implInstruction()         {}
func (SUB) implInstruction()         {}
func (ADDI) implInstruction()        {}
func (MUL) implInstruction()         {}
func (DIV) implInstruction()         {}
func (MFHI) implInstruction()        {}
func (MFLO) implInstruction()        {}
func (ANDI) implInstruction()        {}
func (SLT) implInstruction()         {}
func (MOVE) implInstruction()        {}
func (LI) implInstruction()          {}
func (LA) implInstruction()          {}
func (MOVZ) implInstruction()        {}
func (MOVN) implInstruction()        {}
func (LW) implInstruction()          {}
func (SW) implInstruction()          {}
func (LBU) implInstruction()         {}
func (SB) implInstruction()          {}
func (J) implInstruction()           {}
func (JAL) implInstruction()         {}
func (JR) implInstruction()          {}
func (BEQ) implInstruction()         {}
func (BNE) implInstruction()         {}
func (BGTZ) implInstruction()        {}
func (BLTZ) implInstruction()        {}
func (BREAK) implInstruction()       {}
func (ReadInt) implInstruction()     {}
func (ReadChar) implInstruction()    {}
func (ReadString) implInstruction()  {}
func (PrintInt) implInstruction()    {}
func (PrintChar) implInstruction()   {}
func (PrintString) implInstruction() {}
func (LabelDef) implInstruction()    {}
func (Comment) implInstruction()     {}

// --- Function and Program ---

// StringConst is a NUL-terminated string in the data segment
type StringConst struct {
	Label Label
	Data  []byte // without the terminating NUL
}

// Sink receives the instructions of one function in program order.
type Sink interface {
	// Append adds an instruction at the end of the stream.
	Append(inst Instruction)
	// AppendLabel places a label at the current position.
	AppendLabel(name Label)
	// NewLabel returns a fresh code label.
	NewLabel() Label
	// NewStringLabel returns a fresh data label for a string constant.
	NewStringLabel() Label
	// AddString registers a string constant under a label.
	AddString(name Label, data []byte)
}

// Function represents an assembly function together with the string
// constants it introduced.
type Function struct {
	Name    string
	Code    []Instruction
	Strings []StringConst

	index      int // namespace for generated labels
	labelCount int
	strCount   int
}

// Program represents a complete assembly program. Execution starts at
// the first instruction of the first function.
type Program struct {
	Functions []Function
}

var _ Sink = (*Function)(nil)

// NewFunction creates a new assembly function. Functions of one program
// must use distinct indices so their generated labels do not collide.
func NewFunction(name string, index int) *Function {
	return &Function{
		Name:  name,
		Code:  make([]Instruction, 0),
		index: index,
	}
}

// Append adds an instruction to the function
func (f *Function) Append(inst Instruction) {
	f.Code = append(f.Code, inst)
}

// AppendLabel adds a label definition
func (f *Function) AppendLabel(name Label) {
	f.Code = append(f.Code, LabelDef{Name: name})
}

// NewLabel generates a code label unique within the program
func (f *Function) NewLabel() Label {
	l := Label(fmt.Sprintf("L%d_%d", f.index, f.labelCount))
	f.labelCount++
	return l
}

// NewStringLabel generates a data label unique within the program
func (f *Function) NewStringLabel() Label {
	l := Label(fmt.Sprintf("S%d_%d", f.index, f.strCount))
	f.strCount++
	return l
}

// AddString adds a string constant to the function's pool
func (f *Function) AddString(name Label, data []byte) {
	f.Strings = append(f.Strings, StringConst{Label: name, Data: data})
}

// Strings returns every string constant of the program in function order
func (p *Program) Strings() []StringConst {
	var all []StringConst
	for _, f := range p.Functions {
		all = append(all, f.Strings...)
	}
	return all
}

// Len returns the number of executable instructions in the program
func (p *Program) Len() int {
	n := 0
	for _, f := range p.Functions {
		for _, inst := range f.Code {
			switch inst.(type) {
			case LabelDef, Comment:
			default:
				n++
			}
		}
	}
	return n
}
