// Package sim executes VYPe assembly programs. It is the reference
// interpreter used by the compiler's tests and by vypec --run.
package sim

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"

	"github.com/raymyers/vypec/pkg/asm"
)

// Memory layout
const (
	// DataBase is the address of the first string constant. Lower
	// addresses are never mapped.
	DataBase = 0x100
	// DefaultMemory is the default size of the address space in bytes.
	DefaultMemory = 1 << 20
	// DefaultStepLimit is the default bound on executed instructions.
	DefaultStepLimit = 50_000_000
)

// Sentinel errors wrapped by Fault
var (
	ErrMemory       = errors.New("memory access out of bounds")
	ErrUnaligned    = errors.New("unaligned word access")
	ErrDivideByZero = errors.New("division by zero")
	ErrStepLimit    = errors.New("step limit exceeded")
	ErrBadJump      = errors.New("jump outside the program")
)

// Fault is a runtime error of the simulated program
type Fault struct {
	PC   int
	Inst asm.Instruction
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("sim: fault at instruction %d (%T): %v", f.PC, f.Inst, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Config configures a Machine
type Config struct {
	// Memory is the size of the address space in bytes (0 = DefaultMemory).
	Memory int
	// StepLimit bounds the number of executed instructions
	// (0 = DefaultStepLimit, negative = unlimited).
	StepLimit int64
	// Stdin and Stdout back the I/O instructions (nil = empty / discard).
	Stdin  io.Reader
	Stdout io.Writer
}

// Machine is the state of a loaded program
type Machine struct {
	Regs   [asm.NumRegs]int32
	HI, LO int32
	Mem    []byte
	PC     int
	Steps  int64

	code      []asm.Instruction
	labels    map[asm.Label]int
	data      map[asm.Label]int32
	stepLimit int64
	in        *bufio.Reader
	out       *bufio.Writer
	halted    bool
}

// Load places prog in a fresh machine: string constants from DataBase,
// the heap pointer after them, the stack at the top of memory, and PC on
// the first instruction.
func Load(prog *asm.Program, cfg Config) (*Machine, error) {
	size := cfg.Memory
	if size == 0 {
		size = DefaultMemory
	}
	limit := cfg.StepLimit
	if limit == 0 {
		limit = DefaultStepLimit
	}
	in := cfg.Stdin
	if in == nil {
		in = eofReader{}
	}
	out := cfg.Stdout
	if out == nil {
		out = io.Discard
	}

	m := &Machine{
		Mem:       make([]byte, size),
		labels:    make(map[asm.Label]int),
		data:      make(map[asm.Label]int32),
		stepLimit: limit,
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
	}

	addr := DataBase
	for _, s := range prog.Strings() {
		if addr+len(s.Data)+1 > size {
			return nil, fmt.Errorf("sim: string constants need more than %d bytes", size)
		}
		if _, dup := m.data[s.Label]; dup {
			return nil, fmt.Errorf("sim: duplicate data label %s", s.Label)
		}
		a, err := safecast.Conv[int32](addr)
		if err != nil {
			return nil, fmt.Errorf("sim: data address: %w", err)
		}
		m.data[s.Label] = a
		copy(m.Mem[addr:], s.Data)
		addr += len(s.Data) + 1
	}
	heap := (addr + 3) &^ 3

	for _, f := range prog.Functions {
		for _, inst := range f.Code {
			switch i := inst.(type) {
			case asm.LabelDef:
				if _, dup := m.labels[i.Name]; dup {
					return nil, fmt.Errorf("sim: duplicate label %s", i.Name)
				}
				m.labels[i.Name] = len(m.code)
			case asm.Comment:
			default:
				m.code = append(m.code, inst)
			}
		}
	}
	if err := m.checkLabels(); err != nil {
		return nil, err
	}

	top, err := safecast.Conv[int32](size)
	if err != nil {
		return nil, fmt.Errorf("sim: memory size: %w", err)
	}
	m.Regs[asm.GP] = int32(heap)
	m.Regs[asm.SP] = top
	m.Regs[asm.FP] = top
	return m, nil
}

// checkLabels verifies that every referenced label exists
func (m *Machine) checkLabels() error {
	for _, inst := range m.code {
		var target asm.Label
		code := true
		switch i := inst.(type) {
		case asm.J:
			target = i.Target
		case asm.JAL:
			target = i.Target
		case asm.BEQ:
			target = i.Target
		case asm.BNE:
			target = i.Target
		case asm.BGTZ:
			target = i.Target
		case asm.BLTZ:
			target = i.Target
		case asm.LA:
			target, code = i.Label, false
		default:
			continue
		}
		if code {
			if _, ok := m.labels[target]; !ok {
				return fmt.Errorf("sim: undefined label %s", target)
			}
		} else if _, ok := m.data[target]; !ok {
			return fmt.Errorf("sim: undefined data label %s", target)
		}
	}
	return nil
}

// Run executes until BREAK or a fault, then flushes the output
func (m *Machine) Run() error {
	var err error
	for !m.halted && err == nil {
		err = m.Step()
	}
	if ferr := m.out.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("sim: output: %w", ferr)
	}
	return err
}

// Halted reports whether the machine executed BREAK
func (m *Machine) Halted() bool {
	return m.halted
}

// Step executes one instruction
func (m *Machine) Step() error {
	if m.halted {
		return nil
	}
	if m.PC < 0 || m.PC >= len(m.code) {
		return &Fault{PC: m.PC, Err: ErrBadJump}
	}
	if m.stepLimit > 0 && m.Steps >= m.stepLimit {
		return &Fault{PC: m.PC, Inst: m.code[m.PC], Err: ErrStepLimit}
	}
	inst := m.code[m.PC]
	m.Steps++
	next, err := m.exec(inst)
	if err != nil {
		return &Fault{PC: m.PC, Inst: inst, Err: err}
	}
	m.PC = next
	m.Regs[asm.Zero] = 0
	return nil
}

func (m *Machine) set(r asm.Reg, v int32) {
	if r != asm.Zero {
		m.Regs[r] = v
	}
}

func (m *Machine) exec(inst asm.Instruction) (int, error) {
	r := &m.Regs
	next := m.PC + 1
	switch i := inst.(type) {
	case asm.ADD:
		m.set(i.Rd, r[i.Rs]+r[i.Rt])
	case asm.SUB:
		m.set(i.Rd, r[i.Rs]-r[i.Rt])
	case asm.ADDI:
		m.set(i.Rd, r[i.Rs]+i.Imm)
	case asm.MUL:
		m.set(i.Rd, r[i.Rs]*r[i.Rt])
	case asm.DIV:
		if r[i.Rt] == 0 {
			return 0, ErrDivideByZero
		}
		if r[i.Rs] == -1<<31 && r[i.Rt] == -1 {
			m.LO, m.HI = r[i.Rs], 0
			break
		}
		m.LO, m.HI = r[i.Rs]/r[i.Rt], r[i.Rs]%r[i.Rt]
	case asm.MFHI:
		m.set(i.Rd, m.HI)
	case asm.MFLO:
		m.set(i.Rd, m.LO)
	case asm.ANDI:
		m.set(i.Rd, r[i.Rs]&i.Imm)
	case asm.SLT:
		m.set(i.Rd, b2i(r[i.Rs] < r[i.Rt]))
	case asm.MOVE:
		m.set(i.Rd, r[i.Rs])
	case asm.LI:
		m.set(i.Rd, i.Imm)
	case asm.LA:
		m.set(i.Rd, m.data[i.Label])
	case asm.MOVZ:
		if r[i.Rt] == 0 {
			m.set(i.Rd, r[i.Rs])
		}
	case asm.MOVN:
		if r[i.Rt] != 0 {
			m.set(i.Rd, r[i.Rs])
		}
	case asm.LW:
		v, err := m.loadWord(r[i.Base] + i.Offset)
		if err != nil {
			return 0, err
		}
		m.set(i.Rt, v)
	case asm.SW:
		if err := m.storeWord(r[i.Base]+i.Offset, r[i.Rt]); err != nil {
			return 0, err
		}
	case asm.LBU:
		a, err := m.addr(r[i.Base]+i.Offset, 1)
		if err != nil {
			return 0, err
		}
		m.set(i.Rt, int32(m.Mem[a]))
	case asm.SB:
		a, err := m.addr(r[i.Base]+i.Offset, 1)
		if err != nil {
			return 0, err
		}
		m.Mem[a] = byte(r[i.Rt])
	case asm.J:
		next = m.labels[i.Target]
	case asm.JAL:
		ret, err := safecast.Conv[int32](next)
		if err != nil {
			return 0, err
		}
		r[asm.RA] = ret
		next = m.labels[i.Target]
	case asm.JR:
		next = int(r[i.Rs])
	case asm.BEQ:
		if r[i.Rs] == r[i.Rt] {
			next = m.labels[i.Target]
		}
	case asm.BNE:
		if r[i.Rs] != r[i.Rt] {
			next = m.labels[i.Target]
		}
	case asm.BGTZ:
		if r[i.Rs] > 0 {
			next = m.labels[i.Target]
		}
	case asm.BLTZ:
		if r[i.Rs] < 0 {
			next = m.labels[i.Target]
		}
	case asm.BREAK:
		m.halted = true
	case asm.ReadInt:
		m.set(i.Rd, m.readInt())
	case asm.ReadChar:
		m.set(i.Rd, m.readChar())
	case asm.ReadString:
		n, err := m.readString(r[i.Addr])
		if err != nil {
			return 0, err
		}
		m.set(i.Len, n)
	case asm.PrintInt:
		m.printInt(r[i.Rs])
	case asm.PrintChar:
		m.out.WriteByte(byte(r[i.Rs]))
	case asm.PrintString:
		if err := m.printString(r[i.Rs]); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unsupported instruction %T", inst)
	}
	return next, nil
}

// addr validates an access of size bytes and returns its index in Mem
func (m *Machine) addr(a int32, size int) (int, error) {
	i, err := safecast.Conv[int](a)
	if err != nil || i < DataBase || i+size > len(m.Mem) {
		return 0, fmt.Errorf("%w: address %#x", ErrMemory, uint32(a))
	}
	return i, nil
}

func (m *Machine) loadWord(a int32) (int32, error) {
	if a%asm.WordSize != 0 {
		return 0, fmt.Errorf("%w: address %#x", ErrUnaligned, uint32(a))
	}
	i, err := m.addr(a, asm.WordSize)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.Mem[i:])), nil
}

func (m *Machine) storeWord(a, v int32) error {
	if a%asm.WordSize != 0 {
		return fmt.Errorf("%w: address %#x", ErrUnaligned, uint32(a))
	}
	i, err := m.addr(a, asm.WordSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.Mem[i:], uint32(v))
	return nil
}

// LoadWord reads a word of memory, for inspection by tests and tools
func (m *Machine) LoadWord(a int32) (int32, error) {
	return m.loadWord(a)
}

// CString returns the NUL-terminated string at address a
func (m *Machine) CString(a int32) (string, error) {
	start, err := m.addr(a, 1)
	if err != nil {
		return "", err
	}
	for i := start; i < len(m.Mem); i++ {
		if m.Mem[i] == 0 {
			return string(m.Mem[start:i]), nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at %#x", ErrMemory, uint32(a))
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
