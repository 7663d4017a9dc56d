package sim

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// readLine returns the next input line without its line terminator
func (m *Machine) readLine() (string, bool) {
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// readInt reads a line holding a decimal integer; anything else reads as 0
func (m *Machine) readInt() int32 {
	line, ok := m.readLine()
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

// readChar reads one byte; 0 at end of input
func (m *Machine) readChar() int32 {
	b, err := m.in.ReadByte()
	if err != nil {
		return 0
	}
	return int32(b)
}

// readString stores the next line and a terminating NUL at address a and
// returns the line length.
func (m *Machine) readString(a int32) (int32, error) {
	line, _ := m.readLine()
	start, err := m.addr(a, len(line)+1)
	if err != nil {
		return 0, err
	}
	copy(m.Mem[start:], line)
	m.Mem[start+len(line)] = 0
	return safecast.Conv[int32](len(line))
}

func (m *Machine) printInt(v int32) {
	m.out.WriteString(strconv.FormatInt(int64(v), 10))
}

func (m *Machine) printString(a int32) error {
	s, err := m.CString(a)
	if err != nil {
		return err
	}
	m.out.WriteString(s)
	return nil
}

// Flush writes buffered output, for callers driving Step directly
func (m *Machine) Flush() error {
	return m.out.Flush()
}
