package regalloc

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by InternalError. They all indicate a bug in
// the code driving the allocator, never a problem with the user program.
var (
	ErrUnresolvedValue   = errors.New("unresolved value")
	ErrUndeclaredName    = errors.New("undeclared variable")
	ErrRegisterNotQueued = errors.New("register not in allocation queue")
	ErrSpillNotRegister  = errors.New("spill of a value not in a register")
	ErrNoSpillUnknown    = errors.New("no-spill acquire of a value never placed")
)

// InternalError reports a violated allocator invariant. The allocator
// panics with it; the lowering pass recovers it at the function boundary.
type InternalError struct {
	Err   error
	Value Value
	Msg   string
}

func newInternalError(err error, v Value, format string, args ...any) *InternalError {
	return &InternalError{Err: err, Value: v, Msg: fmt.Sprintf(format, args...)}
}

func (e *InternalError) Error() string {
	if e.Value.IsZero() {
		return fmt.Sprintf("regalloc: %v: %s", e.Err, e.Msg)
	}
	return fmt.Sprintf("regalloc: %v %s: %s", e.Err, e.Value, e.Msg)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
