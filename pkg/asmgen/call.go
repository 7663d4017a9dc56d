package asmgen

import (
	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/regalloc"
	"github.com/raymyers/vypec/pkg/sema"
	"github.com/raymyers/vypec/pkg/stacking"
	"github.com/raymyers/vypec/pkg/types"
)

// lowerCall lowers a built-in or user function call and returns the
// value holding its result. Calls of void functions return a value with
// no content, which the caller releases.
func (l *lowerer) lowerCall(e *ast.Call) regalloc.Value {
	if l.oracle.IsBuiltin(e.Name) {
		return l.lowerBuiltin(e)
	}
	if _, ok := l.oracle.SignatureOf(e.Name); !ok {
		l.internalf("%s: call of unknown function %s", e.Pos, e.Name)
	}

	// Arguments are lowered before the save area is pushed; spill code
	// must run with SP at the top of this frame.
	args := make([]regalloc.Value, len(e.Args))
	for i, arg := range e.Args {
		args[i] = l.lowerExpr(arg)
	}

	l.comment("call %s", e.Name)
	saved := l.ra.SaveCallerState()

	n := len(args)
	sp := l.ra.StackPtr()
	if n > 0 {
		l.emit(asm.ADDI{Rd: sp, Rs: sp, Imm: -stacking.ArgAreaSize(n)})
		for i, arg := range args {
			r := l.ra.AcquireNoSpill(arg)
			l.emit(asm.SW{Rt: r, Base: sp, Offset: stacking.ArgSlotOffset(i, n)})
			l.ra.Release(arg)
		}
	}
	l.emit(asm.JAL{Target: FuncLabel(e.Name)})
	if n > 0 {
		l.emit(asm.ADDI{Rd: sp, Rs: sp, Imm: stacking.ArgAreaSize(n)})
	}
	l.ra.RestoreCallerState(saved)

	d := l.ra.FreshTemporary()
	l.emit(asm.MOVE{Rd: l.ra.Acquire(d), Rs: l.ra.ReturnValue()})
	return d
}

func (l *lowerer) lowerBuiltin(e *ast.Call) regalloc.Value {
	switch e.Name {
	case sema.ReadInt:
		d := l.ra.FreshTemporary()
		l.emit(asm.ReadInt{Rd: l.ra.Acquire(d)})
		return d
	case sema.ReadChar:
		d := l.ra.FreshTemporary()
		l.emit(asm.ReadChar{Rd: l.ra.Acquire(d)})
		return d
	case sema.ReadString:
		return l.lowerReadString()
	case sema.Print:
		return l.lowerPrint(e)
	case sema.GetAt:
		return l.lowerGetAt(e)
	case sema.SetAt:
		return l.lowerSetAt(e)
	case sema.Strcat:
		return l.lowerStrcat(e)
	}
	l.internalf("%s: unknown built-in %s", e.Pos, e.Name)
	return regalloc.Value{}
}

// lowerReadString reads a line onto the heap:
//
//	read_string $gp, len
//	move d, $gp
//	add $gp, $gp, len
//	addi $gp, $gp, 1
func (l *lowerer) lowerReadString() regalloc.Value {
	n := l.ra.FreshTemporary()
	d := l.ra.FreshTemporary()
	rn := l.ra.Acquire(n)
	rd := l.ra.Acquire(d)
	gp := l.ra.HeapPtr()
	l.emit(
		asm.ReadString{Addr: gp, Len: rn},
		asm.MOVE{Rd: rd, Rs: gp},
		asm.ADD{Rd: gp, Rs: gp, Rt: rn},
		asm.ADDI{Rd: gp, Rs: gp, Imm: 1},
	)
	l.ra.Release(n)
	return d
}

// lowerPrint evaluates every argument, then prints them in order
func (l *lowerer) lowerPrint(e *ast.Call) regalloc.Value {
	args := make([]regalloc.Value, len(e.Args))
	for i, arg := range e.Args {
		args[i] = l.lowerExpr(arg)
	}
	for i, arg := range args {
		r := l.ra.Acquire(arg)
		switch t := l.typeOf(e.Args[i]); t {
		case types.Int:
			l.emit(asm.PrintInt{Rs: r})
		case types.Char:
			l.emit(asm.PrintChar{Rs: r})
		case types.String:
			l.emit(asm.PrintString{Rs: r})
		default:
			l.internalf("%s: cannot print %s", e.Args[i].Position(), t)
		}
		l.ra.Release(arg)
	}
	return l.ra.FreshTemporary()
}

func (l *lowerer) lowerGetAt(e *ast.Call) regalloc.Value {
	s := l.lowerExpr(e.Args[0])
	i := l.lowerExpr(e.Args[1])
	rs := l.ra.Acquire(s)
	ri := l.ra.Acquire(i)
	d := l.ra.FreshTemporary()
	rd := l.ra.Acquire(d)
	l.emit(
		asm.ADD{Rd: rd, Rs: rs, Rt: ri},
		asm.LBU{Rt: rd, Base: rd, Offset: 0},
	)
	l.release(s, i)
	return d
}

// lowerSetAt returns a copy of the string with one byte replaced; the
// argument string is left untouched.
func (l *lowerer) lowerSetAt(e *ast.Call) regalloc.Value {
	s := l.lowerExpr(e.Args[0])
	i := l.lowerExpr(e.Args[1])
	c := l.lowerExpr(e.Args[2])

	res := l.copyString(s)
	l.ra.Release(s)

	rres := l.ra.Acquire(res)
	ri := l.ra.Acquire(i)
	rc := l.ra.Acquire(c)
	p := l.ra.FreshTemporary()
	rp := l.ra.Acquire(p)
	l.emit(
		asm.ADD{Rd: rp, Rs: rres, Rt: ri},
		asm.SB{Rt: rc, Base: rp, Offset: 0},
	)
	l.release(i, c, p)
	return res
}

// lowerStrcat copies both operands back to back onto the heap, dropping
// the first terminator.
func (l *lowerer) lowerStrcat(e *ast.Call) regalloc.Value {
	a := l.lowerExpr(e.Args[0])
	b := l.lowerExpr(e.Args[1])

	res := l.copyString(a)
	l.ra.Release(a)
	gp := l.ra.HeapPtr()
	l.emit(asm.ADDI{Rd: gp, Rs: gp, Imm: -1})
	tail := l.copyString(b)
	l.release(tail, b)
	return res
}
