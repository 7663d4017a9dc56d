package asmgen

import (
	"strconv"

	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/regalloc"
	"github.com/raymyers/vypec/pkg/types"
)

// lowerExpr emits the code of e and returns the value holding its
// result. Temporaries consumed by e are released; the caller owns the
// returned value.
func (l *lowerer) lowerExpr(e ast.Expr) regalloc.Value {
	switch e := e.(type) {
	case *ast.IntLit:
		n, err := strconv.ParseInt(e.Raw, 10, 32)
		if err != nil {
			l.internalf("%s: integer literal %s: %v", e.Pos, e.Raw, err)
		}
		return l.loadImmediate(int32(n))
	case *ast.CharLit:
		b := unescape(e.Raw)
		if len(b) != 1 {
			l.internalf("%s: character literal '%s' is %d bytes", e.Pos, e.Raw, len(b))
		}
		return l.loadImmediate(int32(b[0]))
	case *ast.StringLit:
		label := l.out.NewStringLabel()
		l.out.AddString(label, unescape(e.Raw))
		v := l.ra.FreshTemporary()
		l.emit(asm.LA{Rd: l.ra.Acquire(v), Label: label})
		return v
	case *ast.Ident:
		return l.variable(e.Name)
	case *ast.Paren:
		return l.lowerExpr(e.Expr)
	case *ast.Not:
		return l.lowerNot(e)
	case *ast.Cast:
		return l.lowerCast(e)
	case *ast.Binary:
		return l.lowerBinary(e)
	case *ast.Call:
		return l.lowerCall(e)
	}
	l.internalf("unsupported expression %T", e)
	return regalloc.Value{}
}

func (l *lowerer) loadImmediate(n int32) regalloc.Value {
	v := l.ra.FreshTemporary()
	l.emit(asm.LI{Rd: l.ra.Acquire(v), Imm: n})
	return v
}

// binaryOperands lowers both operands, then acquires them and a fresh
// result register, in that order.
func (l *lowerer) binaryOperands(e *ast.Binary) (a, b, d regalloc.Value, ra, rb, rd asm.Reg) {
	a = l.lowerExpr(e.Left)
	b = l.lowerExpr(e.Right)
	ra = l.ra.Acquire(a)
	rb = l.ra.Acquire(b)
	d = l.ra.FreshTemporary()
	rd = l.ra.Acquire(d)
	return
}

func (l *lowerer) release(vals ...regalloc.Value) {
	for _, v := range vals {
		l.ra.Release(v)
	}
}

func (l *lowerer) lowerBinary(e *ast.Binary) regalloc.Value {
	if e.Op.IsRelational() && l.typeOf(e.Left) == types.String {
		return l.lowerStringCompare(e)
	}

	a, b, d, ra, rb, rd := l.binaryOperands(e)
	switch e.Op {
	case ast.OpAdd:
		l.emit(asm.ADD{Rd: rd, Rs: ra, Rt: rb})
	case ast.OpSub:
		l.emit(asm.SUB{Rd: rd, Rs: ra, Rt: rb})
	case ast.OpMul:
		l.emit(asm.MUL{Rd: rd, Rs: ra, Rt: rb})
	case ast.OpDiv:
		l.emit(asm.DIV{Rs: ra, Rt: rb}, asm.MFLO{Rd: rd})
	case ast.OpMod:
		l.emit(asm.DIV{Rs: ra, Rt: rb}, asm.MFHI{Rd: rd})
	case ast.OpLt:
		l.emit(asm.SLT{Rd: rd, Rs: ra, Rt: rb})
	case ast.OpGt:
		l.emit(asm.SLT{Rd: rd, Rs: rb, Rt: ra})
	case ast.OpLe:
		l.lessOrEqual(rd, ra, rb)
	case ast.OpGe:
		l.lessOrEqual(rd, rb, ra)
	case ast.OpEq:
		l.materialize(rd, asm.BEQ{Rs: ra, Rt: rb})
	case ast.OpNe:
		l.materialize(rd, asm.BNE{Rs: ra, Rt: rb})
	case ast.OpAnd:
		l.logicalAnd(rd, ra, rb)
	case ast.OpOr:
		l.logicalOr(rd, ra, rb)
	default:
		l.internalf("%s: unsupported operator %s", e.Pos, e.Op)
	}
	l.release(a, b)
	return d
}

// lessOrEqual sets rd = x <= y:
//
//	beq x, y, Leq
//	slt rd, x, y
//	j Lend
//	Leq: li rd, 1
//	Lend:
func (l *lowerer) lessOrEqual(rd, x, y asm.Reg) {
	leq := l.out.NewLabel()
	lend := l.out.NewLabel()
	l.emit(
		asm.BEQ{Rs: x, Rt: y, Target: leq},
		asm.SLT{Rd: rd, Rs: x, Rt: y},
		asm.J{Target: lend},
	)
	l.out.AppendLabel(leq)
	l.emit(asm.LI{Rd: rd, Imm: 1})
	l.out.AppendLabel(lend)
}

// materialize sets rd to 1 if branch is taken, else 0. branch must be a
// BEQ or BNE without a target.
func (l *lowerer) materialize(rd asm.Reg, branch asm.Instruction) {
	ltrue := l.out.NewLabel()
	lend := l.out.NewLabel()
	switch b := branch.(type) {
	case asm.BEQ:
		b.Target = ltrue
		branch = b
	case asm.BNE:
		b.Target = ltrue
		branch = b
	default:
		l.internalf("materialize of %T", branch)
	}
	l.emit(
		branch,
		asm.LI{Rd: rd, Imm: 0},
		asm.J{Target: lend},
	)
	l.out.AppendLabel(ltrue)
	l.emit(asm.LI{Rd: rd, Imm: 1})
	l.out.AppendLabel(lend)
}

// logicalAnd sets rd = x != 0 && y != 0. Both operands are already
// evaluated; there is no short circuit.
func (l *lowerer) logicalAnd(rd, x, y asm.Reg) {
	lfalse := l.out.NewLabel()
	lend := l.out.NewLabel()
	zero := l.ra.Zero()
	l.emit(
		asm.BEQ{Rs: zero, Rt: x, Target: lfalse},
		asm.BEQ{Rs: zero, Rt: y, Target: lfalse},
		asm.LI{Rd: rd, Imm: 1},
		asm.J{Target: lend},
	)
	l.out.AppendLabel(lfalse)
	l.emit(asm.LI{Rd: rd, Imm: 0})
	l.out.AppendLabel(lend)
}

// logicalOr sets rd = x != 0 || y != 0, both operands already evaluated
func (l *lowerer) logicalOr(rd, x, y asm.Reg) {
	ltrue := l.out.NewLabel()
	lend := l.out.NewLabel()
	zero := l.ra.Zero()
	l.emit(
		asm.BNE{Rs: zero, Rt: x, Target: ltrue},
		asm.BNE{Rs: zero, Rt: y, Target: ltrue},
		asm.LI{Rd: rd, Imm: 0},
		asm.J{Target: lend},
	)
	l.out.AppendLabel(ltrue)
	l.emit(asm.LI{Rd: rd, Imm: 1})
	l.out.AppendLabel(lend)
}

func (l *lowerer) lowerNot(e *ast.Not) regalloc.Value {
	a := l.lowerExpr(e.Expr)
	ra := l.ra.Acquire(a)
	d := l.ra.FreshTemporary()
	rd := l.ra.Acquire(d)
	l.materialize(rd, asm.BEQ{Rs: l.ra.Zero(), Rt: ra})
	l.ra.Release(a)
	return d
}

func (l *lowerer) lowerCast(e *ast.Cast) regalloc.Value {
	from := l.typeOf(e.Expr)
	a := l.lowerExpr(e.Expr)
	ra := l.ra.Acquire(a)
	d := l.ra.FreshTemporary()
	rd := l.ra.Acquire(d)

	switch {
	case from == types.Int && e.To == types.Char:
		l.emit(asm.ANDI{Rd: rd, Rs: ra, Imm: 0xff})
	case from == types.Char && e.To == types.String:
		gp := l.ra.HeapPtr()
		l.emit(
			asm.MOVE{Rd: rd, Rs: gp},
			asm.SB{Rt: ra, Base: gp, Offset: 0},
			asm.SB{Rt: l.ra.Zero(), Base: gp, Offset: 1},
			asm.ADDI{Rd: gp, Rs: gp, Imm: 2},
		)
	case from == e.To, from == types.Char && e.To == types.Int:
		l.emit(asm.MOVE{Rd: rd, Rs: ra})
	default:
		panic(&SemanticError{Func: l.def.Name, Msg: e.Pos.String() + ": cannot cast " + from.String() + " to " + e.To.String()})
	}
	l.ra.Release(a)
	return d
}
