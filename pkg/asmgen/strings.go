package asmgen

import (
	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/regalloc"
)

// unescape decodes the escapes of a character or string literal body.
// \n and \t are control characters; any other escaped byte stands for
// itself.
func unescape(raw string) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			out = append(out, c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		default:
			out = append(out, raw[i])
		}
	}
	return out
}

// compareCodes is the result of a string comparison for each outcome
type compareCodes struct {
	first, second, equal int32 // first operand greater, second greater, equal
}

var stringCompare = map[ast.BinaryOp]compareCodes{
	ast.OpLt: {0, 1, 0},
	ast.OpGt: {0, 1, 0}, // operands swapped
	ast.OpLe: {0, 1, 1},
	ast.OpGe: {0, 1, 1}, // operands swapped
	ast.OpEq: {0, 0, 1},
	ast.OpNe: {1, 1, 0},
}

// lowerStringCompare walks both strings byte by byte:
//
//	Lstart: lbu c1, 0(p1); lbu c2, 0(p2); sub c1, c1, c2
//	        bgtz c1, Lfirst; bltz c1, Lsecond; beq c2, $zero, Leq
//	        addi p1, p1, 1; addi p2, p2, 1; j Lstart
//	Lfirst: li res, first; j Lend
//	Lsecond: li res, second; j Lend
//	Leq: li res, equal
//	Lend:
func (l *lowerer) lowerStringCompare(e *ast.Binary) regalloc.Value {
	codes, ok := stringCompare[e.Op]
	if !ok {
		l.internalf("%s: no string comparison for %s", e.Pos, e.Op)
	}
	left, right := e.Left, e.Right
	if e.Op == ast.OpGt || e.Op == ast.OpGe {
		left, right = right, left
	}

	a := l.lowerExpr(left)
	b := l.lowerExpr(right)
	ra := l.ra.Acquire(a)
	rb := l.ra.Acquire(b)
	p1 := l.ra.FreshTemporary()
	rp1 := l.ra.Acquire(p1)
	p2 := l.ra.FreshTemporary()
	rp2 := l.ra.Acquire(p2)
	l.emit(asm.MOVE{Rd: rp1, Rs: ra}, asm.MOVE{Rd: rp2, Rs: rb})
	l.release(a, b)

	c1 := l.ra.FreshTemporary()
	c2 := l.ra.FreshTemporary()
	res := l.ra.FreshTemporary()
	rc1 := l.ra.Acquire(c1)
	rc2 := l.ra.Acquire(c2)
	rres := l.ra.Acquire(res)
	// Re-acquire the pointers: the three acquisitions above must not
	// have moved them.
	if l.ra.Acquire(p1) != rp1 || l.ra.Acquire(p2) != rp2 {
		l.internalf("%s: string comparison pointers moved", e.Pos)
	}

	lstart := l.out.NewLabel()
	lfirst := l.out.NewLabel()
	lsecond := l.out.NewLabel()
	leq := l.out.NewLabel()
	lend := l.out.NewLabel()
	zero := l.ra.Zero()

	l.out.AppendLabel(lstart)
	l.emit(
		asm.LBU{Rt: rc1, Base: rp1, Offset: 0},
		asm.LBU{Rt: rc2, Base: rp2, Offset: 0},
		asm.SUB{Rd: rc1, Rs: rc1, Rt: rc2},
		asm.BGTZ{Rs: rc1, Target: lfirst},
		asm.BLTZ{Rs: rc1, Target: lsecond},
		asm.BEQ{Rs: rc2, Rt: zero, Target: leq},
		asm.ADDI{Rd: rp1, Rs: rp1, Imm: 1},
		asm.ADDI{Rd: rp2, Rs: rp2, Imm: 1},
		asm.J{Target: lstart},
	)
	l.out.AppendLabel(lfirst)
	l.emit(asm.LI{Rd: rres, Imm: codes.first}, asm.J{Target: lend})
	l.out.AppendLabel(lsecond)
	l.emit(asm.LI{Rd: rres, Imm: codes.second}, asm.J{Target: lend})
	l.out.AppendLabel(leq)
	l.emit(asm.LI{Rd: rres, Imm: codes.equal})
	l.out.AppendLabel(lend)

	l.release(p1, p2, c1, c2)
	return res
}

// copyString copies the NUL-terminated string held by src to the heap
// and returns a new value pointing at the copy. src is not released.
//
//	move cpy, src
//	move res, $gp
//	L: lbu ch, 0(cpy); sb ch, 0($gp); addi $gp, $gp, 1
//	   addi cpy, cpy, 1; bne ch, $zero, L
func (l *lowerer) copyString(src regalloc.Value) regalloc.Value {
	rs := l.ra.Acquire(src)
	cpy := l.ra.FreshTemporary()
	ch := l.ra.FreshTemporary()
	res := l.ra.FreshTemporary()
	rcpy := l.ra.Acquire(cpy)
	rch := l.ra.Acquire(ch)
	rres := l.ra.Acquire(res)
	gp := l.ra.HeapPtr()

	loop := l.out.NewLabel()
	l.emit(asm.MOVE{Rd: rcpy, Rs: rs}, asm.MOVE{Rd: rres, Rs: gp})
	l.out.AppendLabel(loop)
	l.emit(
		asm.LBU{Rt: rch, Base: rcpy, Offset: 0},
		asm.SB{Rt: rch, Base: gp, Offset: 0},
		asm.ADDI{Rd: gp, Rs: gp, Imm: 1},
		asm.ADDI{Rd: rcpy, Rs: rcpy, Imm: 1},
		asm.BNE{Rs: rch, Rt: l.ra.Zero(), Target: loop},
	)
	l.release(cpy, ch)
	return res
}
