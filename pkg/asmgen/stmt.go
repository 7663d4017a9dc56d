package asmgen

import (
	"fmt"

	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/regalloc"
	"github.com/raymyers/vypec/pkg/stacking"
	"github.com/raymyers/vypec/pkg/types"
)

// lowerer holds the state of one function being lowered
type lowerer struct {
	def    *ast.FunDef
	out    *asm.Function
	ra     *regalloc.Allocator
	oracle Oracle

	// names maps a source variable to its allocator name. Sibling blocks
	// may declare the same name; each declaration gets its own value.
	names map[string]string
	decls map[string]int
}

func (l *lowerer) emit(insts ...asm.Instruction) {
	for _, inst := range insts {
		l.out.Append(inst)
	}
}

func (l *lowerer) comment(format string, args ...any) {
	l.out.Append(asm.Comment{Text: fmt.Sprintf(format, args...)})
}

func (l *lowerer) internalf(format string, args ...any) {
	panic(&InternalError{Func: l.def.Name, Err: fmt.Errorf(format, args...)})
}

func (l *lowerer) typeOf(e ast.Expr) types.Type {
	t := l.oracle.TypeOf(e)
	if !t.IsValue() && t != types.Void {
		l.internalf("%s: no type for %T", e.Position(), e)
	}
	return t
}

// declare binds a source variable to a fresh allocator name
func (l *lowerer) declare(name string) regalloc.Value {
	n := l.decls[name]
	l.decls[name] = n + 1
	internal := name
	if n > 0 {
		internal = fmt.Sprintf("%s#%d", name, n)
	}
	l.names[name] = internal
	return l.ra.ResolveOrDeclareNamed(internal)
}

// variable returns the value of a declared source variable
func (l *lowerer) variable(name string) regalloc.Value {
	internal, ok := l.names[name]
	if !ok {
		internal = name
	}
	return l.ra.MustResolveNamed(internal)
}

func (l *lowerer) lowerFunction() {
	l.out.AppendLabel(FuncLabel(l.def.Name))
	l.comment("%s %s", l.def.Name, l.def.Signature())
	l.emit(stacking.GeneratePrologue()...)

	n := len(l.def.Params)
	for i, p := range l.def.Params {
		l.names[p.Name] = p.Name
		l.decls[p.Name] = 1
		l.ra.DeclareParameter(p.Name, stacking.ParamOffset(i, n))
	}

	l.lowerBlock(l.def.Body)

	if l.def.Return != types.Void {
		l.emit(asm.MOVE{Rd: l.ra.ReturnValue(), Rs: l.ra.Zero()})
	}
	l.emit(stacking.GenerateEpilogue()...)
}

func (l *lowerer) lowerBlock(b *ast.Block) {
	for _, stmt := range b.Items {
		l.lowerStmt(stmt)
	}
}

func (l *lowerer) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		for _, name := range s.Names {
			l.lowerVarDecl(name, s.Type)
		}
	case *ast.Assign:
		l.lowerAssign(s)
	case *ast.If:
		l.lowerIf(s)
	case *ast.While:
		l.lowerWhile(s)
	case *ast.CallStmt:
		l.ra.Release(l.lowerCall(s.Call))
	case *ast.Return:
		l.lowerReturn(s)
	case *ast.Block:
		l.lowerBlock(s)
	default:
		l.internalf("unsupported statement %T", stmt)
	}
}

// lowerVarDecl initializes a new variable to 0 or to an empty string
func (l *lowerer) lowerVarDecl(name string, t types.Type) {
	v := l.declare(name)
	r := l.ra.Acquire(v)
	if t == types.String {
		gp := l.ra.HeapPtr()
		l.emit(
			asm.MOVE{Rd: r, Rs: gp},
			asm.SB{Rt: l.ra.Zero(), Base: gp, Offset: 0},
			asm.ADDI{Rd: gp, Rs: gp, Imm: 1},
		)
		return
	}
	l.emit(asm.MOVE{Rd: r, Rs: l.ra.Zero()})
}

func (l *lowerer) lowerAssign(s *ast.Assign) {
	val := l.lowerExpr(s.Value)
	rv := l.ra.Acquire(val)
	rd := l.ra.Acquire(l.variable(s.Name))
	l.emit(asm.MOVE{Rd: rd, Rs: rv})
	l.ra.Release(val)
}

// lowerIf emits
//
//	cond; barrier; beq c, $zero, Lfalse
//	then; barrier; j Lend
//	Lfalse: else; barrier
//	Lend:
func (l *lowerer) lowerIf(s *ast.If) {
	lfalse := l.out.NewLabel()
	lend := l.out.NewLabel()

	l.comment("if")
	c := l.lowerExpr(s.Cond)
	l.ra.SpillNamed()
	rc := l.ra.Acquire(c)
	l.emit(asm.BEQ{Rs: rc, Rt: l.ra.Zero(), Target: lfalse})
	l.ra.Release(c)

	l.lowerBlock(s.Then)
	l.ra.SpillNamed()
	l.emit(asm.J{Target: lend})

	l.out.AppendLabel(lfalse)
	if s.Else != nil {
		l.comment("else")
		l.lowerBlock(s.Else)
		l.ra.SpillNamed()
	}
	l.out.AppendLabel(lend)
}

// lowerWhile emits
//
//	barrier
//	Lbegin: cond; barrier; beq c, $zero, Lend
//	body; barrier; j Lbegin
//	Lend:
func (l *lowerer) lowerWhile(s *ast.While) {
	lbegin := l.out.NewLabel()
	lend := l.out.NewLabel()

	l.comment("while")
	l.ra.SpillNamed()
	l.out.AppendLabel(lbegin)
	c := l.lowerExpr(s.Cond)
	l.ra.SpillNamed()
	rc := l.ra.Acquire(c)
	l.emit(asm.BEQ{Rs: rc, Rt: l.ra.Zero(), Target: lend})
	l.ra.Release(c)

	l.lowerBlock(s.Body)
	l.ra.SpillNamed()
	l.emit(asm.J{Target: lbegin})
	l.out.AppendLabel(lend)
}

func (l *lowerer) lowerReturn(s *ast.Return) {
	if s.Expr != nil {
		v := l.lowerExpr(s.Expr)
		r := l.ra.Acquire(v)
		l.emit(asm.MOVZ{Rd: l.ra.ReturnValue(), Rs: r, Rt: l.ra.Zero()})
		l.ra.Release(v)
	}
	l.emit(stacking.GenerateEpilogue()...)
}
