// Package sema type checks VYPe16 programs and records the type of every
// expression for code generation.
package sema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"fortio.org/safecast"

	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/types"
)

// Info is the result of a successful check
type Info struct {
	types map[ast.Expr]types.Type
	funcs map[string]types.Signature
}

// TypeOf returns the type of a checked expression, or types.Invalid
func (i *Info) TypeOf(e ast.Expr) types.Type {
	return i.types[e]
}

// SignatureOf returns the signature of a user function or built-in
func (i *Info) SignatureOf(name string) (types.Signature, bool) {
	if sig, ok := builtins[name]; ok {
		return sig, true
	}
	sig, ok := i.funcs[name]
	return sig, ok
}

// IsBuiltin reports whether name is a built-in function
func (i *Info) IsBuiltin(name string) bool {
	return IsBuiltinName(name)
}

type funcEntry struct {
	sig     types.Signature
	pos     ast.Pos
	defined bool
}

type checker struct {
	info   *Info
	funcs  map[string]*funcEntry
	scopes []map[string]types.Type
	fn     *ast.FunDef
	errs   Errors
}

// Check type checks prog. On failure the error is an Errors value.
func Check(prog *ast.Program) (*Info, error) {
	c := &checker{
		info: &Info{
			types: make(map[ast.Expr]types.Type),
			funcs: make(map[string]types.Signature),
		},
		funcs: make(map[string]*funcEntry),
	}

	c.collectFunctions(prog)
	if len(c.errs) == 0 {
		for _, def := range prog.Functions() {
			c.checkFunction(def)
		}
	}
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	for name, f := range c.funcs {
		c.info.funcs[name] = f.sig
	}
	return c.info, nil
}

func (c *checker) errorf(pos ast.Pos, kind Kind, format string, args ...any) {
	c.errs = append(c.errs, &Error{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// collectFunctions records every signature so calls may precede the
// callee's definition.
func (c *checker) collectFunctions(prog *ast.Program) {
	for _, def := range prog.Definitions {
		var (
			name    string
			sig     types.Signature
			pos     ast.Pos
			defines bool
		)
		switch d := def.(type) {
		case *ast.FunDecl:
			name, sig, pos = d.Name, d.Signature(), d.Pos
		case *ast.FunDef:
			name, sig, pos, defines = d.Name, d.Signature(), d.Pos, true
		default:
			continue
		}

		if IsBuiltinName(name) {
			c.errorf(pos, KindDeclaration, "%s is a built-in function", name)
			continue
		}
		prev, seen := c.funcs[name]
		switch {
		case !seen:
			c.funcs[name] = &funcEntry{sig: sig, pos: pos, defined: defines}
		case !prev.sig.Equal(sig):
			c.errorf(pos, KindDeclaration, "conflicting types for %s: %s, previously %s", name, sig, prev.sig)
		case defines && prev.defined:
			c.errorf(pos, KindDeclaration, "redefinition of %s", name)
		case defines:
			prev.defined = true
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.funcs)) {
		if f := c.funcs[name]; !f.defined {
			c.errorf(f.pos, KindDeclaration, "function %s declared but not defined", name)
		}
	}

	main, ok := c.funcs["main"]
	switch {
	case !ok:
		c.errorf(ast.Pos{Line: 1, Col: 1}, KindDeclaration, "function main is not defined")
	case len(main.sig.Params) != 0:
		c.errorf(main.pos, KindDeclaration, "main must not take parameters")
	}
}

func (c *checker) push() { c.scopes = append(c.scopes, make(map[string]types.Type)) }
func (c *checker) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) lookup(name string) (types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return types.Invalid, false
}

// declare adds name to the innermost scope. Any visible binding of the
// same name is an error.
func (c *checker) declare(pos ast.Pos, name string, t types.Type) {
	if _, ok := c.scopes[len(c.scopes)-1][name]; ok {
		c.errorf(pos, KindDeclaration, "redeclaration of %s", name)
		return
	}
	if _, ok := c.lookup(name); ok {
		c.errorf(pos, KindDeclaration, "declaration of %s shadows an outer variable", name)
		return
	}
	c.scopes[len(c.scopes)-1][name] = t
}

func (c *checker) checkFunction(def *ast.FunDef) {
	c.fn = def
	c.scopes = nil
	c.push()
	for _, p := range def.Params {
		c.declare(def.Pos, p.Name, p.Type)
	}
	c.checkBlock(def.Body)
	c.pop()
}

func (c *checker) checkBlock(b *ast.Block) {
	c.push()
	for _, stmt := range b.Items {
		c.checkStmt(stmt)
	}
	c.pop()
}

func (c *checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		for _, name := range s.Names {
			c.declare(s.Pos, name, s.Type)
		}
	case *ast.Assign:
		vt, ok := c.lookup(s.Name)
		if !ok {
			c.errorf(s.Pos, KindDeclaration, "undeclared variable %s", s.Name)
			c.checkExpr(s.Value)
			return
		}
		if t := c.checkExpr(s.Value); t != types.Invalid && t != vt {
			c.errorf(s.Pos, KindType, "cannot assign %s to %s variable %s", t, vt, s.Name)
		}
	case *ast.If:
		c.checkCondition(s.Cond)
		c.checkBlock(s.Then)
		if s.Else != nil {
			c.checkBlock(s.Else)
		}
	case *ast.While:
		c.checkCondition(s.Cond)
		c.checkBlock(s.Body)
	case *ast.CallStmt:
		if t := c.checkCall(s.Call, true); t != types.Invalid {
			c.info.types[s.Call] = t
		}
	case *ast.Return:
		c.checkReturn(s)
	case *ast.Block:
		c.checkBlock(s)
	default:
		c.errorf(stmt.Position(), KindType, "unsupported statement %T", stmt)
	}
}

func (c *checker) checkCondition(cond ast.Expr) {
	if t := c.checkExpr(cond); t != types.Invalid && t != types.Int {
		c.errorf(cond.Position(), KindType, "condition must be int, got %s", t)
	}
}

func (c *checker) checkReturn(s *ast.Return) {
	want := c.fn.Return
	if s.Expr == nil {
		if want != types.Void {
			c.errorf(s.Pos, KindType, "%s must return a %s value", c.fn.Name, want)
		}
		return
	}
	t := c.checkExpr(s.Expr)
	switch {
	case want == types.Void:
		c.errorf(s.Pos, KindType, "void function %s returns a value", c.fn.Name)
	case t != types.Invalid && t != want:
		c.errorf(s.Pos, KindType, "%s returns %s, got %s", c.fn.Name, want, t)
	}
}

// checkExpr records and returns the type of e. It returns types.Invalid
// after reporting an error so callers do not cascade.
func (c *checker) checkExpr(e ast.Expr) types.Type {
	t := c.exprType(e)
	if t != types.Invalid {
		c.info.types[e] = t
	}
	return t
}

func (c *checker) exprType(e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		v, err := strconv.ParseInt(e.Raw, 10, 64)
		if err == nil {
			_, err = safecast.Conv[int32](v)
		}
		if err != nil {
			c.errorf(e.Pos, KindType, "integer literal %s out of range", e.Raw)
			return types.Invalid
		}
		return types.Int
	case *ast.CharLit:
		return types.Char
	case *ast.StringLit:
		return types.String
	case *ast.Ident:
		t, ok := c.lookup(e.Name)
		if !ok {
			c.errorf(e.Pos, KindDeclaration, "undeclared variable %s", e.Name)
			return types.Invalid
		}
		return t
	case *ast.Paren:
		return c.checkExpr(e.Expr)
	case *ast.Not:
		t := c.checkExpr(e.Expr)
		if t == types.Invalid {
			return types.Invalid
		}
		if t != types.Int {
			c.errorf(e.Pos, KindType, "operand of ! must be int, got %s", t)
			return types.Invalid
		}
		return types.Int
	case *ast.Cast:
		t := c.checkExpr(e.Expr)
		if t == types.Invalid {
			return types.Invalid
		}
		if !types.CanCast(t, e.To) {
			c.errorf(e.Pos, KindType, "cannot cast %s to %s", t, e.To)
			return types.Invalid
		}
		return e.To
	case *ast.Binary:
		return c.checkBinary(e)
	case *ast.Call:
		return c.checkCall(e, false)
	}
	c.errorf(e.Position(), KindType, "unsupported expression %T", e)
	return types.Invalid
}

func (c *checker) checkBinary(e *ast.Binary) types.Type {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	if lt == types.Invalid || rt == types.Invalid {
		return types.Invalid
	}
	if e.Op.IsRelational() {
		if lt != rt {
			c.errorf(e.Pos, KindType, "operands of %s differ: %s and %s", e.Op, lt, rt)
			return types.Invalid
		}
		return types.Int
	}
	if lt != types.Int || rt != types.Int {
		c.errorf(e.Pos, KindType, "operands of %s must be int, got %s and %s", e.Op, lt, rt)
		return types.Invalid
	}
	return types.Int
}

// checkCall checks a call; void results are allowed only for statements
func (c *checker) checkCall(e *ast.Call, stmt bool) types.Type {
	argTypes := make([]types.Type, len(e.Args))
	bad := false
	for i, arg := range e.Args {
		argTypes[i] = c.checkExpr(arg)
		bad = bad || argTypes[i] == types.Invalid
	}

	sig, ok := builtins[e.Name]
	if !ok {
		f, found := c.funcs[e.Name]
		if !found {
			c.errorf(e.Pos, KindDeclaration, "call of undefined function %s", e.Name)
			return types.Invalid
		}
		sig = f.sig
	}
	if bad {
		return types.Invalid
	}

	if sig.Variadic {
		if len(argTypes) == 0 {
			c.errorf(e.Pos, KindType, "%s needs at least one argument", e.Name)
			return types.Invalid
		}
	} else {
		if len(argTypes) != len(sig.Params) {
			c.errorf(e.Pos, KindType, "%s takes %d arguments, got %d", e.Name, len(sig.Params), len(argTypes))
			return types.Invalid
		}
		for i, t := range argTypes {
			if t != sig.Params[i] {
				c.errorf(e.Args[i].Position(), KindType, "argument %d of %s must be %s, got %s", i+1, e.Name, sig.Params[i], t)
				return types.Invalid
			}
		}
	}

	if sig.Return == types.Void {
		if !stmt {
			c.errorf(e.Pos, KindType, "void function %s used as a value", e.Name)
			return types.Invalid
		}
		return types.Void
	}
	return sig.Return
}
