package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs the AST as VYPe16 source
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintProgram prints a complete program
func (p *Printer) PrintProgram(prog *Program) {
	for _, def := range prog.Definitions {
		p.printDefinition(def)
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printDefinition(def Definition) {
	switch d := def.(type) {
	case *FunDecl:
		fmt.Fprintf(p.w, "%s %s(", d.Return, d.Name)
		if len(d.Params) == 0 {
			fmt.Fprint(p.w, "void")
		}
		for i, t := range d.Params {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprint(p.w, t)
		}
		fmt.Fprintln(p.w, ");")
	case *FunDef:
		fmt.Fprintf(p.w, "%s %s(", d.Return, d.Name)
		if len(d.Params) == 0 {
			fmt.Fprint(p.w, "void")
		}
		for i, param := range d.Params {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprintf(p.w, "%s %s", param.Type, param.Name)
		}
		fmt.Fprintln(p.w, ")")
		p.printBlock(d.Body)
	default:
		fmt.Fprintf(p.w, "/* unknown definition %T */\n", def)
	}
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, stmt := range b.Items {
		p.printStmt(stmt)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printStmt(stmt Stmt) {
	if b, ok := stmt.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.writeIndent()
	switch s := stmt.(type) {
	case *VarDecl:
		fmt.Fprintf(p.w, "%s %s;\n", s.Type, strings.Join(s.Names, ", "))
	case *Assign:
		fmt.Fprintf(p.w, "%s = ", s.Name)
		p.printExpr(s.Value)
		fmt.Fprintln(p.w, ";")
	case *If:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBlock(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printBlock(s.Else)
		}
	case *While:
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBlock(s.Body)
	case *CallStmt:
		p.printExpr(s.Call)
		fmt.Fprintln(p.w, ";")
	case *Return:
		if s.Expr == nil {
			fmt.Fprintln(p.w, "return;")
			return
		}
		fmt.Fprint(p.w, "return ")
		p.printExpr(s.Expr)
		fmt.Fprintln(p.w, ";")
	default:
		fmt.Fprintf(p.w, "/* unknown statement %T */\n", stmt)
	}
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case *IntLit:
		fmt.Fprint(p.w, e.Raw)
	case *CharLit:
		fmt.Fprintf(p.w, "'%s'", e.Raw)
	case *StringLit:
		fmt.Fprintf(p.w, "\"%s\"", e.Raw)
	case *Ident:
		fmt.Fprint(p.w, e.Name)
	case *Binary:
		p.printExpr(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op)
		p.printExpr(e.Right)
	case *Not:
		fmt.Fprint(p.w, "!")
		p.printExpr(e.Expr)
	case *Cast:
		fmt.Fprintf(p.w, "(%s)", e.To)
		p.printExpr(e.Expr)
	case *Call:
		fmt.Fprintf(p.w, "%s(", e.Name)
		for i, arg := range e.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.printExpr(arg)
		}
		fmt.Fprint(p.w, ")")
	case *Paren:
		fmt.Fprint(p.w, "(")
		p.printExpr(e.Expr)
		fmt.Fprint(p.w, ")")
	default:
		fmt.Fprintf(p.w, "/* unknown expression %T */", expr)
	}
}
