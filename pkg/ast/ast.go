// Package ast defines the abstract syntax tree of VYPe16 programs.
//
// Nodes are pointers so later passes can key side tables (types,
// signatures) by node identity.
package ast

import (
	"fmt"

	"github.com/raymyers/vypec/pkg/types"
)

// Pos is a source position
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, col %d", p.Line, p.Col)
}

// Position returns p; embedding Pos gives every node a Position method.
func (p Pos) Position() Pos { return p }

// Node is the base interface for all AST nodes
type Node interface {
	Position() Pos
	implNode()
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	implExpr()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implStmt()
}

// Definition is the interface for top-level definitions
type Definition interface {
	Node
	implDefinition()
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpOr BinaryOp = iota // ||
	OpAnd                // &&
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op BinaryOp) String() string {
	names := []string{"||", "&&", "==", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "%"}
	if op >= 0 && int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IsRelational reports whether op compares its operands
func (op BinaryOp) IsRelational() bool {
	return op >= OpEq && op <= OpGe
}

// IsLogical reports whether op is && or ||
func (op BinaryOp) IsLogical() bool {
	return op == OpOr || op == OpAnd
}

// --- Expressions ---

// IntLit is a decimal integer literal; Raw holds the digits
type IntLit struct {
	Pos
	Raw string
}

// CharLit is a character literal; Raw holds the text between the quotes
// with escapes intact
type CharLit struct {
	Pos
	Raw string
}

// StringLit is a string literal; Raw holds the text between the quotes
// with escapes intact
type StringLit struct {
	Pos
	Raw string
}

// Ident is a variable reference
type Ident struct {
	Pos
	Name string
}

// Binary represents a binary expression
type Binary struct {
	Pos
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Not represents logical negation
type Not struct {
	Pos
	Expr Expr
}

// Cast represents an explicit conversion: (To) Expr
type Cast struct {
	Pos
	To   types.Type
	Expr Expr
}

// Call represents a call of a user function or a built-in
type Call struct {
	Pos
	Name string
	Args []Expr
}

// Paren represents a parenthesized expression
type Paren struct {
	Pos
	Expr Expr
}

// --- Statements ---

// VarDecl declares one or more variables of the same type
type VarDecl struct {
	Pos
	Type  types.Type
	Names []string
}

// Assign stores a value into a variable
type Assign struct {
	Pos
	Name  string
	Value Expr
}

// If is a conditional statement; Else is nil when absent
type If struct {
	Pos
	Cond Expr
	Then *Block
	Else *Block
}

// While is a pre-tested loop
type While struct {
	Pos
	Cond Expr
	Body *Block
}

// CallStmt is a call evaluated for its side effects
type CallStmt struct {
	Pos
	Call *Call
}

// Return represents a return statement
type Return struct {
	Pos
	Expr Expr // nil for bare return
}

// Block represents a braced statement list
type Block struct {
	Pos
	Items []Stmt
}

// --- Definitions ---

// Param is a named function parameter
type Param struct {
	Name string
	Type types.Type
}

// FunDecl is a function declaration without a body
type FunDecl struct {
	Pos
	Return types.Type
	Name   string
	Params []types.Type
}

// FunDef is a function definition
type FunDef struct {
	Pos
	Return types.Type
	Name   string
	Params []Param
	Body   *Block
}

// Program is a complete translation unit
type Program struct {
	Definitions []Definition
}

// Signature returns the declared signature
func (d *FunDecl) Signature() types.Signature {
	return types.Signature{Return: d.Return, Params: d.Params}
}

// Signature returns the signature implied by the definition
func (f *FunDef) Signature() types.Signature {
	params := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return types.Signature{Return: f.Return, Params: params}
}

// Functions returns the function definitions in source order
func (p *Program) Functions() []*FunDef {
	var defs []*FunDef
	for _, d := range p.Definitions {
		if f, ok := d.(*FunDef); ok {
			defs = append(defs, f)
		}
	}
	return defs
}

// Marker methods for interface implementation
func (*IntLit) implNode() {}
func (*IntLit) implExpr() {}

func (*CharLit) implNode() {}
func (*CharLit) implExpr() {}

func (*StringLit) implNode() {}
func (*StringLit) implExpr() {}

func (*Ident) implNode() {}
func (*Ident) implExpr() {}

func (*Binary) implNode() {}
func (*Binary) implExpr() {}

func (*Not) implNode() {}
func (*Not) implExpr() {}

func (*Cast) implNode() {}
func (*Cast) implExpr() {}

func (*Call) implNode() {}
func (*Call) implExpr() {}

func (*Paren) implNode() {}
func (*Paren) implExpr() {}

func (*VarDecl) implNode() {}
func (*VarDecl) implStmt() {}

func (*Assign) implNode() {}
func (*Assign) implStmt() {}

func (*If) implNode() {}
func (*If) implStmt() {}

func (*While) implNode() {}
func (*While) implStmt() {}

func (*CallStmt) implNode() {}
func (*CallStmt) implStmt() {}

func (*Return) implNode() {}
func (*Return) implStmt() {}

func (*Block) implNode() {}
func (*Block) implStmt() {}

func (*FunDecl) implNode()       {}
func (*FunDecl) implDefinition() {}

func (*FunDef) implNode()       {}
func (*FunDef) implDefinition() {}
