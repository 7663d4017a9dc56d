// Package parser implements a recursive descent parser for VYPe16
package parser

import (
	"fmt"
	"strings"

	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/lexer"
	"github.com/raymyers/vypec/pkg/types"
)

// Parser parses VYPe16 source code into an AST
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// Errors is the list of syntax errors of a failed parse
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "\n")
}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse lexes and parses a whole source file. Lexical errors are
// reported as *lexer.Error, syntax errors as Errors.
func Parse(input string) (*ast.Program, error) {
	if _, err := lexer.Tokenize(input); err != nil {
		return nil, err
	}
	p := New(lexer.New(input))
	prog := p.ParseProgram()
	if len(p.errors) > 0 {
		return nil, Errors(p.errors)
	}
	return prog, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s",
		p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type))
	return false
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.curToken.Line, Col: p.curToken.Column}
}

// ParseProgram parses definitions until EOF or the first syntax error
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curTokenIs(lexer.TokenEOF) {
		def := p.ParseDefinition()
		if def == nil || p.failed() {
			break
		}
		prog.Definitions = append(prog.Definitions, def)
	}
	return prog
}

// ParseDefinition parses a function declaration or definition
func (p *Parser) ParseDefinition() ast.Definition {
	pos := p.pos()
	ret, ok := p.typeOf(p.curToken.Type, true)
	if !ok {
		p.addError(fmt.Sprintf("expected type specifier, got %s", p.curToken.Type))
		return nil
	}
	p.nextToken()

	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected function name, got %s", p.curToken.Type))
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	params, named, ok := p.parseParams()
	if !ok {
		return nil
	}

	if p.curTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
		decl := &ast.FunDecl{Pos: pos, Return: ret, Name: name}
		for _, param := range params {
			decl.Params = append(decl.Params, param.Type)
		}
		return decl
	}

	if !p.curTokenIs(lexer.TokenLBrace) {
		p.addError(fmt.Sprintf("expected '{' or ';', got %s", p.curToken.Type))
		return nil
	}
	if !named {
		p.addError(fmt.Sprintf("parameters of %s must be named", name))
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FunDef{
		Pos:    pos,
		Return: ret,
		Name:   name,
		Params: params,
		Body:   body,
	}
}

// parseParams parses a parameter list after '(' up to and including ')'.
// Names are optional so the same rule serves declarations; named reports
// whether every parameter has one.
func (p *Parser) parseParams() (params []ast.Param, named bool, ok bool) {
	named = true
	if p.curTokenIs(lexer.TokenVoid) && p.peekTokenIs(lexer.TokenRParen) {
		p.nextToken()
	}
	if p.curTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return nil, true, true
	}
	for {
		t, isType := p.typeOf(p.curToken.Type, false)
		if !isType {
			p.addError(fmt.Sprintf("expected parameter type, got %s", p.curToken.Type))
			return nil, false, false
		}
		p.nextToken()
		param := ast.Param{Type: t}
		if p.curTokenIs(lexer.TokenIdent) {
			param.Name = p.curToken.Literal
			p.nextToken()
		} else {
			named = false
		}
		params = append(params, param)

		if p.curTokenIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		if !p.expect(lexer.TokenRParen) {
			return nil, false, false
		}
		return params, named, true
	}
}

// typeOf maps a type keyword to its type
func (p *Parser) typeOf(tt lexer.TokenType, allowVoid bool) (types.Type, bool) {
	switch tt {
	case lexer.TokenInt_:
		return types.Int, true
	case lexer.TokenChar_:
		return types.Char, true
	case lexer.TokenString_:
		return types.String, true
	case lexer.TokenVoid:
		return types.Void, allowVoid
	}
	return types.Invalid, false
}

func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Pos: p.pos(), Items: []ast.Stmt{}}

	if !p.expect(lexer.TokenLBrace) {
		return nil
	}

	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt == nil || p.failed() {
			return nil
		}
		block.Items = append(block.Items, stmt)
	}

	if !p.expect(lexer.TokenRBrace) {
		return nil
	}

	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenInt_, lexer.TokenChar_, lexer.TokenString_:
		return p.parseVarDecl()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenLBrace:
		if b := p.parseBlock(); b != nil {
			return b
		}
		return nil
	case lexer.TokenIdent:
		if p.peekTokenIs(lexer.TokenAssign) {
			return p.parseAssign()
		}
		if p.peekTokenIs(lexer.TokenLParen) {
			pos := p.pos()
			call := p.parseCall()
			if call == nil || !p.expect(lexer.TokenSemicolon) {
				return nil
			}
			return &ast.CallStmt{Pos: pos, Call: call}
		}
		p.nextToken()
		p.addError(fmt.Sprintf("expected '=' or '(', got %s", p.curToken.Type))
		return nil
	default:
		p.addError(fmt.Sprintf("unexpected token in statement: %s", p.curToken.Type))
		return nil
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	decl := &ast.VarDecl{Pos: p.pos()}
	decl.Type, _ = p.typeOf(p.curToken.Type, false)
	p.nextToken()

	for {
		if !p.curTokenIs(lexer.TokenIdent) {
			p.addError(fmt.Sprintf("expected variable name, got %s", p.curToken.Type))
			return nil
		}
		decl.Names = append(decl.Names, p.curToken.Literal)
		p.nextToken()
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}

	if !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return decl
}

func (p *Parser) parseAssign() ast.Stmt {
	stmt := &ast.Assign{Pos: p.pos(), Name: p.curToken.Literal}
	p.nextToken() // consume name
	p.nextToken() // consume '='
	stmt.Value = p.parseExpression()
	if stmt.Value == nil || !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return stmt
}

func (p *Parser) parseCondition() ast.Expr {
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil || !p.expect(lexer.TokenRParen) {
		return nil
	}
	return cond
}

func (p *Parser) parseIf() ast.Stmt {
	stmt := &ast.If{Pos: p.pos()}
	p.nextToken() // consume 'if'

	if stmt.Cond = p.parseCondition(); stmt.Cond == nil {
		return nil
	}
	if stmt.Then = p.parseBlock(); stmt.Then == nil {
		return nil
	}
	if p.curTokenIs(lexer.TokenElse) {
		p.nextToken()
		if stmt.Else = p.parseBlock(); stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	stmt := &ast.While{Pos: p.pos()}
	p.nextToken() // consume 'while'

	if stmt.Cond = p.parseCondition(); stmt.Cond == nil {
		return nil
	}
	if stmt.Body = p.parseBlock(); stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Stmt {
	stmt := &ast.Return{Pos: p.pos()}
	p.nextToken() // consume 'return'

	if !p.curTokenIs(lexer.TokenSemicolon) {
		if stmt.Expr = p.parseExpression(); stmt.Expr == nil {
			return nil
		}
	}

	if !p.expect(lexer.TokenSemicolon) {
		return nil
	}

	return stmt
}

// Binary operator precedence, lowest first
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
)

var binaryOps = map[lexer.TokenType]struct {
	op   ast.BinaryOp
	prec int
}{
	lexer.TokenOr:      {ast.OpOr, precOr},
	lexer.TokenAnd:     {ast.OpAnd, precAnd},
	lexer.TokenEq:      {ast.OpEq, precEquality},
	lexer.TokenNe:      {ast.OpNe, precEquality},
	lexer.TokenLt:      {ast.OpLt, precRelational},
	lexer.TokenLe:      {ast.OpLe, precRelational},
	lexer.TokenGt:      {ast.OpGt, precRelational},
	lexer.TokenGe:      {ast.OpGe, precRelational},
	lexer.TokenPlus:    {ast.OpAdd, precAdditive},
	lexer.TokenMinus:   {ast.OpSub, precAdditive},
	lexer.TokenStar:    {ast.OpMul, precMultiplicative},
	lexer.TokenSlash:   {ast.OpDiv, precMultiplicative},
	lexer.TokenPercent: {ast.OpMod, precMultiplicative},
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseBinary(precOr)
}

// parseBinary parses a left-associative chain of operators binding at
// least as tightly as minPrec.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		info, ok := binaryOps[p.curToken.Type]
		if !ok || info.prec < minPrec {
			return left
		}
		pos := p.pos()
		p.nextToken()
		right := p.parseBinary(info.prec + 1)
		if right == nil {
			return nil
		}
		left = &ast.Binary{Pos: pos, Op: info.op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.pos()
	switch {
	case p.curTokenIs(lexer.TokenNot):
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Not{Pos: pos, Expr: operand}
	case p.curTokenIs(lexer.TokenLParen) && p.isCastType(p.peekToken.Type):
		p.nextToken() // consume '('
		to, _ := p.typeOf(p.curToken.Type, false)
		p.nextToken()
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Cast{Pos: pos, To: to, Expr: operand}
	}
	return p.parsePrimary()
}

func (p *Parser) isCastType(tt lexer.TokenType) bool {
	_, ok := p.typeOf(tt, false)
	return ok
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	lit := p.curToken.Literal
	switch p.curToken.Type {
	case lexer.TokenInt:
		p.nextToken()
		return &ast.IntLit{Pos: pos, Raw: lit}
	case lexer.TokenChar:
		p.nextToken()
		return &ast.CharLit{Pos: pos, Raw: lit}
	case lexer.TokenString:
		p.nextToken()
		return &ast.StringLit{Pos: pos, Raw: lit}
	case lexer.TokenIdent:
		if p.peekTokenIs(lexer.TokenLParen) {
			if call := p.parseCall(); call != nil {
				return call
			}
			return nil
		}
		p.nextToken()
		return &ast.Ident{Pos: pos, Name: lit}
	case lexer.TokenLParen:
		p.nextToken()
		inner := p.parseExpression()
		if inner == nil || !p.expect(lexer.TokenRParen) {
			return nil
		}
		return &ast.Paren{Pos: pos, Expr: inner}
	}

	p.addError(fmt.Sprintf("expected expression, got %s", p.curToken.Type))
	return nil
}

// parseCall parses name '(' args ')' with curToken on the name
func (p *Parser) parseCall() *ast.Call {
	call := &ast.Call{Pos: p.pos(), Name: p.curToken.Literal}
	p.nextToken() // consume name
	p.nextToken() // consume '('

	if p.curTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return call
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
		if p.curTokenIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		if !p.expect(lexer.TokenRParen) {
			return nil
		}
		return call
	}
}
