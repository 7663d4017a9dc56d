package lexer

import "fmt"

// Lexer tokenizes VYPe16 source code
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Error reports the first illegal token of a source file
type Error struct {
	Line    int
	Column  int
	Literal string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, col %d: illegal token %q", e.Line, e.Column, e.Literal)
}

// Tokenize scans the whole input and fails on the first illegal token.
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenIllegal {
			return nil, &Error{Line: tok.Line, Column: tok.Column, Literal: tok.Literal}
		}
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	if !l.skipComments() {
		return Token{Type: TokenIllegal, Literal: "/*", Line: l.line, Column: l.column}
	}

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case 0:
		if l.pos < len(l.input) {
			tok = l.newToken(TokenIllegal, l.ch)
			break
		}
		tok.Type = TokenEOF
		tok.Literal = ""
		return tok
	case '+':
		tok = l.newToken(TokenPlus, l.ch)
	case '-':
		tok = l.newToken(TokenMinus, l.ch)
	case '*':
		tok = l.newToken(TokenStar, l.ch)
	case '/':
		tok = l.newToken(TokenSlash, l.ch)
	case '%':
		tok = l.newToken(TokenPercent, l.ch)
	case '=':
		if l.peekChar() == '=' {
			tok.Type = TokenEq
			tok.Literal = "=="
			l.readChar()
		} else {
			tok = l.newToken(TokenAssign, l.ch)
		}
	case '!':
		if l.peekChar() == '=' {
			tok.Type = TokenNe
			tok.Literal = "!="
			l.readChar()
		} else {
			tok = l.newToken(TokenNot, l.ch)
		}
	case '<':
		if l.peekChar() == '=' {
			tok.Type = TokenLe
			tok.Literal = "<="
			l.readChar()
		} else {
			tok = l.newToken(TokenLt, l.ch)
		}
	case '>':
		if l.peekChar() == '=' {
			tok.Type = TokenGe
			tok.Literal = ">="
			l.readChar()
		} else {
			tok = l.newToken(TokenGt, l.ch)
		}
	case '&':
		if l.peekChar() != '&' {
			tok = l.newToken(TokenIllegal, l.ch)
			break
		}
		tok.Type = TokenAnd
		tok.Literal = "&&"
		l.readChar()
	case '|':
		if l.peekChar() != '|' {
			tok = l.newToken(TokenIllegal, l.ch)
			break
		}
		tok.Type = TokenOr
		tok.Literal = "||"
		l.readChar()
	case '(':
		tok = l.newToken(TokenLParen, l.ch)
	case ')':
		tok = l.newToken(TokenRParen, l.ch)
	case '{':
		tok = l.newToken(TokenLBrace, l.ch)
	case '}':
		tok = l.newToken(TokenRBrace, l.ch)
	case ';':
		tok = l.newToken(TokenSemicolon, l.ch)
	case ',':
		tok = l.newToken(TokenComma, l.ch)
	case '"':
		lit, ok := l.readString()
		tok.Literal = lit
		tok.Type = TokenString
		if !ok {
			tok.Type = TokenIllegal
		}
		return tok
	case '\'':
		lit, ok := l.readCharLit()
		tok.Literal = lit
		tok.Type = TokenChar
		if !ok {
			tok.Type = TokenIllegal
		}
		return tok
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			tok.Type = TokenInt
			tok.Literal = l.readNumber()
			return tok
		} else {
			tok = l.newToken(TokenIllegal, l.ch)
		}
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: l.line, Column: l.column}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// skipComments skips any run of comments and whitespace. It returns false
// if a block comment is not terminated.
func (l *Lexer) skipComments() bool {
	for l.ch == '/' {
		if l.peekChar() == '/' {
			// Single-line comment
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			l.skipWhitespace()
		} else if l.peekChar() == '*' {
			// Multi-line comment
			l.readChar() // consume /
			l.readChar() // consume *
			for {
				if l.ch == 0 && l.pos >= len(l.input) {
					return false
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				l.readChar()
			}
			l.skipWhitespace()
		} else {
			break
		}
	}
	return true
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func (l *Lexer) readNumber() string {
	pos := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readString returns the raw text between the quotes, escapes intact.
// Strings may not span lines.
func (l *Lexer) readString() (string, bool) {
	l.readChar() // consume opening quote
	pos := l.pos
	for l.ch != '"' {
		if l.ch == '\n' || l.pos >= len(l.input) {
			return l.input[pos:l.pos], false
		}
		if l.ch == '\\' {
			l.readChar() // skip escape char
			if l.pos >= len(l.input) {
				return l.input[pos:l.pos], false
			}
		}
		l.readChar()
	}
	str := l.input[pos:l.pos]
	l.readChar() // consume closing quote
	return str, true
}

// readCharLit returns the raw text between single quotes: one character
// or one escape sequence.
func (l *Lexer) readCharLit() (string, bool) {
	l.readChar() // consume opening quote
	pos := l.pos
	switch {
	case l.pos >= len(l.input), l.ch == '\'', l.ch == '\n':
		return "'", false
	case l.ch == '\\':
		l.readChar()
		if l.pos >= len(l.input) || l.ch == '\n' {
			return l.input[pos:l.pos], false
		}
	}
	l.readChar()
	if l.ch != '\'' {
		return l.input[pos:l.pos], false
	}
	lit := l.input[pos:l.pos]
	l.readChar() // consume closing quote
	return lit, true
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
