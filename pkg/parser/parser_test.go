package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/lexer"
	"github.com/raymyers/vypec/pkg/types"
	"gopkg.in/yaml.v3"
)

// TestSpec represents a test case from parse.yaml
type TestSpec struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
	// Expect is the body of the last function, one statement per line,
	// with expressions fully parenthesized.
	Expect string `yaml:"expect"`
	// Error, when set, is a substring of the expected syntax error.
	Error string `yaml:"error"`
}

// TestFile represents the parse.yaml file structure
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/parse.yaml")
	if err != nil {
		t.Fatalf("failed to read parse.yaml: %v", err)
	}

	var testFile TestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse parse.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			prog, err := Parse(tc.Input)
			if tc.Error != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, parse succeeded", tc.Error)
				}
				if !strings.Contains(err.Error(), tc.Error) {
					t.Fatalf("expected error containing %q, got %v", tc.Error, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			fns := prog.Functions()
			if len(fns) == 0 {
				t.Fatal("no function definitions")
			}
			got := strings.TrimSpace(blockString(fns[len(fns)-1].Body))
			if want := strings.TrimSpace(tc.Expect); got != want {
				t.Errorf("body mismatch\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}

func blockString(b *ast.Block) string {
	var sb strings.Builder
	for _, stmt := range b.Items {
		sb.WriteString(stmtString(stmt))
		sb.WriteString("\n")
	}
	return sb.String()
}

func stmtString(stmt ast.Stmt) string {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return fmt.Sprintf("decl %s %s", s.Type, strings.Join(s.Names, ","))
	case *ast.Assign:
		return fmt.Sprintf("%s = %s", s.Name, exprString(s.Value))
	case *ast.If:
		out := fmt.Sprintf("if %s { %s}", exprString(s.Cond), inline(s.Then))
		if s.Else != nil {
			out += fmt.Sprintf(" else { %s}", inline(s.Else))
		}
		return out
	case *ast.While:
		return fmt.Sprintf("while %s { %s}", exprString(s.Cond), inline(s.Body))
	case *ast.CallStmt:
		return exprString(s.Call)
	case *ast.Return:
		if s.Expr == nil {
			return "return"
		}
		return "return " + exprString(s.Expr)
	case *ast.Block:
		return fmt.Sprintf("{ %s}", inline(s))
	}
	return fmt.Sprintf("<%T>", stmt)
}

func inline(b *ast.Block) string {
	var sb strings.Builder
	for _, stmt := range b.Items {
		sb.WriteString(stmtString(stmt))
		sb.WriteString("; ")
	}
	return sb.String()
}

func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.IntLit:
		return e.Raw
	case *ast.CharLit:
		return "'" + e.Raw + "'"
	case *ast.StringLit:
		return `"` + e.Raw + `"`
	case *ast.Ident:
		return e.Name
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", exprString(e.Left), e.Op, exprString(e.Right))
	case *ast.Not:
		return "!" + exprString(e.Expr)
	case *ast.Cast:
		return fmt.Sprintf("(%s)%s", e.To, exprString(e.Expr))
	case *ast.Paren:
		return exprString(e.Expr)
	case *ast.Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
	}
	return fmt.Sprintf("<%T>", expr)
}

func TestEmptyFunction(t *testing.T) {
	for _, input := range []string{`int main(void) {}`, `int main() {}`} {
		l := lexer.New(input)
		p := New(l)
		def := p.ParseDefinition()

		if len(p.Errors()) > 0 {
			t.Fatalf("parser errors: %v", p.Errors())
		}

		funDef, ok := def.(*ast.FunDef)
		if !ok {
			t.Fatalf("expected FunDef, got %T", def)
		}

		if funDef.Name != "main" {
			t.Errorf("expected name 'main', got %q", funDef.Name)
		}
		if funDef.Return != types.Int {
			t.Errorf("expected return type int, got %s", funDef.Return)
		}
		if len(funDef.Params) != 0 {
			t.Errorf("expected no params, got %d", len(funDef.Params))
		}
		if len(funDef.Body.Items) != 0 {
			t.Errorf("expected empty body, got %d items", len(funDef.Body.Items))
		}
	}
}

func TestDeclarationAndDefinition(t *testing.T) {
	input := `string join(string, char);
string join(string s, char c) { return s; }`

	prog, err := Parse(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(prog.Definitions) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(prog.Definitions))
	}

	decl, ok := prog.Definitions[0].(*ast.FunDecl)
	if !ok {
		t.Fatalf("expected FunDecl, got %T", prog.Definitions[0])
	}
	def, ok := prog.Definitions[1].(*ast.FunDef)
	if !ok {
		t.Fatalf("expected FunDef, got %T", prog.Definitions[1])
	}
	if !decl.Signature().Equal(def.Signature()) {
		t.Errorf("signatures differ: %s vs %s", decl.Signature(), def.Signature())
	}
	if def.Params[1].Name != "c" || def.Params[1].Type != types.Char {
		t.Errorf("second param = %+v", def.Params[1])
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Multiplicative before additive
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"2 * 3 + 4", "((2 * 3) + 4)"},
		// Parentheses override precedence
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		// Left associativity
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"8 / 4 % 3", "((8 / 4) % 3)"},
		// Relational, equality, logical
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a || b && c", "(a || (b && c))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"a <= b + 1 != 0", "((a <= (b + 1)) != 0)"},
		// Unary binds tightest
		{"!a && b", "(!a && b)"},
		{"(int)c + 1", "((int)c + 1)"},
		{"(string)(char)65", "(string)(char)65"},
		{"!!a", "!!a"},
		// A parenthesized name is not a cast
		{"(a) + 1", "(a + 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog, err := Parse("int f(void) { return " + tt.input + "; }")
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			ret := prog.Functions()[0].Body.Items[0].(*ast.Return)
			if actual := exprString(ret.Expr); actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	prog, err := Parse("int main(void)\n{\n  x = 1 + 2;\n}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	assign := prog.Functions()[0].Body.Items[0].(*ast.Assign)
	if assign.Pos != (ast.Pos{Line: 3, Col: 3}) {
		t.Errorf("assign at %v", assign.Pos)
	}
	bin := assign.Value.(*ast.Binary)
	if bin.Pos != (ast.Pos{Line: 3, Col: 9}) {
		t.Errorf("binary at %v, want the operator position", bin.Pos)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing semicolon", "int main(void) { return 1 }", "expected ;"},
		{"unnamed definition param", "int f(int) { return 0; }", "must be named"},
		{"void variable", "int main(void) { void x; }", "unexpected token"},
		{"bare expression statement", "int main(void) { x + 1; }", "expected '=' or '('"},
		{"missing else block", "int main(void) { if (1) {} else return 0; }", "expected {"},
		{"unbraced if body", "int main(void) { if (1) return 0; }", "expected {"},
		{"unterminated block", "int main(void) { return 0;", "expected }"},
		{"top-level statement", "x = 1;", "expected type specifier"},
		{"empty argument", "int main(void) { f(1,); }", "expected expression"},
		{"void cast", "int main(void) { return (void)1; }", "expected expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var perr Errors
			if !errors.As(err, &perr) {
				t.Fatalf("expected Errors, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if !strings.HasPrefix(perr[0], "line ") {
				t.Errorf("error %q has no position", perr[0])
			}
		})
	}
}

func TestLexicalErrorsSurface(t *testing.T) {
	_, err := Parse("int main(void) { return 1 & 2; }")
	var lerr *lexer.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *lexer.Error, got %v", err)
	}
	if lerr.Literal != "&" {
		t.Errorf("illegal literal = %q", lerr.Literal)
	}
}
