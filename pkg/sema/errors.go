package sema

import (
	"fmt"
	"strings"

	"github.com/raymyers/vypec/pkg/ast"
)

// Kind classifies a semantic error
type Kind int

const (
	// KindDeclaration covers undefined, redefined and conflicting names.
	KindDeclaration Kind = iota
	// KindType covers type mismatches and misuse of values.
	KindType
)

func (k Kind) String() string {
	if k == KindDeclaration {
		return "declaration"
	}
	return "type"
}

// Error is one semantic error
type Error struct {
	Pos  ast.Pos
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Errors is the list of semantic errors of a program, in discovery order
type Errors []*Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Kind returns the kind of the first error
func (e Errors) Kind() Kind {
	if len(e) == 0 {
		return KindType
	}
	return e[0].Kind
}
