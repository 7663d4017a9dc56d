// Package types describes VYPe16 value types and function signatures.
package types

import "strings"

// Type is a VYPe16 value type
type Type int

const (
	Invalid Type = iota
	Void
	Int
	Char
	String
)

var typeNames = []string{"<invalid>", "void", "int", "char", "string"}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "<invalid>"
}

// IsValue reports whether t can be held by a variable or expression
func (t Type) IsValue() bool {
	return t == Int || t == Char || t == String
}

// Signature is the type of a function
type Signature struct {
	Return   Type
	Params   []Type
	Variadic bool // only the print built-in
}

// Equal reports whether two signatures are identical
func (s Signature) Equal(o Signature) bool {
	if s.Return != o.Return || s.Variadic != o.Variadic || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteString(s.Return.String())
	sb.WriteString(" (")
	if len(s.Params) == 0 && !s.Variadic {
		sb.WriteString("void")
	}
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	if s.Variadic {
		if len(s.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(")")
	return sb.String()
}

// CanCast reports whether an explicit cast from one type to another is allowed
func CanCast(from, to Type) bool {
	if from == to {
		return from.IsValue()
	}
	switch {
	case from == Char && to == Int:
		return true
	case from == Int && to == Char:
		return true
	case from == Char && to == String:
		return true
	}
	return false
}
