package sema

import "github.com/raymyers/vypec/pkg/types"

// Builtin function names
const (
	Print      = "print"
	ReadInt    = "read_int"
	ReadChar   = "read_char"
	ReadString = "read_string"
	GetAt      = "get_at"
	SetAt      = "set_at"
	Strcat     = "strcat"
)

var builtins = map[string]types.Signature{
	Print:      {Return: types.Void, Variadic: true},
	ReadInt:    {Return: types.Int},
	ReadChar:   {Return: types.Char},
	ReadString: {Return: types.String},
	GetAt:      {Return: types.Char, Params: []types.Type{types.String, types.Int}},
	SetAt:      {Return: types.String, Params: []types.Type{types.String, types.Int, types.Char}},
	Strcat:     {Return: types.String, Params: []types.Type{types.String, types.String}},
}

// IsBuiltinName reports whether name is reserved for a built-in function
func IsBuiltinName(name string) bool {
	_, ok := builtins[name]
	return ok
}
