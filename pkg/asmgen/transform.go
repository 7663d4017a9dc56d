// Package asmgen lowers type-checked VYPe16 programs to VYPe assembly.
// Each function is lowered in one pass over its AST, with a register
// allocator that spills to the frame when the pool runs out.
package asmgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/regalloc"
	"github.com/raymyers/vypec/pkg/stacking"
	"github.com/raymyers/vypec/pkg/types"
)

// EntryLabel is the label of the program entry stub
const EntryLabel asm.Label = "__start"

// Oracle answers type questions about a checked program
type Oracle interface {
	TypeOf(e ast.Expr) types.Type
	SignatureOf(name string) (types.Signature, bool)
	IsBuiltin(name string) bool
}

// Options configures code generation
type Options struct {
	// GPRs is the size of the register pool (0 = regalloc.DefaultGPRs).
	GPRs int
	// Jobs bounds the number of functions lowered concurrently (0 = 1).
	Jobs int
	// Entry is the function called by the entry stub (default "main").
	Entry string
	// Log receives allocator traces (nil = none).
	Log *log.Logger
}

// SemanticError is a user program error found during lowering
type SemanticError struct {
	Func string
	Msg  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("in function %s: %s", e.Func, e.Msg)
}

// InternalError is a bug in the code generator
type InternalError struct {
	Func string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("asmgen: internal error in function %s: %v", e.Func, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// FuncLabel returns the assembly label of a VYPe16 function
func FuncLabel(name string) asm.Label {
	if name == "main" {
		return "main"
	}
	return asm.Label("fn_" + name)
}

// TransformProgram lowers every function of prog. Functions are lowered
// concurrently; the result lists the entry stub first, then the
// functions in source order.
func TransformProgram(ctx context.Context, prog *ast.Program, oracle Oracle, opts Options) (*asm.Program, error) {
	entry := opts.Entry
	if entry == "" {
		entry = "main"
	}
	if sig, ok := oracle.SignatureOf(entry); !ok || oracle.IsBuiltin(entry) || len(sig.Params) != 0 {
		return nil, &SemanticError{Func: entry, Msg: "entry function must be defined without parameters"}
	}
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	defs := prog.Functions()
	fns := make([]*asm.Function, len(defs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn, err := TransformFunction(def, i+1, oracle, opts)
			if err != nil {
				return err
			}
			fns[i] = fn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := asm.NewFunction(string(EntryLabel), 0)
	start.AppendLabel(EntryLabel)
	for _, inst := range stacking.GenerateEntry(FuncLabel(entry)) {
		start.Append(inst)
	}

	result := &asm.Program{Functions: make([]asm.Function, 0, len(fns)+1)}
	result.Functions = append(result.Functions, *start)
	for _, fn := range fns {
		result.Functions = append(result.Functions, *fn)
	}
	return result, nil
}

// TransformFunction lowers one function definition. index namespaces
// the generated labels and must differ between functions of a program.
// Allocator and lowering invariant violations are returned as
// *InternalError; no partial code is returned on failure.
func TransformFunction(def *ast.FunDef, index int, oracle Oracle, opts Options) (fn *asm.Function, err error) {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	out := asm.NewFunction(string(FuncLabel(def.Name)), index)
	ra, err := regalloc.New(out, regalloc.Options{GPRs: opts.GPRs, Func: def.Name, Log: logger})
	if err != nil {
		return nil, err
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fn = nil
		switch e := r.(type) {
		case *SemanticError:
			err = e
		case *InternalError:
			err = e
		case error:
			err = &InternalError{Func: def.Name, Err: e}
		default:
			err = &InternalError{Func: def.Name, Err: fmt.Errorf("%v", e)}
		}
	}()

	l := &lowerer{
		def:    def,
		out:    out,
		ra:     ra,
		oracle: oracle,
		names:  make(map[string]string),
		decls:  make(map[string]int),
	}
	l.lowerFunction()
	return out, nil
}

// IsInternal reports whether err is a code generator bug rather than a
// problem with the input program.
func IsInternal(err error) bool {
	var ie *InternalError
	var re *regalloc.InternalError
	return errors.As(err, &ie) || errors.As(err, &re)
}
