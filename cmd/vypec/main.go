package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raymyers/vypec/pkg/asm"
	"github.com/raymyers/vypec/pkg/asmgen"
	"github.com/raymyers/vypec/pkg/ast"
	"github.com/raymyers/vypec/pkg/config"
	"github.com/raymyers/vypec/pkg/lexer"
	"github.com/raymyers/vypec/pkg/parser"
	"github.com/raymyers/vypec/pkg/sema"
	"github.com/raymyers/vypec/pkg/sim"
)

var version = "0.1.0"

// Process exit codes
const (
	exitOK          = 0
	exitLexical     = 1
	exitSyntax      = 2
	exitDeclaration = 3
	exitType        = 4
	exitCodegen     = 5
	exitRuntime     = 6
	exitInternal    = 9
)

// defaultOutput is written when no output file is named
const defaultOutput = "out.asm"

// Command line flags
var (
	dParse     bool
	emit       string
	gprs       int
	jobs       int
	configPath string
	noComments bool
	runProgram bool
	stepLimit  int64
	verbose    bool
	colorMode  string
)

// ErrObjectInput is returned when an object file is given without --run
var ErrObjectInput = errors.New("object files can only be run (use --run)")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	return exitCode(rootCmd.Execute())
}

// singleDashFlags accept the single-dash spelling, e.g. -dparse
var singleDashFlags = []string{"dparse"}

// normalizeFlags converts single-dash long flags like -dparse to --dparse
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, name := range singleDashFlags {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
	}
	return result
}

// exitCode maps the error of a compilation stage to the process status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		lexErr    *lexer.Error
		parseErrs parser.Errors
		semaErrs  sema.Errors
		genErr    *asmgen.SemanticError
		fault     *sim.Fault
	)
	switch {
	case errors.As(err, &lexErr):
		return exitLexical
	case errors.As(err, &parseErrs):
		return exitSyntax
	case errors.As(err, &semaErrs):
		if semaErrs.Kind() == sema.KindType {
			return exitType
		}
		return exitDeclaration
	case asmgen.IsInternal(err):
		return exitInternal
	case errors.As(err, &genErr):
		return exitCodegen
	case errors.As(err, &fault):
		return exitRuntime
	}
	return exitInternal
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vypec [flags] <input> [output]",
		Short: "vypec compiles VYPe16 programs to VYPe assembly",
		Long: `vypec compiles a VYPe16 source file to assembly for the VYPe
MIPS-like target. The output defaults to out.asm; "-" writes to stdout.
With --run the program is executed on the built-in simulator instead,
and the input may also be a .vo object file.`,
		Version:       version,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			d := newDiagnostics(errOut)
			err := compile(cmd, args, out, d)
			if err != nil {
				d.report(args[0], err)
			}
			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dParse, "dparse", false, "Dump the program after parsing")
	rootCmd.Flags().StringVar(&emit, "emit", "", "Output format: asm or obj (default from vypec.toml)")
	rootCmd.Flags().IntVar(&gprs, "gprs", 0, "Number of general purpose registers to allocate")
	rootCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Functions lowered in parallel")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Use this file instead of the nearest vypec.toml")
	rootCmd.Flags().BoolVar(&noComments, "no-comments", false, "Omit comments from the assembly")
	rootCmd.Flags().BoolVar(&runProgram, "run", false, "Run the program on the simulator")
	rootCmd.Flags().Int64Var(&stepLimit, "step-limit", 0, "Simulator instruction limit (negative for none)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Trace register allocation")
	rootCmd.Flags().StringVar(&colorMode, "color", "auto", "Color diagnostics: auto, always or never")

	return rootCmd
}

// loadConfig resolves vypec.toml for input and applies flag overrides
func loadConfig(cmd *cobra.Command, input string) (config.Config, error) {
	cfg, err := config.Resolve(configPath, filepath.Dir(input))
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("gprs") {
		cfg.Target.GPRs = gprs
	}
	if flags.Changed("jobs") {
		cfg.Build.Jobs = jobs
	}
	if flags.Changed("emit") {
		cfg.Output.Format = emit
	}
	if noComments {
		cfg.Output.Comments = false
	}
	if flags.Changed("step-limit") {
		cfg.Sim.StepLimit = stepLimit
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// compile runs the pipeline selected by the flags
func compile(cmd *cobra.Command, args []string, out io.Writer, d *diagnostics) error {
	input := args[0]
	cfg, err := loadConfig(cmd, input)
	if err != nil {
		return err
	}

	if filepath.Ext(input) == ".vo" {
		if !runProgram {
			return ErrObjectInput
		}
		prog, err := asm.ReadObjectFile(input)
		if err != nil {
			return err
		}
		return execute(cmd, prog, cfg, out)
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	program, err := parser.Parse(string(src))
	if err != nil {
		return err
	}
	if dParse {
		ast.NewPrinter(out).PrintProgram(program)
		return nil
	}

	info, err := sema.Check(program)
	if err != nil {
		return err
	}

	opts := asmgen.Options{
		GPRs:  cfg.Target.GPRs,
		Jobs:  cfg.Build.Jobs,
		Entry: cfg.Target.Entry,
	}
	if verbose {
		opts.Log = d.tracer()
	}
	prog, err := asmgen.TransformProgram(cmd.Context(), program, info, opts)
	if err != nil {
		return err
	}

	if runProgram {
		return execute(cmd, prog, cfg, out)
	}

	output := defaultOutput
	if len(args) > 1 {
		output = args[1]
	} else if cfg.Output.Format == config.FormatObj {
		output = strings.TrimSuffix(defaultOutput, ".asm") + ".vo"
	}
	return writeOutput(prog, cfg, output, out)
}

// writeOutput writes prog to path, or to out when path is "-"
func writeOutput(prog *asm.Program, cfg config.Config, path string, out io.Writer) error {
	if cfg.Output.Format == config.FormatObj {
		if path == "-" {
			return asm.WriteObject(out, prog)
		}
		return asm.WriteObjectFile(path, prog)
	}

	if path == "-" {
		printAsm(out, prog, cfg)
		return nil
	}
	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	printAsm(outFile, prog, cfg)
	return outFile.Close()
}

func printAsm(w io.Writer, prog *asm.Program, cfg config.Config) {
	printer := asm.NewPrinter(w)
	printer.OmitComments = !cfg.Output.Comments
	printer.PrintProgram(prog)
}

// execute runs prog on the simulator with the command's standard streams
func execute(cmd *cobra.Command, prog *asm.Program, cfg config.Config, out io.Writer) error {
	m, err := sim.Load(prog, sim.Config{
		Memory:    cfg.Sim.Memory,
		StepLimit: cfg.Sim.StepLimit,
		Stdin:     cmd.InOrStdin(),
		Stdout:    out,
	})
	if err != nil {
		return err
	}
	return m.Run()
}

// diagnostics writes prefixed, optionally colored messages to errOut
type diagnostics struct {
	w          io.Writer
	errColor   *color.Color
	traceColor *color.Color
}

func newDiagnostics(w io.Writer) *diagnostics {
	d := &diagnostics{
		w:          w,
		errColor:   color.New(color.FgRed, color.Bold),
		traceColor: color.New(color.FgCyan),
	}
	if useColor(w) {
		d.errColor.EnableColor()
		d.traceColor.EnableColor()
	} else {
		d.errColor.DisableColor()
		d.traceColor.DisableColor()
	}
	return d
}

// useColor decides whether diagnostics on w are colored
func useColor(w io.Writer) bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// report prints err, one line per diagnostic
func (d *diagnostics) report(input string, err error) {
	severity := "error"
	if asmgen.IsInternal(err) {
		severity = "internal error"
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(d.w, "vypec: %s: %s: %s\n", d.errColor.Sprint(severity), input, line)
	}
}

// tracer returns the logger used for allocator traces
func (d *diagnostics) tracer() *log.Logger {
	return log.New(d.w, "vypec: "+d.traceColor.Sprint("trace")+": ", 0)
}
