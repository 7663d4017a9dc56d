package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raymyers/vypec/pkg/asm"
)

// writeSource writes a VYPe16 program to a temporary directory
func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// runCLI runs the root command and returns stdout, stderr and the exit code
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(normalizeFlags(args))
	err := cmd.Execute()
	return out.String(), errOut.String(), exitCode(err)
}

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	expectedFlags := []string{"dparse", "emit", "gprs", "jobs", "config", "no-comments", "run", "step-limit", "verbose", "color"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestNoArgsPrintsHelp(t *testing.T) {
	out, _, code := runCLI(t, "")
	if code != exitOK {
		t.Errorf("exit code %d", code)
	}
	if !strings.Contains(out, "vypec") {
		t.Errorf("expected usage, got %q", out)
	}
}

func TestDParseFlag(t *testing.T) {
	src := writeSource(t, "test.vyp", `int add(int a, int b) { return a + b; }
int main(void) { return add(1, 2); }`)

	out, errOut, code := runCLI(t, "", "-dparse", src)
	if code != exitOK {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	for _, want := range []string{"int add(int a, int b)", "int main(void)", "return a + b;", "return add(1, 2);"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestDefaultOutputFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.vyp")
	if err := os.WriteFile(src, []byte(`int main(void) { return 0; }`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	if _, errOut, code := runCLI(t, "", "prog.vyp"); code != exitOK {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	data, err := os.ReadFile(filepath.Join(dir, defaultOutput))
	if err != nil {
		t.Fatalf("expected %s to be written: %v", defaultOutput, err)
	}
	if !strings.Contains(string(data), "__start:") {
		t.Errorf("unexpected assembly:\n%s", data)
	}
}

func TestExplicitOutputFile(t *testing.T) {
	src := writeSource(t, "test.vyp", `int main(void) { print("x"); return 0; }`)
	dst := filepath.Join(t.TempDir(), "test.asm")

	out, errOut, code := runCLI(t, "", src, dst)
	if code != exitOK {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if out != "" {
		t.Errorf("nothing should go to stdout, got %q", out)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\tprint_string\t") {
		t.Errorf("unexpected assembly:\n%s", data)
	}
}

func TestObjectRoundTrip(t *testing.T) {
	src := writeSource(t, "test.vyp", `int main(void) { print("n=", read_int() + 1); return 0; }`)
	obj := filepath.Join(t.TempDir(), "test.vo")

	if _, errOut, code := runCLI(t, "", "--emit", "obj", src, obj); code != exitOK {
		t.Fatalf("emit obj: exit code %d: %s", code, errOut)
	}
	prog, err := asm.ReadObjectFile(obj)
	if err != nil {
		t.Fatalf("ReadObjectFile: %v", err)
	}
	if len(prog.Functions) != 2 {
		t.Errorf("expected entry stub and main, got %d functions", len(prog.Functions))
	}

	out, errOut, code := runCLI(t, "41\n", "--run", obj)
	if code != exitOK {
		t.Fatalf("run obj: exit code %d: %s", code, errOut)
	}
	if out != "n=42" {
		t.Errorf("output %q, want %q", out, "n=42")
	}
}

func TestObjectInputNeedsRun(t *testing.T) {
	obj := writeSource(t, "test.vo", "not an object")
	_, errOut, code := runCLI(t, "", obj)
	if code != exitInternal {
		t.Errorf("exit code %d, want %d", code, exitInternal)
	}
	if !strings.Contains(errOut, ErrObjectInput.Error()) {
		t.Errorf("stderr %q", errOut)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vypec.toml"), []byte("[output]\ncomments = false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "test.vyp")
	if err := os.WriteFile(src, []byte(`int main(void) { int a; return a; }`), 0644); err != nil {
		t.Fatal(err)
	}

	out, errOut, code := runCLI(t, "", src, "-")
	if code != exitOK {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if strings.Contains(out, "#") {
		t.Errorf("comments disabled by vypec.toml but found in:\n%s", out)
	}
}

func TestBadConfig(t *testing.T) {
	cfg := writeSource(t, "custom.toml", "[target]\ngprs = 100\n")
	src := writeSource(t, "test.vyp", `int main(void) { return 0; }`)

	_, errOut, code := runCLI(t, "", "--config", cfg, src, "-")
	if code != exitInternal {
		t.Errorf("exit code %d, want %d", code, exitInternal)
	}
	if !strings.Contains(errOut, "target.gprs") {
		t.Errorf("stderr %q", errOut)
	}

	_, errOut, code = runCLI(t, "", "--gprs", "2", src, "-")
	if code != exitInternal || !strings.Contains(errOut, "target.gprs") {
		t.Errorf("--gprs 2: exit code %d, stderr %q", code, errOut)
	}
}

func TestDiagnostics(t *testing.T) {
	src := writeSource(t, "bad.vyp", `int main(void) { x = 1; y = 2; return 0; }`)

	_, errOut, code := runCLI(t, "", "--color", "never", src, "-")
	if code != exitDeclaration {
		t.Errorf("exit code %d, want %d", code, exitDeclaration)
	}
	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one line per error, got %q", errOut)
	}
	want := "vypec: error: " + src + ": line 1, col 18: undeclared variable x"
	if lines[0] != want {
		t.Errorf("first diagnostic %q, want %q", lines[0], want)
	}

	_, errOut, _ = runCLI(t, "", "--color", "always", src, "-")
	if !strings.Contains(errOut, "\x1b[") {
		t.Errorf("expected colored output, got %q", errOut)
	}
}

func TestVerboseTrace(t *testing.T) {
	src := writeSource(t, "test.vyp", `int main(void) { int a, b, c, d, e, f, g; return a + g; }`)
	_, errOut, code := runCLI(t, "", "-v", "--color", "never", "--gprs", "6", src, "-")
	if code != exitOK {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "vypec: trace: main: spill") {
		t.Errorf("expected spill trace, got %q", errOut)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(nil); got != exitOK {
		t.Errorf("exitCode(nil) = %d", got)
	}
	if got := exitCode(errors.New("disk on fire")); got != exitInternal {
		t.Errorf("plain error = %d, want %d", got, exitInternal)
	}
}

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "single-dash dparse",
			input:    []string{"-dparse", "test.vyp"},
			expected: []string{"--dparse", "test.vyp"},
		},
		{
			name:     "double-dash dparse unchanged",
			input:    []string{"--dparse", "test.vyp"},
			expected: []string{"--dparse", "test.vyp"},
		},
		{
			name:     "short flags unchanged",
			input:    []string{"-v", "-j", "4", "test.vyp"},
			expected: []string{"-v", "-j", "4", "test.vyp"},
		},
		{
			name:     "no flags",
			input:    []string{"test.vyp", "out.asm"},
			expected: []string{"test.vyp", "out.asm"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := normalizeFlags(tc.input)
			if strings.Join(result, " ") != strings.Join(tc.expected, " ") {
				t.Errorf("normalizeFlags(%v) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}
