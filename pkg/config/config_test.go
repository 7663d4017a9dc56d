package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
[target]
gprs = 8

[output]
comments = false
format = "obj"

[sim]
step_limit = 1000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Target.GPRs != 8 || cfg.Output.Comments || cfg.Output.Format != FormatObj || cfg.Sim.StepLimit != 1000 {
		t.Errorf("values not applied: %+v", cfg)
	}
	if cfg.Target.Entry != def.Target.Entry || cfg.Build.Jobs != def.Build.Jobs || cfg.Sim.Memory != def.Sim.Memory {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[target]\nregisters = 8\n", "unknown keys: target.registers"},
		{"unknown section", "[linker]\nscript = \"x\"\n", "unknown keys"},
		{"bad syntax", "[target\n", "failed to parse TOML"},
		{"wrong type", "[build]\njobs = \"four\"\n", "failed to parse TOML"},
		{"too few registers", "[target]\ngprs = 3\n", "target.gprs must be between"},
		{"bad format", "[output]\nformat = \"elf\"\n", "output.format"},
		{"no jobs", "[build]\njobs = 0\n", "build.jobs"},
		{"tiny memory", "[sim]\nmemory = 16\n", "sim.memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find = %q, %v, %v", got, ok, err)
	}
	if got != want {
		t.Errorf("Find = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve("", dir)
	if err != nil {
		t.Fatalf("Resolve without a file: %v", err)
	}
	if cfg.Path != "" && !strings.HasSuffix(cfg.Path, FileName) {
		t.Errorf("unexpected path %q", cfg.Path)
	}

	explicit := filepath.Join(t.TempDir(), "other.toml")
	if err := os.WriteFile(explicit, []byte("[build]\njobs = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "[build]\njobs = 2\n")

	cfg, err = Resolve(explicit, dir)
	if err != nil {
		t.Fatalf("Resolve explicit: %v", err)
	}
	if cfg.Build.Jobs != 3 {
		t.Errorf("explicit file not used: jobs = %d", cfg.Build.Jobs)
	}

	cfg, err = Resolve("", dir)
	if err != nil {
		t.Fatalf("Resolve found: %v", err)
	}
	if cfg.Build.Jobs != 2 {
		t.Errorf("found file not used: jobs = %d", cfg.Build.Jobs)
	}
}
