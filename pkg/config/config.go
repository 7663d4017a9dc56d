// Package config loads vypec.toml, the per-project compiler settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/raymyers/vypec/pkg/regalloc"
	"github.com/raymyers/vypec/pkg/sim"
)

// FileName is the configuration file looked up next to the input
const FileName = "vypec.toml"

// Output formats
const (
	FormatAsm = "asm"
	FormatObj = "obj"
)

// Config holds every setting vypec reads from vypec.toml
type Config struct {
	Target Target `toml:"target"`
	Output Output `toml:"output"`
	Build  Build  `toml:"build"`
	Sim    Sim    `toml:"sim"`

	// Path is the file the settings came from, empty for defaults.
	Path string `toml:"-"`
}

type Target struct {
	GPRs  int    `toml:"gprs"`
	Entry string `toml:"entry"`
}

type Output struct {
	Comments bool   `toml:"comments"`
	Format   string `toml:"format"`
}

type Build struct {
	Jobs int `toml:"jobs"`
}

type Sim struct {
	Memory    int   `toml:"memory"`
	StepLimit int64 `toml:"step_limit"`
}

// Default returns the settings used when no vypec.toml is found
func Default() Config {
	return Config{
		Target: Target{GPRs: regalloc.DefaultGPRs, Entry: "main"},
		Output: Output{Comments: true, Format: FormatAsm},
		Build:  Build{Jobs: 1},
		Sim:    Sim{Memory: sim.DefaultMemory, StepLimit: sim.DefaultStepLimit},
	}
}

// Load decodes path over the defaults. Keys vypec does not know are an
// error, so a misspelled setting is never silently ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks up from startDir looking for vypec.toml
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolve loads explicit if set, otherwise the nearest vypec.toml above
// startDir, otherwise the defaults.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks ranges that the compiler and simulator rely on
func (c Config) Validate() error {
	var errs []error
	if c.Target.GPRs < regalloc.MinGPRs || c.Target.GPRs > regalloc.MaxGPRs {
		errs = append(errs, fmt.Errorf("target.gprs must be between %d and %d, got %d", regalloc.MinGPRs, regalloc.MaxGPRs, c.Target.GPRs))
	}
	if strings.TrimSpace(c.Target.Entry) == "" {
		errs = append(errs, errors.New("target.entry must not be empty"))
	}
	if c.Output.Format != FormatAsm && c.Output.Format != FormatObj {
		errs = append(errs, fmt.Errorf("output.format must be %q or %q, got %q", FormatAsm, FormatObj, c.Output.Format))
	}
	if c.Build.Jobs < 1 {
		errs = append(errs, fmt.Errorf("build.jobs must be at least 1, got %d", c.Build.Jobs))
	}
	if c.Sim.Memory < sim.DataBase*2 {
		errs = append(errs, fmt.Errorf("sim.memory must be at least %d bytes, got %d", sim.DataBase*2, c.Sim.Memory))
	}
	return errors.Join(errs...)
}
