// Package config loads vivc settings from CUE files.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "vivc.cue"

// Config is the full set of tool settings.
type Config struct {
	Log         Log         `json:"log"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Test        Test        `json:"test"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Diagnostics struct {
	// MaxErrors caps how many diagnostics are rendered per file; 0 is unlimited.
	MaxErrors    int `json:"max_errors"`
	ContextLines int `json:"context_lines"`
}

type Test struct {
	Workers   int    `json:"workers"`
	Extension string `json:"extension"`
}

// Schema constrains configuration files. Unknown fields are errors.
const Schema = `
log?: close({
	level?: "debug" | "info" | "warn" | "error"
	file?:  string
})
diagnostics?: close({
	max_errors?:    int & >=0
	context_lines?: int & >=0
})
test?: close({
	workers?:   int & >=1
	extension?: =~"^\\.[A-Za-z0-9]+$"
})
`

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Log: Log{
			Level: "info",
		},
		Diagnostics: Diagnostics{
			MaxErrors:    20,
			ContextLines: 2,
		},
		Test: Test{
			Workers:   runtime.NumCPU(),
			Extension: ".viv",
		},
	}
}

// Load reads the given files in order on top of the defaults. Later files
// override fields set by earlier ones.
func Load(paths ...string) (Config, error) {
	cfg := Default()

	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + Schema + "})")
	if err := schema.Err(); err != nil {
		return cfg, fmt.Errorf("compile config schema: %w", err)
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}

		value := ctx.CompileBytes(content, cue.Filename(path))
		if err := value.Err(); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}

		value = schema.Unify(value)
		if err := value.Validate(cue.Concrete(true)); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}

		if err := value.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	return cfg, nil
}

// LoadDefault loads path when it is set. Otherwise it loads DefaultFile
// if one exists, and falls back to the defaults.
func LoadDefault(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("stat %s: %w", DefaultFile, err)
	}
	return Load(DefaultFile)
}
