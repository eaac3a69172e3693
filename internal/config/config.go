// Package config holds the explicit, process-wide-global-free Config value
// spec.md §9 Design Notes calls for, threaded into BlendDriver instead of
// the original's scattered process-wide options (verbosity, wraparound,
// pyramid cap, threshold).
//
// Unlike the teacher's pkg/cli/dotenv.go (which hand-rolls a parser and
// never imports the godotenv dependency its go.mod already declares), this
// package actually imports github.com/joho/godotenv to pre-populate default
// overrides from a .multiblend.env file before flag parsing.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/quietpixel/multiblend/internal/blenderr"
	"github.com/quietpixel/multiblend/internal/mask"
)

// Config carries every knob the core or its CLI collaborator needs. No
// field is read from a process-wide mutable global anywhere downstream.
type Config struct {
	// Wraparound enables horizontal periodic boundary handling (spec.md
	// §4.3), for 360° panoramas.
	Wraparound bool

	// LevelCap bounds pyramid depth (the CLI's "-l N"); 0 means
	// "unbounded by the user, fall back to maxLevels(ROI)".
	LevelCap int

	// OneAtATime records the CLI's "-s". Overlays are always blended one at
	// a time, in input order, and there is no pre-union mode, so nothing
	// downstream reads this field.
	OneAtATime bool

	// Verbosity is the repeatable "-v" flag's count.
	Verbosity int

	// StitchThreshold is the reserved "-t FLOAT" option: accepted and
	// range-checked into [0.0, 1.0] but otherwise unused (spec.md §9 Open
	// Questions).
	StitchThreshold float64

	// DistanceNorm selects the mask tie-break's distance metric.
	DistanceNorm mask.DistanceNorm

	// TempDir overrides the directory TileStore creates its backing files
	// in; empty means the process's default temp directory.
	TempDir string
}

// Default returns the zero-value-safe baseline: no wraparound, unbounded
// depth, sequential-by-default off, silent, threshold 0, Euclidean
// tie-break norm, default temp directory.
func Default() Config {
	return Config{
		DistanceNorm: mask.Euclidean,
	}
}

// LoadEnvDefaults reads path (a .multiblend.env-style file, if present) via
// godotenv and applies any MULTIBLEND_* variables it sets as defaults onto
// cfg, returning the updated value. A missing file is not an error: the
// caller falls back to whatever Config it already built. Flags parsed by
// the caller after this call still win, matching godotenv.Load's usual
// "does not override already-set values" convention applied at the flag
// layer instead of the environment layer.
func LoadEnvDefaults(cfg Config, path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return cfg, err
	}

	if v, ok := vars["MULTIBLEND_WRAPAROUND"]; ok {
		cfg.Wraparound = v == "1" || v == "true"
	}
	if v, ok := vars["MULTIBLEND_LEVEL_CAP"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LevelCap = n
		}
	}
	if v, ok := vars["MULTIBLEND_ONE_AT_A_TIME"]; ok {
		cfg.OneAtATime = v == "1" || v == "true"
	}
	if v, ok := vars["MULTIBLEND_VERBOSITY"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbosity = n
		}
	}
	if v, ok := vars["MULTIBLEND_THRESHOLD"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StitchThreshold = f
		}
	}
	if v, ok := vars["MULTIBLEND_TEMP_DIR"]; ok {
		cfg.TempDir = v
	}

	return cfg, nil
}

// ValidateThreshold range-checks StitchThreshold into spec.md §6's
// documented [0.0, 1.0] bound.
func ValidateThreshold(t float64) error {
	if t < 0.0 || t > 1.0 {
		return blenderr.Wrap(blenderr.ErrArgs, "-t must lie in [0.0, 1.0]", nil)
	}
	return nil
}
