package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quietpixel/multiblend/internal/mask"
)

func TestDefaultUsesEuclideanNorm(t *testing.T) {
	cfg := Default()
	if cfg.DistanceNorm != mask.Euclidean {
		t.Fatalf("Default().DistanceNorm = %v, want Euclidean", cfg.DistanceNorm)
	}
}

func TestLoadEnvDefaultsMissingFileIsNotAnError(t *testing.T) {
	cfg := Default()
	got, err := LoadEnvDefaults(cfg, filepath.Join(t.TempDir(), "does-not-exist.env"))
	if err != nil {
		t.Fatalf("LoadEnvDefaults with a missing file: %v", err)
	}
	if got != cfg {
		t.Fatalf("LoadEnvDefaults with a missing file changed the config: got %+v, want %+v", got, cfg)
	}
}

func TestLoadEnvDefaultsAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".multiblend.env")
	content := "MULTIBLEND_WRAPAROUND=1\nMULTIBLEND_LEVEL_CAP=4\nMULTIBLEND_VERBOSITY=2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test env file: %v", err)
	}

	cfg, err := LoadEnvDefaults(Default(), path)
	if err != nil {
		t.Fatalf("LoadEnvDefaults: %v", err)
	}
	if !cfg.Wraparound {
		t.Errorf("Wraparound = false, want true")
	}
	if cfg.LevelCap != 4 {
		t.Errorf("LevelCap = %d, want 4", cfg.LevelCap)
	}
	if cfg.Verbosity != 2 {
		t.Errorf("Verbosity = %d, want 2", cfg.Verbosity)
	}
}

func TestValidateThreshold(t *testing.T) {
	if err := ValidateThreshold(0.5); err != nil {
		t.Errorf("ValidateThreshold(0.5) = %v, want nil", err)
	}
	if err := ValidateThreshold(-0.1); err == nil {
		t.Errorf("ValidateThreshold(-0.1) = nil, want an error")
	}
	if err := ValidateThreshold(1.1); err == nil {
		t.Errorf("ValidateThreshold(1.1) = nil, want an error")
	}
}
