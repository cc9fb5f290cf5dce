package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reconstruction.MaxIterations != 0 {
		t.Fatalf("MaxIterations = %d, want 0 (engine default)", cfg.Reconstruction.MaxIterations)
	}
	if cfg.Planner.Workers <= 0 {
		t.Fatalf("Workers = %d, want > 0", cfg.Planner.Workers)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "reconstruction:\n  maxIterations: 50\n  regularize: true\n  snr: 12.5\nplanner:\n  workers: 2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reconstruction.MaxIterations != 50 {
		t.Fatalf("MaxIterations = %d, want 50", cfg.Reconstruction.MaxIterations)
	}
	if !cfg.Reconstruction.Regularize {
		t.Fatalf("Regularize = false, want true")
	}
	if cfg.Reconstruction.SNR != 12.5 {
		t.Fatalf("SNR = %v, want 12.5", cfg.Reconstruction.SNR)
	}
	if cfg.Planner.Workers != 2 {
		t.Fatalf("Workers = %d, want 2", cfg.Planner.Workers)
	}
}
