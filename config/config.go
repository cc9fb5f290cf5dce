// Package config provides YAML-driven defaults for cmd/deconvolve-cli,
// grounded on AldrinSalazar-mrislicesto3d/pkg/config's DefaultConfig/
// LoadConfig pattern: a struct of defaults that a YAML file may override in
// part, never in full.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI demo's tunable defaults.
type Config struct {
	Reconstruction struct {
		// MaxIterations is the default callback's iteration ceiling. Zero
		// means "use the engine's own default" (engine.DefaultMaxIterations).
		MaxIterations int `yaml:"maxIterations"`

		// Regularize enables TV regularization by default.
		Regularize bool `yaml:"regularize"`

		// SNR overrides automatic peak-SNR estimation when positive.
		SNR float64 `yaml:"snr"`
	} `yaml:"reconstruction"`

	Planner struct {
		// Workers bounds how many goroutines voxel's parallel loops use.
		// Zero means "use runtime.NumCPU()".
		Workers int `yaml:"workers"`
	} `yaml:"planner"`
}

// Default returns a Config with the library's own defaults: automatic SNR,
// regularization off, and all available cores.
func Default() *Config {
	cfg := &Config{}
	cfg.Planner.Workers = runtime.NumCPU()
	return cfg
}

// Load reads a YAML file at path and overlays it onto Default(). A missing
// file is not an error; it yields the unmodified default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
