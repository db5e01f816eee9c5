// Package config loads the CLI-wide options file: output directory,
// logging verbosity and the worker pool size used by the batch plan
// runner. It is intentionally small; per-tune relocation parameters
// live in the plan file, not here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds options that apply across an entire invocation of the
// CLI rather than to one tune.
type Config struct {
	OutDir   string `yaml:"out_dir"`
	Debug    bool   `yaml:"debug"`
	Parallel int    `yaml:"parallel"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{OutDir: ".", Debug: false, Parallel: 1}
}

// Load reads a YAML config file from path, starting from Default() so
// that a file only needs to mention the fields it wants to override.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	return cfg, nil
}
