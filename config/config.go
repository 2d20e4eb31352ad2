// Package config loads the CLI harness configuration. The library
// packages take explicit options; only cmd/eext-sim reads this file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the harness configuration.
type Config struct {
	Engine  Engine  `yaml:"engine"`
	Logging Logging `yaml:"logging"`
}

// Engine configures payload resolution and the engine runtime.
type Engine struct {
	// MainPath and SidePath are the logical payload paths handed to the
	// loader's resolution chain.
	MainPath string `yaml:"mainPath"`
	SidePath string `yaml:"sidePath"`

	// FetchBaseURL enables the network-fetch fallback when set.
	FetchBaseURL string `yaml:"fetchBaseUrl"`

	// MemoryLimitPages caps engine memory in 64KB pages. 0 keeps the
	// runtime default.
	MemoryLimitPages uint32 `yaml:"memoryLimitPages"`
}

// Logging configures the harness logger.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: Engine{
			MainPath: "ngspice.wasm",
			SidePath: "ngspice-models.so",
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads a YAML configuration file, layering it over the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	if c.Engine.MainPath == "" {
		return fmt.Errorf("engine.mainPath must not be empty")
	}
	return nil
}
