package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PULSE_CONFIG is set
//  3. env (prefix PULSE_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PULSE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: PULSE_DATA_DIR, PULSE_QUEUE_SIZE, ...
	// Map env keys like PULSE_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PULSE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "pulse_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if cfg.OutputFile == "" {
		return nil, fmt.Errorf("%w: output_file must not be empty", ErrInvalidConfig)
	}
	return &cfg, nil
}
