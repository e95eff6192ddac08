package config

import (
	"context"
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
//  2. file (YAML) if BACKLOG_CONFIG is set
//  3. env (prefix BACKLOG_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("BACKLOG_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: BACKLOG_ADDR, BACKLOG_STORAGE_BACKEND, ...
	// Map env keys like BACKLOG_STORAGE_BACKEND -> storage_backend (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("BACKLOG_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "backlog_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch cfg.StorageBackend {
	case BackendMemory, BackendSQLite:
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, cfg.StorageBackend)
	}
	if cfg.StorageBackend == BackendSQLite && cfg.SQLitePath == "" {
		return nil, fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	}
	if cfg.QueueBasePosition < 0 {
		return nil, fmt.Errorf("%w: queue_base_position must not be negative", ErrInvalidConfig)
	}
	return &cfg, nil
}
