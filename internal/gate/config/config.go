package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// DataDir is the directory holding the state database.
	DataDir string `koanf:"data_dir" validate:"required"`

	// RulesPath is where the compiled rule set is exported for the host
	// platform to enforce.
	RulesPath string `koanf:"rules_path" validate:"required"`

	// GraceSeconds is the single grace-period policy constant: how long a
	// successful unlock keeps a target passable before it re-locks.
	GraceSeconds int `koanf:"grace_seconds" validate:"required,gte=1,lte=86400"`

	// SessionCacheSize bounds the unlock session table. Abandoned sessions
	// fall out of the table by LRU eviction.
	SessionCacheSize int `koanf:"session_cache_size" validate:"required,gte=8"`

	// RecomputeBackoffMs is how long the rule compiler waits before
	// retrying a failed rule push.
	RecomputeBackoffMs int `koanf:"recompute_backoff_ms" validate:"required,gte=1"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// blocking engine: environment, logging, state locations, and the canonical
// grace period (5 minutes).
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                "prod",
	LogLevel:           "info",
	DataDir:            "/var/lib/focusgate/",
	RulesPath:          "/var/lib/focusgate/rules.json",
	GraceSeconds:       300,
	SessionCacheSize:   128,
	RecomputeBackoffMs: 500,
}

// envLoader loads environment variables with the prefix "GATE_".
// It transforms keys to lowercase and removes the prefix,
// and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "GATE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "GATE_"))
			value = strings.TrimSpace(value)
			return key, value
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf
// instance using the structs provider and DEFAULT_APP_CONFIG.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
