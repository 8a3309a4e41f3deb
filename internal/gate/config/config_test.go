package config

import (
	"errors"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	orig := envLoader
	defer func() { envLoader = orig }()
	envLoader = func(k *koanf.Koanf) error { return nil }

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_APP_CONFIG, *cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GATE_ENV", "dev")
	t.Setenv("GATE_LOG_LEVEL", "debug")
	t.Setenv("GATE_GRACE_SECONDS", "600")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 600, cfg.GraceSeconds)
	// Untouched values keep their defaults.
	assert.Equal(t, DEFAULT_APP_CONFIG.DataDir, cfg.DataDir)
}

func TestLoad_ValidationFailure(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad env", key: "GATE_ENV", value: "staging"},
		{name: "bad log level", key: "GATE_LOG_LEVEL", value: "verbose"},
		{name: "zero grace", key: "GATE_GRACE_SECONDS", value: "0"},
		{name: "grace beyond a day", key: "GATE_GRACE_SECONDS", value: "90000"},
		{name: "tiny session cache", key: "GATE_SESSION_CACHE_SIZE", value: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoad_DefaultLoaderFailure(t *testing.T) {
	orig := defaultLoader
	defer func() { defaultLoader = orig }()
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("boom") }

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading default config")
}

func TestLoad_EnvLoaderFailure(t *testing.T) {
	orig := envLoader
	defer func() { envLoader = orig }()
	envLoader = func(k *koanf.Koanf) error { return errors.New("boom") }

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading env")
}
