package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUBGARDEN_DATABASE__URL", "postgres://localhost:5432/subgarden")
	t.Setenv("SUBGARDEN_AUTH__JWT_SECRET", "secret")
	t.Setenv("SUBGARDEN_AUTH__PASSWORD", "hunter2")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Checker.Interval)
	assert.Equal(t, 7, cfg.Checker.DefaultReminderDays)
	assert.True(t, cfg.Checker.Enabled)
	assert.Equal(t, "admin", cfg.Auth.Username)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	path := writeConfigFile(t, `
server:
  port: "9000"
log:
  level: debug
checker:
  interval: 30m
  default_reminder_days: 14
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Checker.Interval)
	assert.Equal(t, 14, cfg.Checker.DefaultReminderDays)
	// Untouched keys keep their defaults.
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	path := writeConfigFile(t, `
log:
  level: debug
`)
	t.Setenv("SUBGARDEN_LOG__LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_MissingRequiredValues(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"database url", "SUBGARDEN_DATABASE__URL", "database.url is required"},
		{"jwt secret", "SUBGARDEN_AUTH__JWT_SECRET", "auth.jwt_secret is required"},
		{"admin password", "SUBGARDEN_AUTH__PASSWORD", "auth.password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}
