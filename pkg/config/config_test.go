package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Store:               "memory",
		LegacySource:        "file",
		LegacyFile:          "legacy.yaml",
		AdminKey:            "admin-secret",
		MasterKey:           "master-secret",
		ActivationThreshold: 70,
		LogLevel:            "info",
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("STORE", "sqlite")
	t.Setenv("ADMIN_KEY", "a")
	t.Setenv("MASTER_KEY", "m")
	t.Setenv("STEP_DELAY", "250ms")
	t.Setenv("ACTIVATION_THRESHOLD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 70, cfg.ActivationThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.StepDelay)
	assert.Equal(t, "market_cutover", cfg.MySQL.Name)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("ACTIVATION_THRESHOLD", "seventy")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: "unsupported store"},
		{name: "missing admin key", mutate: func(c *Config) { c.AdminKey = "" }, wantErr: "ADMIN_KEY is required"},
		{name: "same keys", mutate: func(c *Config) { c.MasterKey = c.AdminKey }, wantErr: "must differ"},
		{name: "threshold", mutate: func(c *Config) { c.ActivationThreshold = 101 }, wantErr: "ACTIVATION_THRESHOLD"},
		{name: "zero threshold", mutate: func(c *Config) { c.ActivationThreshold = 0 }, wantErr: "within 1..100"},
		{name: "mysql legacy without dsn", mutate: func(c *Config) { c.LegacySource = "mysql" }, wantErr: "LEGACY_MYSQL_DSN"},
		{name: "tls cert without key", mutate: func(c *Config) { c.TLSCert = "cert.pem" }, wantErr: "set together"},
		{name: "client ca without tls", mutate: func(c *Config) { c.ClientCA = "ca.pem" }, wantErr: "CLIENT_CA requires"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Store = "bolt"
	cfg.AdminKey = ""
	cfg.MasterKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 errors occurred")
}

func TestNewLogger(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = "console"
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
