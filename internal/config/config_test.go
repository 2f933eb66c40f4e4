package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7, cfg.Rules.HandSize)
	assert.True(t, cfg.AutoPlayDrawn)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("UNO_PORT", "9090")
	t.Setenv("UNO_DB_DRIVER", "postgres")
	t.Setenv("UNO_DB_DSN", "host=localhost dbname=uno sslmode=disable")
	t.Setenv("UNO_LOG_LEVEL", "debug")
	t.Setenv("UNO_AUTO_PLAY_DRAWN", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "host=localhost dbname=uno sslmode=disable", cfg.DBDSN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.AutoPlayDrawn)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("UNO_FRONTEND_URL=http://example.test\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("UNO_FRONTEND_URL") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", cfg.FrontendURL)
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "hand_size: 5\nreshuffle_limit: 2\nauto_play_drawn: false\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("UNO_RULES_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Rules.HandSize)
	assert.Equal(t, 2, cfg.Rules.ReshuffleLimit)
	assert.False(t, cfg.AutoPlayDrawn)
}

func TestPartialRulesKeepDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.parseRules([]byte("reshuffle_limit: 3\n")))

	assert.Equal(t, 7, cfg.Rules.HandSize)
	assert.Equal(t, 3, cfg.Rules.ReshuffleLimit)
	assert.True(t, cfg.AutoPlayDrawn)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = "http" }},
		{"driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"level", func(c *Config) { c.LogLevel = "loud" }},
		{"format", func(c *Config) { c.LogFormat = "xml" }},
		{"hand size", func(c *Config) { c.Rules.HandSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	log := cfg.NewLogger()
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
