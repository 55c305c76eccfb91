package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvModelsDir, EnvDataPath, EnvAddr, EnvLogLevel, EnvGinMode} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "models", cfg.ModelsDir)
	assert.Equal(t, "data/CarPrice_Assignment.csv", cfg.DataPath)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	// godotenv skips variables that are present, even when empty.
	os.Unsetenv(EnvModelsDir)
	os.Unsetenv(EnvLogLevel)
	t.Cleanup(func() { os.Unsetenv(EnvModelsDir); os.Unsetenv(EnvLogLevel) })
	t.Setenv(EnvAddr, ":9090")

	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("CARPRICE_MODELS_DIR=/srv/models\nCARPRICE_LOG_LEVEL=DEBUG\nCARPRICE_ADDR=:1\n"), 0o644))

	cfg, err := Load(env)
	require.NoError(t, err)
	assert.Equal(t, "/srv/models", cfg.ModelsDir)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Addr, "process env wins over the file")
}

func TestBadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "loud")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelWarn}
	log := cfg.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
