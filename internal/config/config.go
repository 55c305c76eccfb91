// Package config resolves runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvModelsDir = "CARPRICE_MODELS_DIR"
	EnvDataPath  = "CARPRICE_DATA_PATH"
	EnvAddr      = "CARPRICE_ADDR"
	EnvLogLevel  = "CARPRICE_LOG_LEVEL"
	EnvGinMode   = "GIN_MODE"
)

// Config holds the settings shared by every subcommand. Flags override it.
type Config struct {
	ModelsDir string
	DataPath  string
	Addr      string
	LogLevel  slog.Level
	GinMode   string
}

// Load reads envFiles (".env" when none are given) into the process
// environment without overriding variables already set, then resolves the
// settings. A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", f, err)
		}
	}

	cfg := &Config{
		ModelsDir: getEnv(EnvModelsDir, "models"),
		DataPath:  getEnv(EnvDataPath, "data/CarPrice_Assignment.csv"),
		Addr:      getEnv(EnvAddr, ":8000"),
		GinMode:   getEnv(EnvGinMode, "release"),
	}
	level, err := ParseLevel(getEnv(EnvLogLevel, "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
	}
	return level, nil
}

// NewLogger builds a text logger at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
