package utilities

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, levelFromString(in), in)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_FILE_MAX_AGE", "48")
	t.Setenv("LOG_FILE_ROTATION", "30m")

	cfg := ConfigFromEnv()
	assert.True(t, cfg.Dev)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, 48*time.Hour, cfg.FileMaxAge)
	assert.Equal(t, 30*time.Minute, cfg.FileRotation)

	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_FILE_ROTATION", "nope")
	cfg = ConfigFromEnv()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 24*time.Hour, cfg.FileRotation)
}

func TestInitWithRotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taskbite.log")
	lg, err := Init(Config{Level: "debug", File: file})
	require.NoError(t, err)
	lg.Sugar().Infow("hello", "k", "v")
	_ = lg.Sync()

	matches, err := filepath.Glob(file + ".*")
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}
