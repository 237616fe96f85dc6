package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileWritesTemplateAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "5", cfg.Trading.Resolution)
	assert.Equal(t, time.Minute, cfg.PollInterval())
	assert.Equal(t, 100000.0, cfg.Risk.InitialCapital)
	assert.Equal(t, 10.0, cfg.Risk.PositionSizePercent)
	assert.Equal(t, 5, cfg.Risk.MaxPositions)
	assert.Equal(t, "info", cfg.Logging.Level)

	// A template must be left behind for the user to edit
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)
}

func TestLoad_ReadsValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
resolution = "15"
poll_interval_seconds = 30

[risk]
initial_capital = 500000.0
position_size_percent = 25.0
max_positions = 3

[storage]
db_path = "/tmp/custom.db"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "15", cfg.Trading.Resolution)
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.Equal(t, 500000.0, cfg.Risk.InitialCapital)
	assert.Equal(t, 25.0, cfg.Risk.PositionSizePercent)
	assert.Equal(t, 3, cfg.Risk.MaxPositions)
	// Unset keys fall back to defaults
	assert.Equal(t, 2.0, cfg.Risk.StopLossPercent)
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath(dir))
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_RESOLUTION", "60")
	t.Setenv("TRADER_INITIAL_CAPITAL", "250000")
	t.Setenv("TRADER_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "60", cfg.Trading.Resolution)
	assert.Equal(t, 250000.0, cfg.Risk.InitialCapital)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	content := `
[risk]
position_size_percent = 150.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position_size_percent")
}

func TestDBPath_DefaultsToConfigDir(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, filepath.Join("/some/dir", "sessions.db"), cfg.DBPath("/some/dir"))
}
