package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Game.TotalRounds)
	assert.Equal(t, 240, cfg.Game.GameTimerSec)
	assert.Equal(t, 30, cfg.Game.PersonalTimerSec)
	assert.Equal(t, 5, cfg.Game.ResultsDelaySec)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
game:
  total_rounds: 14
  game_timer_sec: 300
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 14, cfg.Game.TotalRounds)
	assert.Equal(t, 300, cfg.Game.GameTimerSec)
	// Unset keys keep their defaults.
	assert.Equal(t, 30, cfg.Game.PersonalTimerSec)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("WORDQUEST_PORT", "7070")
	t.Setenv("WORDQUEST_TOTAL_ROUNDS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Game.TotalRounds)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("WORDQUEST_TOTAL_ROUNDS", "0")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
