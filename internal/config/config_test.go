package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSimulationMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadSimulation("does/not/exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulation(), cfg)
}

func TestLoadSimulationOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	data := `
log_level: debug
tick_rate: 60
grid:
  min_x: -100
  min_y: -100
  max_x: 100
  max_y: 100
  cell_size: 2
movement:
  max_speed: 8
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadSimulation(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, -100.0, cfg.Grid.MinX)
	assert.Equal(t, 2.0, cfg.Grid.CellSize)
	assert.Equal(t, 8.0, cfg.Movement.MaxSpeed)

	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultSimulation().Avoidance, cfg.Avoidance)
}

func TestLoadSimulationRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  cell_size: -1\n"), 0o644))

	_, err := LoadSimulation(path)
	assert.Error(t, err)
}

func TestLoadSimulationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{не yaml"), 0o644))

	_, err := LoadSimulation(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultSimulation()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.TickRate = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Grid.MaxX = bad.Grid.MinX
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Movement.MaxSpeed = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Movement.MaxAcceleration = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Movement.SlowdownRadius = 0
	assert.Error(t, bad.Validate(), "zero slowdown radius divides the arrival slowdown by zero")

	bad = cfg
	bad.Movement.StoppingDistance = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.FieldCacheSize = 0
	assert.Error(t, bad.Validate())
}
