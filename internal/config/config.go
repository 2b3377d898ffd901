package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Simulation holds all tuning for the navigation core and the sim loop.
type Simulation struct {
	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// World grid
	Grid GridConfig `yaml:"grid"`

	// Per-follower movement tuning
	Movement MovementConfig `yaml:"movement"`

	// Local avoidance tuning
	Avoidance AvoidanceConfig `yaml:"avoidance"`

	// Sim loop
	TickRate         int     `yaml:"tick_rate"`          // ticks per second
	CorpseDelayTicks int     `yaml:"corpse_delay_ticks"` // ticks before a dead follower is removed
	FieldCacheSize   int     `yaml:"field_cache_size"`   // max cached flow fields
	MaxRingSearch    int     `yaml:"max_ring_search"`    // rings scanned for a walkable stand-in destination
	SpatialCellSize  float64 `yaml:"spatial_cell_size"`  // hash grid cell size == avoidance radius
}

// GridConfig describes the cost grid built at level load.
type GridConfig struct {
	MinX     float64 `yaml:"min_x"`
	MinY     float64 `yaml:"min_y"`
	MaxX     float64 `yaml:"max_x"`
	MaxY     float64 `yaml:"max_y"`
	CellSize float64 `yaml:"cell_size"`
}

// MovementConfig holds per-follower controller tuning.
type MovementConfig struct {
	MaxSpeed         float64 `yaml:"max_speed"`
	MaxAcceleration  float64 `yaml:"max_acceleration"`
	MaxTurnRate      float64 `yaml:"max_turn_rate"` // radians per second
	SlowdownRadius   float64 `yaml:"slowdown_radius"`
	StoppingDistance float64 `yaml:"stopping_distance"`
	FormationWeight  float64 `yaml:"formation_weight"` // 0 = pure flow, 1 = pure direct-to-slot
	AvoidanceWeight  float64 `yaml:"avoidance_weight"`
}

// AvoidanceConfig holds predictive-avoidance tuning.
type AvoidanceConfig struct {
	QueryRadius      float64 `yaml:"query_radius"`
	TimeHorizon      float64 `yaml:"time_horizon"` // seconds
	SeparationRadius float64 `yaml:"separation_radius"`
	AgentRadius      float64 `yaml:"agent_radius"`
}

// DefaultSimulation returns Simulation config with sensible defaults.
func DefaultSimulation() Simulation {
	return Simulation{
		LogLevel: "info",
		Grid: GridConfig{
			MinX:     0,
			MinY:     0,
			MaxX:     256,
			MaxY:     256,
			CellSize: 1,
		},
		Movement: MovementConfig{
			MaxSpeed:         6,
			MaxAcceleration:  24,
			MaxTurnRate:      8,
			SlowdownRadius:   4,
			StoppingDistance: 0.5,
			FormationWeight:  0.35,
			AvoidanceWeight:  1.5,
		},
		Avoidance: AvoidanceConfig{
			QueryRadius:      4,
			TimeHorizon:      2,
			SeparationRadius: 1.2,
			AgentRadius:      0.5,
		},
		TickRate:         20,
		CorpseDelayTicks: 100,
		FieldCacheSize:   16,
		MaxRingSearch:    8,
		SpatialCellSize:  4,
	}
}

// LoadSimulation loads simulation config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSimulation(path string) (Simulation, error) {
	cfg := DefaultSimulation()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks invariants that would break the grid or the loop.
func (c Simulation) Validate() error {
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("grid cell_size must be positive, got %v", c.Grid.CellSize)
	}
	if c.Grid.MaxX <= c.Grid.MinX || c.Grid.MaxY <= c.Grid.MinY {
		return fmt.Errorf("grid bounds are empty: (%v,%v)-(%v,%v)",
			c.Grid.MinX, c.Grid.MinY, c.Grid.MaxX, c.Grid.MaxY)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", c.TickRate)
	}
	if c.Movement.MaxSpeed <= 0 {
		return fmt.Errorf("max_speed must be positive, got %v", c.Movement.MaxSpeed)
	}
	if c.Movement.MaxAcceleration <= 0 {
		return fmt.Errorf("max_acceleration must be positive, got %v", c.Movement.MaxAcceleration)
	}
	if c.Movement.SlowdownRadius <= 0 {
		return fmt.Errorf("slowdown_radius must be positive, got %v", c.Movement.SlowdownRadius)
	}
	if c.Movement.StoppingDistance <= 0 {
		return fmt.Errorf("stopping_distance must be positive, got %v", c.Movement.StoppingDistance)
	}
	if c.Avoidance.TimeHorizon <= 0 {
		return fmt.Errorf("time_horizon must be positive, got %v", c.Avoidance.TimeHorizon)
	}
	if c.FieldCacheSize <= 0 {
		return fmt.Errorf("field_cache_size must be positive, got %d", c.FieldCacheSize)
	}
	if c.SpatialCellSize <= 0 {
		return fmt.Errorf("spatial_cell_size must be positive, got %v", c.SpatialCellSize)
	}
	return nil
}
