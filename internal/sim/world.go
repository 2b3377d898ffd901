// Package sim owns the simulation world: the cost grid, the flow-field
// manager, the spatial index, the shared avoider and every follower. All
// mutation happens on the single logic goroutine driving Step.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/udisondev/rtsnav/internal/avoid"
	"github.com/udisondev/rtsnav/internal/config"
	"github.com/udisondev/rtsnav/internal/geom"
	"github.com/udisondev/rtsnav/internal/movement"
	"github.com/udisondev/rtsnav/internal/nav"
	"github.com/udisondev/rtsnav/internal/spatial"
)

// World wires the navigation core together and steps it at a fixed rate.
type World struct {
	cfg config.Simulation

	grid      *nav.CostGrid
	registrar *nav.Registrar
	manager   *nav.Manager
	hashGrid  *spatial.HashGrid
	avoider   *avoid.Avoider

	followers map[uint32]*movement.Follower
	order     []*movement.Follower // tick order, stable across frames
	corpses   map[uint32]int       // follower id → ticks until removal
	obstacles []*nav.Obstacle

	nextID uint32

	// tick is atomic so observer goroutines can poll progress while Run
	// holds the logic goroutine. Everything else stays confined.
	tick atomic.Uint64

	stopCh chan struct{}
}

// NewWorld builds a world from config: grid allocated over the configured
// bounds, every collaborator injected explicitly.
func NewWorld(cfg config.Simulation) (*World, error) {
	bounds := geom.NewAABB(
		geom.Vec2{X: cfg.Grid.MinX, Y: cfg.Grid.MinY},
		geom.Vec2{X: cfg.Grid.MaxX, Y: cfg.Grid.MaxY},
	)
	grid, err := nav.NewCostGrid(bounds, cfg.Grid.CellSize)
	if err != nil {
		return nil, fmt.Errorf("creating cost grid: %w", err)
	}

	hashGrid := spatial.NewHashGrid(cfg.SpatialCellSize)

	w := &World{
		cfg:       cfg,
		grid:      grid,
		registrar: nav.NewRegistrar(grid),
		manager:   nav.NewManager(grid, cfg.FieldCacheSize, cfg.MaxRingSearch),
		hashGrid:  hashGrid,
		avoider: avoid.NewAvoider(hashGrid,
			cfg.Avoidance.QueryRadius,
			cfg.Avoidance.TimeHorizon,
			cfg.Avoidance.SeparationRadius),
		followers: make(map[uint32]*movement.Follower),
		corpses:   make(map[uint32]int),
		stopCh:    make(chan struct{}),
	}

	slog.Info("world created",
		"gridWidth", grid.Width(),
		"gridHeight", grid.Height(),
		"cellSize", grid.CellSize())
	return w, nil
}

// Manager returns the flow-field manager.
func (w *World) Manager() *nav.Manager { return w.manager }

// Registrar returns the obstacle registrar.
func (w *World) Registrar() *nav.Registrar { return w.registrar }

// Tick returns the number of completed steps. Safe to call from any
// goroutine.
func (w *World) Tick() uint64 { return w.tick.Load() }

// AddObstacle creates, registers and tracks an obstacle so Teardown can
// release it exactly once.
func (w *World) AddObstacle(kind nav.ObstacleKind, provider nav.BoundsProvider, cost uint8, padding float64) *nav.Obstacle {
	o := nav.NewObstacle(kind, provider, cost, padding)
	w.registrar.Register(o)
	w.obstacles = append(w.obstacles, o)
	return o
}

// SpawnFollower creates a follower at pos and enters it into the spatial
// index.
func (w *World) SpawnFollower(pos geom.Vec2) *movement.Follower {
	w.nextID++
	body := movement.NewKinematicBody(pos, 0)
	f := movement.NewFollower(w.nextID, body, w.manager, w.avoider, movement.Config{
		MaxSpeed:         w.cfg.Movement.MaxSpeed,
		MaxAcceleration:  w.cfg.Movement.MaxAcceleration,
		MaxTurnRate:      w.cfg.Movement.MaxTurnRate,
		SlowdownRadius:   w.cfg.Movement.SlowdownRadius,
		StoppingDistance: w.cfg.Movement.StoppingDistance,
		FormationWeight:  w.cfg.Movement.FormationWeight,
		AvoidanceWeight:  w.cfg.Movement.AvoidanceWeight,
		Radius:           w.cfg.Avoidance.AgentRadius,
	})

	w.followers[f.ID()] = f
	w.order = append(w.order, f)
	w.hashGrid.Add(f)

	slog.Debug("follower spawned", "id", f.ID(), "pos", pos)
	return f
}

// Follower returns a live follower by ID, nil when unknown or dead.
func (w *World) Follower(id uint32) *movement.Follower {
	if _, dead := w.corpses[id]; dead {
		return nil
	}
	return w.followers[id]
}

// FollowerCount returns the number of live followers.
func (w *World) FollowerCount() int {
	return len(w.followers) - len(w.corpses)
}

// KillFollower stops a follower and schedules its removal after the
// configured corpse delay, ticked by the world itself.
func (w *World) KillFollower(id uint32) {
	f, ok := w.followers[id]
	if !ok {
		return
	}
	if _, dead := w.corpses[id]; dead {
		return
	}
	f.Stop()
	w.hashGrid.Remove(f)
	w.corpses[id] = w.cfg.CorpseDelayTicks

	slog.Debug("follower killed", "id", id, "removalIn", w.cfg.CorpseDelayTicks)
}

// Step advances the simulation one fixed timestep. The order is a hard
// dependency: the spatial index is rebuilt from current positions before
// any follower's avoidance query runs this frame. Obstacle mutations have
// already hit the grid through the registrar by the time Step is called.
func (w *World) Step(dt float64) {
	w.hashGrid.Rebuild()

	for _, f := range w.order {
		if _, dead := w.corpses[f.ID()]; dead {
			continue
		}
		f.Tick(dt)
	}

	w.expireCorpses()
	w.tick.Add(1)
}

// expireCorpses counts delayed removals down and deletes the expired ones.
func (w *World) expireCorpses() {
	for id, ticks := range w.corpses {
		if ticks > 1 {
			w.corpses[id] = ticks - 1
			continue
		}
		delete(w.corpses, id)
		f := w.followers[id]
		delete(w.followers, id)
		for i, other := range w.order {
			if other == f {
				w.order = append(w.order[:i], w.order[i+1:]...)
				break
			}
		}
		slog.Debug("follower removed", "id", id)
	}
}

// Run steps the world on a fixed-timestep ticker until the context is
// canceled or Stop is called.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRate)
	dt := interval.Seconds()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("world loop started", "tickRate", w.cfg.TickRate)

	for {
		select {
		case <-ctx.Done():
			slog.Info("world loop stopping", "tick", w.tick.Load())
			return ctx.Err()
		case <-w.stopCh:
			slog.Info("world loop stopped", "tick", w.tick.Load())
			return nil
		case <-ticker.C:
			w.Step(dt)
		}
	}
}

// Stop ends the Run loop.
func (w *World) Stop() {
	close(w.stopCh)
}

// Teardown releases every tracked obstacle exactly once and drops all
// followers. Safe to defer alongside Stop.
func (w *World) Teardown() {
	for _, o := range w.obstacles {
		w.registrar.Release(o)
	}
	w.obstacles = nil
	w.followers = make(map[uint32]*movement.Follower)
	w.order = nil
	w.corpses = make(map[uint32]int)

	slog.Info("world torn down", "tick", w.tick.Load())
}
