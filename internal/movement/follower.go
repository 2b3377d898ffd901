package movement

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/udisondev/rtsnav/internal/avoid"
	"github.com/udisondev/rtsnav/internal/geom"
	"github.com/udisondev/rtsnav/internal/nav"
)

// Config holds per-follower movement tuning.
type Config struct {
	MaxSpeed         float64
	MaxAcceleration  float64
	MaxTurnRate      float64 // radians per second
	SlowdownRadius   float64
	StoppingDistance float64
	FormationWeight  float64 // 0 = pure flow, 1 = pure direct-to-slot
	AvoidanceWeight  float64
	Radius           float64
}

// Follower is the continuous per-tick movement controller of one agent.
// It blends the flow direction, the direct vector to its formation slot,
// arrival slowdown and local avoidance into an acceleration-limited
// velocity, then lets the body integrate. Not a state machine: every tick
// recomputes the desired velocity from current state.
//
// The manager and avoider are shared collaborators, never owned.
type Follower struct {
	id      uint32
	body    Body
	manager *nav.Manager
	avoider *avoid.Avoider
	cfg     Config

	destination geom.Vec2
	offset      geom.Vec2
	hasDest     bool
	disabled    bool

	// reached is atomic so progress observers can poll arrival from
	// outside the logic goroutine.
	reached atomic.Bool
}

// NewFollower creates a follower steering body. A nil manager disables the
// follower's own movement instead of faulting the whole simulation.
func NewFollower(id uint32, body Body, manager *nav.Manager, avoider *avoid.Avoider, cfg Config) *Follower {
	f := &Follower{
		id:      id,
		body:    body,
		manager: manager,
		avoider: avoider,
		cfg:     cfg,
	}
	if manager == nil || body == nil {
		f.disabled = true
		slog.Warn("follower disabled: missing collaborator",
			"id", id,
			"hasManager", manager != nil,
			"hasBody", body != nil)
	}
	return f
}

// ID returns the follower's object ID.
func (f *Follower) ID() uint32 { return f.id }

// Position implements spatial.Unit.
func (f *Follower) Position() geom.Vec2 { return f.body.Position() }

// Velocity implements spatial.Unit.
func (f *Follower) Velocity() geom.Vec2 { return f.body.Velocity() }

// Radius implements spatial.Unit.
func (f *Follower) Radius() float64 { return f.cfg.Radius }

// Body returns the steered physical body.
func (f *Follower) Body() Body { return f.body }

// Reached reports whether the follower has arrived at its formation slot
// (destination plus offset). Safe to call from any goroutine.
func (f *Follower) Reached() bool { return f.reached.Load() }

// SetDestination points the follower at a new destination and triggers
// field generation for it. Generation happens here, on actual change, not
// per tick. A destination with no reachable field still parks the
// follower in "no guidance" mode: it will stop rather than move blindly.
func (f *Follower) SetDestination(pos geom.Vec2) {
	if f.disabled {
		return
	}
	f.destination = pos
	f.hasDest = true
	f.reached.Store(false)

	if _, err := f.manager.GenerateFlowField(pos); err != nil {
		slog.Warn("no flow field for destination",
			"id", f.id,
			"dest", pos,
			"err", err)
	}
}

// SetFormationOffset sets the follower's slot relative to the shared
// group destination.
func (f *Follower) SetFormationOffset(offset geom.Vec2) {
	f.offset = offset
}

// Stop clears the destination; velocity decays to zero through the usual
// smoothing instead of snapping.
func (f *Follower) Stop() {
	f.hasDest = false
	f.reached.Store(false)
}

// HasPathToDestination reports whether the current destination is
// reachable from the follower's position.
func (f *Follower) HasPathToDestination() bool {
	if f.disabled || !f.hasDest {
		return false
	}
	// A blocked destination cell may still have been remapped to a nearby
	// walkable stand-in, so the integration cost is the deciding check.
	return !math.IsInf(f.GetPathDistance(), 1)
}

// GetPathDistance returns the integration cost from the follower's
// position toward its destination, +Inf when unreachable.
func (f *Follower) GetPathDistance() float64 {
	if f.disabled || !f.hasDest {
		return math.Inf(1)
	}
	return f.manager.PathCost(f.body.Position(), f.destination)
}

// Tick advances the controller by dt seconds: sample flow, blend with the
// direct-to-slot vector, apply arrival slowdown and avoidance, smooth the
// velocity under the acceleration cap, integrate, and turn the heading at
// a bounded rate.
func (f *Follower) Tick(dt float64) {
	if f.disabled {
		return
	}

	desired := f.desiredVelocity()

	vel := f.body.Velocity()
	delta := desired.Sub(vel).ClampLength(f.cfg.MaxAcceleration * dt)
	vel = vel.Add(delta).ClampLength(f.cfg.MaxSpeed)

	f.body.SetVelocity(vel)
	f.body.Integrate(dt)

	if vel.LengthSquared() > 1e-6 {
		f.body.TurnToward(math.Atan2(vel.Y, vel.X), f.cfg.MaxTurnRate*dt)
	}
}

// desiredVelocity computes the raw steering target for this tick.
func (f *Follower) desiredVelocity() geom.Vec2 {
	if !f.hasDest || f.reached.Load() {
		return geom.Vec2{}
	}

	pos := f.body.Position()
	target := f.destination.Add(f.offset)
	if pos.Distance(target) < f.cfg.StoppingDistance {
		f.reached.Store(true)
		slog.Debug("follower arrived", "id", f.id, "dest", f.destination, "offset", f.offset)
		return geom.Vec2{}
	}

	flow := f.manager.SampleFlowDirection(pos, f.destination)
	if flow.IsZero() {
		// Stale or evicted field: regenerate (cheap when already current)
		// and resample once. Still zero means "no guidance here".
		if _, err := f.manager.GenerateFlowField(f.destination); err == nil {
			flow = f.manager.SampleFlowDirection(pos, f.destination)
		}
	}

	direct := target.Sub(pos).Normalized()

	// Direct-to-slot influence grows as the follower closes in: far out
	// the field steers around obstacles, near the slot the direct pull
	// takes over so members settle into formation instead of orbiting
	// the shared destination cell.
	w := f.cfg.FormationWeight
	if d := pos.Distance(target); d < f.cfg.SlowdownRadius {
		ramp := 1 - d/f.cfg.SlowdownRadius
		w += (1 - w) * ramp
	}
	blended := flow.Scale(1 - w).Add(direct.Scale(w))
	if flow.IsZero() {
		// No guidance from the field. Fall back to a straight-line attempt
		// only when the next step stays walkable, otherwise stand still.
		if !f.manager.IsWalkable(pos.Add(direct.Scale(f.cfg.Radius * 2))) {
			return geom.Vec2{}
		}
		blended = direct
	}

	desired := blended.Normalized().Scale(f.cfg.MaxSpeed)

	slow := pos.Distance(target) / f.cfg.SlowdownRadius
	if slow > 1 {
		slow = 1
	}
	desired = desired.Scale(slow)

	if f.avoider != nil {
		av := f.avoider.CalculateAvoidanceVelocity(f)
		if av.IsZero() {
			av = f.avoider.CalculateSeparationVelocity(f)
		}
		desired = desired.Add(av.Scale(f.cfg.AvoidanceWeight * f.cfg.MaxSpeed))
	}

	return desired.ClampLength(f.cfg.MaxSpeed)
}
