package movement

import (
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
)

// Body is the physical-body collaborator a follower steers. It owns the
// agent's position, planar velocity and yaw; the movement core never
// simulates physics itself, it only writes velocity and asks the body to
// integrate.
type Body interface {
	Position() geom.Vec2
	Velocity() geom.Vec2
	Heading() float64 // yaw in radians

	SetVelocity(v geom.Vec2)
	// Integrate advances position by velocity over dt.
	Integrate(dt float64)
	// TurnToward rotates the yaw toward target by at most maxDelta radians.
	TurnToward(target, maxDelta float64)
}

// KinematicBody is the baseline Body: straight kinematic integration with
// a bounded turn rate. Used by the simulator and tests; a real physics
// body can replace it behind the same interface.
type KinematicBody struct {
	pos     geom.Vec2
	vel     geom.Vec2
	heading float64
}

// NewKinematicBody creates a body at pos facing heading radians.
func NewKinematicBody(pos geom.Vec2, heading float64) *KinematicBody {
	return &KinematicBody{pos: pos, heading: heading}
}

// Position returns the current world position.
func (b *KinematicBody) Position() geom.Vec2 { return b.pos }

// Velocity returns the current planar velocity.
func (b *KinematicBody) Velocity() geom.Vec2 { return b.vel }

// Heading returns the current yaw in radians.
func (b *KinematicBody) Heading() float64 { return b.heading }

// SetVelocity overwrites the planar velocity.
func (b *KinematicBody) SetVelocity(v geom.Vec2) { b.vel = v }

// SetPosition teleports the body (spawning, tests).
func (b *KinematicBody) SetPosition(pos geom.Vec2) { b.pos = pos }

// Integrate advances position by velocity over dt.
func (b *KinematicBody) Integrate(dt float64) {
	b.pos = b.pos.Add(b.vel.Scale(dt))
}

// TurnToward rotates the yaw toward target by at most maxDelta radians,
// taking the short way around.
func (b *KinematicBody) TurnToward(target, maxDelta float64) {
	diff := wrapAngle(target - b.heading)
	if diff > maxDelta {
		diff = maxDelta
	} else if diff < -maxDelta {
		diff = -maxDelta
	}
	b.heading = wrapAngle(b.heading + diff)
}

// wrapAngle normalizes an angle into (-π, π].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
