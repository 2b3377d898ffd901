// Package avoid computes per-agent local avoidance velocities from a
// neighbor index. The predictive method solves for time to collision
// against each neighbor and steers perpendicular to the relative velocity;
// the separation method is a plain push-apart fallback for agents already
// crowded together.
package avoid

import (
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
	"github.com/udisondev/rtsnav/internal/spatial"
)

// NeighborSource yields candidate neighbors around a position. The
// baseline implementation is spatial.HashGrid; a physics-engine overlap
// query can substitute as long as it never drops a true neighbor.
type NeighborSource interface {
	GetNearbyUnits(pos geom.Vec2, radius float64) []spatial.Unit
}

// Avoider is the shared local-avoidance instance all followers query.
// Stateless between calls; confined to the logic goroutine.
type Avoider struct {
	neighbors NeighborSource

	queryRadius      float64
	timeHorizon      float64
	separationRadius float64
}

// NewAvoider creates an avoider over the given neighbor source.
// queryRadius bounds the predictive scan, timeHorizon is how far ahead
// collisions are considered, separationRadius bounds the push-apart
// fallback.
func NewAvoider(neighbors NeighborSource, queryRadius, timeHorizon, separationRadius float64) *Avoider {
	return &Avoider{
		neighbors:        neighbors,
		queryRadius:      queryRadius,
		timeHorizon:      timeHorizon,
		separationRadius: separationRadius,
	}
}

// CalculateAvoidanceVelocity predicts collisions against every neighbor
// within the query radius and returns the averaged avoidance velocity.
// Zero neighbors on a collision course yield the zero vector.
//
// For each neighbor the first contact time t solves
// |relPos + t·relVel|² = (r1+r2)², relVel taken as neighbor minus self.
// Contributions are weighted by (1 − t/horizon)² so imminent collisions
// dominate.
func (a *Avoider) CalculateAvoidanceVelocity(self spatial.Unit) geom.Vec2 {
	pos := self.Position()
	vel := self.Velocity()

	var sum geom.Vec2
	contributing := 0

	for _, n := range a.neighbors.GetNearbyUnits(pos, a.queryRadius) {
		if n == self {
			continue
		}
		relPos := n.Position().Sub(pos)
		if relPos.LengthSquared() > a.queryRadius*a.queryRadius {
			continue
		}
		relVel := n.Velocity().Sub(vel)

		combined := self.Radius() + n.Radius()
		t, ok := firstContact(relPos, relVel, combined)
		if !ok || t >= a.timeHorizon {
			continue
		}

		dir := avoidanceDirection(relPos, relVel)
		if dir.IsZero() {
			continue
		}

		urgency := 1 - t/a.timeHorizon
		sum = sum.Add(dir.Scale(urgency * urgency))
		contributing++
	}

	if contributing == 0 {
		return geom.Vec2{}
	}
	return sum.Scale(1 / float64(contributing))
}

// CalculateSeparationVelocity pushes away from every neighbor inside the
// separation radius, magnitude proportional to penetration depth,
// averaged. Zero neighbors yield the zero vector.
func (a *Avoider) CalculateSeparationVelocity(self spatial.Unit) geom.Vec2 {
	pos := self.Position()

	var sum geom.Vec2
	contributing := 0

	for _, n := range a.neighbors.GetNearbyUnits(pos, a.separationRadius) {
		if n == self {
			continue
		}
		offset := pos.Sub(n.Position())
		dist := offset.Length()
		if dist >= a.separationRadius {
			continue
		}

		strength := (a.separationRadius - dist) / a.separationRadius
		if dist < 1e-9 {
			// Coincident agents: push along a fixed axis so both still move.
			sum = sum.Add(geom.Vec2{X: strength})
		} else {
			sum = sum.Add(offset.Scale(strength / dist))
		}
		contributing++
	}

	if contributing == 0 {
		return geom.Vec2{}
	}
	return sum.Scale(1 / float64(contributing))
}

// firstContact returns the smallest positive root of
// |relPos + t·relVel|² = combined². ok is false when the neighbors are not
// on a collision course or relative velocity is too small to predict.
func firstContact(relPos, relVel geom.Vec2, combined float64) (float64, bool) {
	a := relVel.LengthSquared()
	if a < 1e-9 {
		return 0, false
	}
	b := 2 * relPos.Dot(relVel)
	c := relPos.LengthSquared() - combined*combined

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	sqrtDisc := math.Sqrt(disc)
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)

	switch {
	case t1 > 0:
		return t1, true
	case t2 > 0:
		return t2, true
	default:
		return 0, false
	}
}

// avoidanceDirection picks the perpendicular of the relative velocity on
// the side leading away from the neighbor. Falls back to moving directly
// away when relative velocity is degenerate.
func avoidanceDirection(relPos, relVel geom.Vec2) geom.Vec2 {
	perp := relVel.Perpendicular().Normalized()
	if perp.IsZero() {
		return relPos.Scale(-1).Normalized()
	}
	if perp.Dot(relPos) > 0 {
		perp = perp.Scale(-1)
	}
	return perp
}
