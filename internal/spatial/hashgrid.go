package spatial

import (
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
)

// Unit is what the index and local avoidance need to know about an agent.
type Unit interface {
	Position() geom.Vec2
	Velocity() geom.Vec2
	Radius() float64
}

type bucketKey struct {
	x int
	y int
}

// HashGrid is a uniform-cell neighbor index over agent positions. Buckets
// live for exactly one frame: the owning world rebuilds the grid before
// any avoidance query runs that frame. Confined to the logic goroutine.
type HashGrid struct {
	cellSize float64
	units    []Unit
	buckets  map[bucketKey][]Unit
}

// NewHashGrid creates an index with the given bucket cell size (normally
// the avoidance query radius).
func NewHashGrid(cellSize float64) *HashGrid {
	return &HashGrid{
		cellSize: cellSize,
		buckets:  make(map[bucketKey][]Unit),
	}
}

// Add registers a unit for inclusion on the next Rebuild.
func (g *HashGrid) Add(u Unit) {
	g.units = append(g.units, u)
}

// Remove drops a unit from the index. The current frame's buckets keep it
// until the next Rebuild.
func (g *HashGrid) Remove(u Unit) {
	for i, other := range g.units {
		if other == u {
			g.units[i] = g.units[len(g.units)-1]
			g.units = g.units[:len(g.units)-1]
			return
		}
	}
}

// Len returns the number of registered units.
func (g *HashGrid) Len() int {
	return len(g.units)
}

// Rebuild clears every bucket and reinserts all units at their current
// positions. Must run once per frame before any GetNearbyUnits call.
func (g *HashGrid) Rebuild() {
	for k := range g.buckets {
		delete(g.buckets, k)
	}
	for _, u := range g.units {
		k := g.keyFor(u.Position())
		g.buckets[k] = append(g.buckets[k], u)
	}
}

// GetNearbyUnits returns the union of all buckets within
// ceil(radius/cellSize) rings of the query cell — a superset of the units
// truly within radius (no false negatives). Callers filter by exact
// distance.
func (g *HashGrid) GetNearbyUnits(pos geom.Vec2, radius float64) []Unit {
	rings := int(math.Ceil(radius / g.cellSize))
	center := g.keyFor(pos)

	var result []Unit
	for dy := -rings; dy <= rings; dy++ {
		for dx := -rings; dx <= rings; dx++ {
			k := bucketKey{x: center.x + dx, y: center.y + dy}
			result = append(result, g.buckets[k]...)
		}
	}
	return result
}

func (g *HashGrid) keyFor(pos geom.Vec2) bucketKey {
	return bucketKey{
		x: int(math.Floor(pos.X / g.cellSize)),
		y: int(math.Floor(pos.Y / g.cellSize)),
	}
}
