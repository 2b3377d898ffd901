package nav

import (
	"log/slog"

	"github.com/udisondev/rtsnav/internal/geom"
)

// ObstacleKind classifies an obstacle at registration time.
type ObstacleKind int

const (
	ObstacleCustom ObstacleKind = iota
	ObstacleWall
	ObstacleBuilding
)

// String returns the kind name for logs.
func (k ObstacleKind) String() string {
	switch k {
	case ObstacleWall:
		return "wall"
	case ObstacleBuilding:
		return "building"
	default:
		return "custom"
	}
}

// BoundsProvider supplies an obstacle's current axis-aligned world bounds.
// ok is false when bounds are unavailable (e.g. the owning entity has no
// collider yet) — such an obstacle contributes nothing to the grid.
type BoundsProvider interface {
	ObstacleBounds() (bounds geom.AABB, ok bool)
}

// StaticBounds is a BoundsProvider for obstacles with fixed placement.
type StaticBounds struct {
	Bounds geom.AABB
}

// ObstacleBounds returns the fixed rectangle.
func (s StaticBounds) ObstacleBounds() (geom.AABB, bool) {
	return s.Bounds, true
}

// Obstacle contributes a rectangle of elevated cost to the grid while
// registered. The applied region is remembered so unregistration and
// refresh can recompute exactly the cells it touched.
type Obstacle struct {
	kind     ObstacleKind
	provider BoundsProvider
	cost     uint8
	padding  float64

	applied    geom.AABB
	hasApplied bool

	// registrations counts Register calls not yet matched by Unregister.
	// The obstacle covers cells while the count is positive, so a
	// double-register followed by one unregister keeps cells blocked.
	registrations int
	released      bool
}

// NewObstacle creates an obstacle of the given kind. cost is the traversal
// cost it imposes (ImpassableCost for solid blockers); padding grows the
// provider bounds symmetrically on every side.
func NewObstacle(kind ObstacleKind, provider BoundsProvider, cost uint8, padding float64) *Obstacle {
	return &Obstacle{
		kind:     kind,
		provider: provider,
		cost:     cost,
		padding:  padding,
	}
}

// Kind returns the classification assigned at creation.
func (o *Obstacle) Kind() ObstacleKind { return o.kind }

// currentBounds resolves the padded bounds from the provider.
func (o *Obstacle) currentBounds() (geom.AABB, bool) {
	if o.provider == nil {
		return geom.AABB{}, false
	}
	b, ok := o.provider.ObstacleBounds()
	if !ok {
		return geom.AABB{}, false
	}
	return b.Expand(o.padding), true
}

// covering reports whether the obstacle currently contributes cost to cell
// rectangle rect.
func (o *Obstacle) covering(rect geom.AABB) bool {
	if o.registrations <= 0 || !o.hasApplied {
		return false
	}
	return o.applied.Intersects(rect)
}

// Registrar owns the live obstacle set and is the only writer of the
// CostGrid. Confined to the logic goroutine.
type Registrar struct {
	grid      *CostGrid
	obstacles map[*Obstacle]struct{}
}

// NewRegistrar creates a registrar over grid.
func NewRegistrar(grid *CostGrid) *Registrar {
	return &Registrar{
		grid:      grid,
		obstacles: make(map[*Obstacle]struct{}),
	}
}

// Register applies the obstacle's cost over its padded bounds. An obstacle
// without usable bounds has no effect and only logs a warning, so one
// misconfigured blocker never breaks pathfinding for everyone else.
func (r *Registrar) Register(o *Obstacle) {
	bounds, ok := o.currentBounds()
	if !ok {
		slog.Warn("obstacle has no bounds provider, skipping registration",
			"kind", o.kind)
		return
	}

	o.registrations++
	// A repeat Register may see moved provider bounds: recompute the
	// previously applied region too so it does not stay blocked.
	update := bounds
	if o.hasApplied {
		update = o.applied.Union(bounds)
	}
	o.applied = bounds
	o.hasApplied = true
	r.obstacles[o] = struct{}{}

	r.UpdateCostField(update)

	slog.Debug("obstacle registered",
		"kind", o.kind,
		"cost", o.cost,
		"registrations", o.registrations)
}

// Unregister removes one registration and recomputes the region it
// covered. Cells still covered by another live obstacle (or by a second
// registration of this one) stay blocked: the recompute rescans every
// obstacle intersecting the region instead of restoring defaults.
func (r *Registrar) Unregister(o *Obstacle) {
	if o.registrations <= 0 {
		return
	}
	o.registrations--

	bounds := o.applied
	if o.registrations == 0 {
		delete(r.obstacles, o)
		o.hasApplied = false
	}

	r.UpdateCostField(bounds)

	slog.Debug("obstacle unregistered",
		"kind", o.kind,
		"registrations", o.registrations)
}

// Release tears an obstacle down, dropping all remaining registrations
// exactly once. Safe to defer; repeat calls are no-ops.
func (r *Registrar) Release(o *Obstacle) {
	if o.released {
		return
	}
	o.released = true
	for o.registrations > 0 {
		r.Unregister(o)
	}
}

// Refresh re-resolves the obstacle's bounds (e.g. after it moved) and
// recomputes both the old and the new region.
func (r *Registrar) Refresh(o *Obstacle) {
	if o.registrations <= 0 {
		return
	}
	newBounds, ok := o.currentBounds()
	if !ok {
		slog.Warn("obstacle lost its bounds provider on refresh", "kind", o.kind)
		return
	}

	oldBounds := o.applied
	o.applied = newBounds
	r.UpdateCostField(oldBounds.Union(newBounds))
}

// UpdateCostField recomputes the cost of every cell intersecting bounds by
// rescanning all live obstacles covering each cell: cost is the maximum
// contribution, or DefaultCost when nothing covers the cell. Increments
// the grid generation when any cell actually changed.
func (r *Registrar) UpdateCostField(bounds geom.AABB) {
	minC, maxC, empty := r.grid.cellRange(bounds)
	if empty {
		return
	}

	changed := false
	for cy := minC.Y; cy <= maxC.Y; cy++ {
		for cx := minC.X; cx <= maxC.X; cx++ {
			cell := CellCoord{X: cx, Y: cy}
			rect := r.grid.CellBounds(cell)

			cost := DefaultCost
			for o := range r.obstacles {
				if o.covering(rect) && o.cost > cost {
					cost = o.cost
				}
			}

			if r.grid.setCost(cell, cost) {
				changed = true
			}
		}
	}

	if changed {
		r.grid.bumpGeneration()
	}
}
