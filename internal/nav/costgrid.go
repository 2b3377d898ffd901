package nav

import (
	"fmt"
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
)

const (
	// DefaultCost is the traversal cost of an unobstructed cell.
	DefaultCost uint8 = 1

	// ImpassableCost marks a cell no path may cross.
	ImpassableCost uint8 = 255
)

// CellCoord identifies a grid cell.
type CellCoord struct {
	X int
	Y int
}

// CostGrid is the level-wide traversal cost array. Created once at level
// load, mutated only through the Registrar; Followers just read it.
type CostGrid struct {
	origin   geom.Vec2
	cellSize float64
	width    int
	height   int
	cost     []uint8

	// generation increments whenever any cell cost changes. Flow fields
	// record the value they were built against and are stale on mismatch.
	generation uint64
}

// NewCostGrid allocates a grid covering worldBounds with the given cell
// size. Every cell starts at DefaultCost.
func NewCostGrid(worldBounds geom.AABB, cellSize float64) (*CostGrid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}
	w := int(math.Ceil(worldBounds.Width() / cellSize))
	h := int(math.Ceil(worldBounds.Height() / cellSize))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("world bounds %+v too small for cell size %v", worldBounds, cellSize)
	}

	g := &CostGrid{
		origin:   worldBounds.Min,
		cellSize: cellSize,
		width:    w,
		height:   h,
		cost:     make([]uint8, w*h),
	}
	for i := range g.cost {
		g.cost[i] = DefaultCost
	}
	return g, nil
}

// Width returns the grid width in cells.
func (g *CostGrid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *CostGrid) Height() int { return g.height }

// CellSize returns the world-space size of one cell.
func (g *CostGrid) CellSize() float64 { return g.cellSize }

// Origin returns the world position of the grid's min corner.
func (g *CostGrid) Origin() geom.Vec2 { return g.origin }

// Generation returns the current mutation counter.
func (g *CostGrid) Generation() uint64 { return g.generation }

// InBounds reports whether the cell coordinate is inside the grid.
func (g *CostGrid) InBounds(c CellCoord) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// CellAt converts a world position to its containing cell.
// ok is false when the position is outside the grid.
func (g *CostGrid) CellAt(pos geom.Vec2) (CellCoord, bool) {
	c := CellCoord{
		X: int(math.Floor((pos.X - g.origin.X) / g.cellSize)),
		Y: int(math.Floor((pos.Y - g.origin.Y) / g.cellSize)),
	}
	return c, g.InBounds(c)
}

// ClampedCellAt converts a world position to a cell, clamping positions
// outside the grid to the nearest edge cell.
func (g *CostGrid) ClampedCellAt(pos geom.Vec2) CellCoord {
	c, _ := g.CellAt(pos)
	if c.X < 0 {
		c.X = 0
	} else if c.X >= g.width {
		c.X = g.width - 1
	}
	if c.Y < 0 {
		c.Y = 0
	} else if c.Y >= g.height {
		c.Y = g.height - 1
	}
	return c
}

// CellCenter returns the world position of a cell's midpoint.
func (g *CostGrid) CellCenter(c CellCoord) geom.Vec2 {
	return geom.Vec2{
		X: g.origin.X + (float64(c.X)+0.5)*g.cellSize,
		Y: g.origin.Y + (float64(c.Y)+0.5)*g.cellSize,
	}
}

// CellBounds returns the world-space rectangle a cell covers.
func (g *CostGrid) CellBounds(c CellCoord) geom.AABB {
	min := geom.Vec2{
		X: g.origin.X + float64(c.X)*g.cellSize,
		Y: g.origin.Y + float64(c.Y)*g.cellSize,
	}
	return geom.AABB{
		Min: min,
		Max: geom.Vec2{X: min.X + g.cellSize, Y: min.Y + g.cellSize},
	}
}

// CostAt returns the traversal cost of a cell. Out-of-bounds cells are
// reported impassable so propagation never walks off the grid.
func (g *CostGrid) CostAt(c CellCoord) uint8 {
	if !g.InBounds(c) {
		return ImpassableCost
	}
	return g.cost[c.Y*g.width+c.X]
}

// IsWalkable reports whether the cell containing pos can be traversed.
// Positions outside the grid are not walkable.
func (g *CostGrid) IsWalkable(pos geom.Vec2) bool {
	c, ok := g.CellAt(pos)
	if !ok {
		return false
	}
	return g.cost[c.Y*g.width+c.X] < ImpassableCost
}

// setCost writes a cell cost and reports whether the value changed.
// Callers are responsible for bumping the generation after a batch.
func (g *CostGrid) setCost(c CellCoord, cost uint8) bool {
	idx := c.Y*g.width + c.X
	if g.cost[idx] == cost {
		return false
	}
	g.cost[idx] = cost
	return true
}

// bumpGeneration invalidates all flow fields built against the old costs.
func (g *CostGrid) bumpGeneration() {
	g.generation++
}

// cellRange returns the inclusive cell range intersecting bounds,
// clamped to the grid. empty is true when bounds miss the grid entirely.
func (g *CostGrid) cellRange(bounds geom.AABB) (minC, maxC CellCoord, empty bool) {
	minC = CellCoord{
		X: int(math.Floor((bounds.Min.X - g.origin.X) / g.cellSize)),
		Y: int(math.Floor((bounds.Min.Y - g.origin.Y) / g.cellSize)),
	}
	maxC = CellCoord{
		X: int(math.Floor((bounds.Max.X - g.origin.X) / g.cellSize)),
		Y: int(math.Floor((bounds.Max.Y - g.origin.Y) / g.cellSize)),
	}
	if maxC.X < 0 || maxC.Y < 0 || minC.X >= g.width || minC.Y >= g.height {
		return minC, maxC, true
	}
	if minC.X < 0 {
		minC.X = 0
	}
	if minC.Y < 0 {
		minC.Y = 0
	}
	if maxC.X >= g.width {
		maxC.X = g.width - 1
	}
	if maxC.Y >= g.height {
		maxC.Y = g.height - 1
	}
	return minC, maxC, false
}
