package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationCostUniformGrid(t *testing.T) {
	grid := newTestGrid(t, 10, 10)

	f := generateField(grid, CellCoord{X: 5, Y: 5})

	assert.Equal(t, 0.0, f.IntegrationAt(CellCoord{X: 5, Y: 5}), "destination cell costs zero")

	// 8-connected with √2-weighted diagonals: (0,0)→(5,5) is five diagonal
	// steps on a uniform cost-1 grid.
	assert.InDelta(t, 5*math.Sqrt2, f.IntegrationAt(CellCoord{X: 0, Y: 0}), 1e-9)

	// A straight cardinal line costs one per step.
	assert.InDelta(t, 5.0, f.IntegrationAt(CellCoord{X: 0, Y: 5}), 1e-9)
}

func TestIntegrationCostsNonNegative(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	f := generateField(grid, CellCoord{X: 2, Y: 7})

	for cy := 0; cy < 10; cy++ {
		for cx := 0; cx < 10; cx++ {
			c := f.IntegrationAt(CellCoord{X: cx, Y: cy})
			assert.True(t, c >= 0 || math.IsInf(c, 1),
				"integration at (%d,%d) = %v", cx, cy, c)
		}
	}
}

func TestFlowDescendsMonotonically(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)
	r.Register(NewObstacle(ObstacleWall, blockAt(3.2, 0.2, 3.8, 6.8), ImpassableCost, 0))

	f := generateField(grid, CellCoord{X: 8, Y: 8})

	for cy := 0; cy < 10; cy++ {
		for cx := 0; cx < 10; cx++ {
			cell := CellCoord{X: cx, Y: cy}
			own := f.IntegrationAt(cell)
			dir := f.DirectionAt(cell)

			if math.IsInf(own, 1) {
				assert.True(t, dir.IsZero(), "unreachable cell (%d,%d) must have zero direction", cx, cy)
				continue
			}
			if cell == f.Destination() {
				assert.True(t, dir.IsZero(), "destination has zero direction")
				continue
			}
			require.False(t, dir.IsZero(), "reachable cell (%d,%d) must have a direction", cx, cy)

			// The pointed-at neighbor must cost strictly less.
			n := CellCoord{
				X: cx + int(math.Round(dir.Normalized().X*math.Sqrt2)),
				Y: cy + int(math.Round(dir.Normalized().Y*math.Sqrt2)),
			}
			assert.Less(t, f.IntegrationAt(n), own,
				"flow at (%d,%d) must descend, points to (%d,%d)", cx, cy, n.X, n.Y)
		}
	}
}

func TestFieldRoutesAroundWallColumn(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	// Full-height impassable column at x=5. Avoid touching the neighboring
	// cell columns: cover only the open interval of column 5.
	r.Register(NewObstacle(ObstacleWall, blockAt(5.2, -1, 5.8, 11), ImpassableCost, 0))

	f := generateField(grid, CellCoord{X: 9, Y: 5})

	for cy := 0; cy < 10; cy++ {
		assert.True(t, math.IsInf(f.IntegrationAt(CellCoord{X: 5, Y: cy}), 1),
			"column cell (5,%d) must be unreachable", cy)
		assert.True(t, f.DirectionAt(CellCoord{X: 5, Y: cy}).IsZero())
	}

	// Nothing west of the column can reach a destination east of it.
	for cy := 0; cy < 10; cy++ {
		for cx := 0; cx < 5; cx++ {
			assert.True(t, math.IsInf(f.IntegrationAt(CellCoord{X: cx, Y: cy}), 1),
				"cell (%d,%d) west of a full wall must be unreachable", cx, cy)
		}
	}
}

func TestFieldRoutesThroughGap(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	// Column at x=5 with a gap at y=4..5.
	r.Register(NewObstacle(ObstacleWall, blockAt(5.2, -1, 5.8, 3.8), ImpassableCost, 0))
	r.Register(NewObstacle(ObstacleWall, blockAt(5.2, 6.2, 5.8, 11), ImpassableCost, 0))

	f := generateField(grid, CellCoord{X: 9, Y: 0})

	start := CellCoord{X: 0, Y: 0}
	cost := f.IntegrationAt(start)
	require.False(t, math.IsInf(cost, 1), "detour through the gap must exist")

	// The detour is strictly longer than the straight 9-step line.
	assert.Greater(t, cost, 9.0)

	// Walking the flow from the start reaches the destination.
	cell := start
	for i := 0; i < 200; i++ {
		if cell == f.Destination() {
			break
		}
		dir := f.DirectionAt(cell)
		require.False(t, dir.IsZero(), "stuck at (%d,%d)", cell.X, cell.Y)
		cell = CellCoord{
			X: cell.X + sign(dir.X),
			Y: cell.Y + sign(dir.Y),
		}
	}
	assert.Equal(t, f.Destination(), cell, "flow walk must terminate at the destination")
}

func TestDiagonalNeverCutsCorners(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)
	// Single blocked cell at (5,5).
	r.Register(NewObstacle(ObstacleWall, blockAt(5.2, 5.2, 5.8, 5.8), ImpassableCost, 0))

	f := generateField(grid, CellCoord{X: 9, Y: 9})

	// Every diagonal flow step must pass between two open cardinal cells.
	for cy := 0; cy < 10; cy++ {
		for cx := 0; cx < 10; cx++ {
			cell := CellCoord{X: cx, Y: cy}
			dir := f.DirectionAt(cell)
			dx, dy := sign(dir.X), sign(dir.Y)
			if dx == 0 || dy == 0 {
				continue
			}
			require.True(t, diagonalOpen(grid, cell, dx, dy),
				"flow at (%d,%d) cuts a blocked corner", cx, cy)
		}
	}
}

func sign(v float64) int {
	switch {
	case v > 0.1:
		return 1
	case v < -0.1:
		return -1
	default:
		return 0
	}
}
