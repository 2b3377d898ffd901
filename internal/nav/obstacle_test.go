package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rtsnav/internal/geom"
)

func blockAt(minX, minY, maxX, maxY float64) StaticBounds {
	return StaticBounds{Bounds: geom.NewAABB(
		geom.Vec2{X: minX, Y: minY},
		geom.Vec2{X: maxX, Y: maxY},
	)}
}

func TestRegisterBlocksCells(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	o := NewObstacle(ObstacleWall, blockAt(2, 2, 4, 4), ImpassableCost, 0)
	r.Register(o)

	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 3, Y: 3}))
	assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: 7, Y: 7}))
	assert.Equal(t, uint64(1), grid.Generation(), "registration mutates the grid once")
}

func TestUnregisterRestoresIsolatedObstacle(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	o := NewObstacle(ObstacleBuilding, blockAt(2, 2, 5, 5), ImpassableCost, 0)
	r.Register(o)
	r.Unregister(o)

	for cy := 0; cy < grid.Height(); cy++ {
		for cx := 0; cx < grid.Width(); cx++ {
			assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: cx, Y: cy}),
				"cell (%d,%d) should be back at default", cx, cy)
		}
	}
}

func TestUnregisterKeepsOverlappingObstacle(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	a := NewObstacle(ObstacleWall, blockAt(2, 2, 5, 5), ImpassableCost, 0)
	b := NewObstacle(ObstacleWall, blockAt(4, 4, 7, 7), ImpassableCost, 0)
	r.Register(a)
	r.Register(b)

	r.Unregister(a)

	// The overlap region is still covered by b.
	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 4, Y: 4}))
	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 6, Y: 6}))
	// a's exclusive region is free again.
	assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: 2, Y: 2}))
}

func TestDoubleRegisterSingleUnregister(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	o := NewObstacle(ObstacleBuilding, blockAt(3, 3, 5, 5), ImpassableCost, 0)
	r.Register(o)
	r.Register(o) // re-enable without disable

	r.Unregister(o)
	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 4, Y: 4}),
		"one registration remains, cells must not open up prematurely")

	r.Unregister(o)
	assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: 4, Y: 4}))
}

func TestReRegisterWithMovedBoundsReopensOldRegion(t *testing.T) {
	grid := newTestGrid(t, 20, 20)
	r := NewRegistrar(grid)

	provider := &movableBounds{bounds: geom.NewAABB(geom.Vec2{X: 2, Y: 2}, geom.Vec2{X: 4, Y: 4})}
	o := NewObstacle(ObstacleBuilding, provider, ImpassableCost, 0)
	r.Register(o)
	require.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 3, Y: 3}))

	// The provider moved between two Register calls.
	provider.bounds = geom.NewAABB(geom.Vec2{X: 10, Y: 10}, geom.Vec2{X: 12, Y: 12})
	r.Register(o)

	assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: 3, Y: 3}),
		"region applied by the first registration must reopen")
	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 11, Y: 11}))
}

func TestReleaseDropsAllRegistrationsOnce(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	o := NewObstacle(ObstacleCustom, blockAt(3, 3, 5, 5), ImpassableCost, 0)
	r.Register(o)
	r.Register(o)

	r.Release(o)
	assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: 4, Y: 4}))

	gen := grid.Generation()
	r.Release(o) // repeat release is a no-op
	assert.Equal(t, gen, grid.Generation())
}

func TestRefreshMovesObstacle(t *testing.T) {
	grid := newTestGrid(t, 20, 20)
	r := NewRegistrar(grid)

	provider := &movableBounds{bounds: geom.NewAABB(geom.Vec2{X: 2, Y: 2}, geom.Vec2{X: 4, Y: 4})}
	o := NewObstacle(ObstacleBuilding, provider, ImpassableCost, 0)
	r.Register(o)
	require.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 3, Y: 3}))

	provider.bounds = geom.NewAABB(geom.Vec2{X: 10, Y: 10}, geom.Vec2{X: 12, Y: 12})
	r.Refresh(o)

	assert.Equal(t, DefaultCost, grid.CostAt(CellCoord{X: 3, Y: 3}), "old region reopened")
	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 11, Y: 11}), "new region blocked")
}

func TestObstacleWithoutProviderIsInert(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	o := NewObstacle(ObstacleCustom, nil, ImpassableCost, 0)
	r.Register(o)

	assert.Equal(t, uint64(0), grid.Generation())
	assert.True(t, grid.IsWalkable(geom.Vec2{X: 5, Y: 5}))
}

func TestPaddingExpandsBlockedRegion(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	o := NewObstacle(ObstacleWall, blockAt(4, 4, 5, 5), ImpassableCost, 1)
	r.Register(o)

	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 3, Y: 3}))
	assert.Equal(t, ImpassableCost, grid.CostAt(CellCoord{X: 6, Y: 6}))
}

func TestElevatedCostObstaclesTakeMax(t *testing.T) {
	grid := newTestGrid(t, 10, 10)
	r := NewRegistrar(grid)

	mud := NewObstacle(ObstacleCustom, blockAt(2, 2, 6, 6), 10, 0)
	swamp := NewObstacle(ObstacleCustom, blockAt(4.5, 4.5, 8, 8), 40, 0)
	r.Register(mud)
	r.Register(swamp)

	assert.Equal(t, uint8(10), grid.CostAt(CellCoord{X: 3, Y: 3}))
	assert.Equal(t, uint8(40), grid.CostAt(CellCoord{X: 5, Y: 5}), "overlap takes the max contribution")

	r.Unregister(swamp)
	assert.Equal(t, uint8(10), grid.CostAt(CellCoord{X: 5, Y: 5}))
}

// movableBounds is a BoundsProvider whose rectangle can be repositioned.
type movableBounds struct {
	bounds geom.AABB
}

func (m *movableBounds) ObstacleBounds() (geom.AABB, bool) {
	return m.bounds, true
}
