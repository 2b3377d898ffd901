package nav

import (
	"testing"

	"github.com/udisondev/rtsnav/internal/geom"
)

func benchGrid(b *testing.B, size float64) (*CostGrid, *Registrar) {
	b.Helper()
	grid, err := NewCostGrid(geom.NewAABB(geom.Vec2{}, geom.Vec2{X: size, Y: size}), 1)
	if err != nil {
		b.Fatalf("grid: %v", err)
	}
	return grid, NewRegistrar(grid)
}

func BenchmarkGenerateField128(b *testing.B) {
	grid, r := benchGrid(b, 128)

	// Scatter some walls so propagation does real work.
	for i := 0; i < 16; i++ {
		x := float64(8 * i)
		r.Register(NewObstacle(ObstacleWall, StaticBounds{
			Bounds: geom.NewAABB(geom.Vec2{X: x, Y: 20}, geom.Vec2{X: x + 1, Y: 100}),
		}, ImpassableCost, 0))
	}

	dest := CellCoord{X: 120, Y: 120}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		generateField(grid, dest)
	}
}

func BenchmarkUpdateCostField(b *testing.B) {
	_, r := benchGrid(b, 128)
	for i := 0; i < 32; i++ {
		x := float64(4 * i)
		r.Register(NewObstacle(ObstacleBuilding, StaticBounds{
			Bounds: geom.NewAABB(geom.Vec2{X: x, Y: x}, geom.Vec2{X: x + 3, Y: x + 3}),
		}, ImpassableCost, 0))
	}

	region := geom.NewAABB(geom.Vec2{X: 30, Y: 30}, geom.Vec2{X: 90, Y: 90})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.UpdateCostField(region)
	}
}
