package spatial

import (
	"math/rand"
	"testing"

	"github.com/udisondev/rtsnav/internal/geom"
)

func BenchmarkRebuild1000(b *testing.B) {
	g := NewHashGrid(4)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		g.Add(&stubUnit{pos: geom.Vec2{X: rng.Float64() * 500, Y: rng.Float64() * 500}})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Rebuild()
	}
}

func BenchmarkGetNearbyUnits(b *testing.B) {
	g := NewHashGrid(4)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		g.Add(&stubUnit{pos: geom.Vec2{X: rng.Float64() * 500, Y: rng.Float64() * 500}})
	}
	g.Rebuild()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.GetNearbyUnits(geom.Vec2{X: 250, Y: 250}, 8)
	}
}
