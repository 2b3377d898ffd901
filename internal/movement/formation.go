package movement

import (
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
)

// RingOffsets returns n formation offsets around a shared destination:
// slot 0 at the center, the rest on concentric rings of 6, 12, 18…
// members spaced `spacing` apart. Deterministic, so a group ordered the
// same way always gets the same slots.
func RingOffsets(n int, spacing float64) []geom.Vec2 {
	offsets := make([]geom.Vec2, 0, n)
	if n <= 0 {
		return offsets
	}
	offsets = append(offsets, geom.Vec2{})

	ring := 1
	for len(offsets) < n {
		slots := 6 * ring
		radius := spacing * float64(ring)
		for i := 0; i < slots && len(offsets) < n; i++ {
			angle := 2 * math.Pi * float64(i) / float64(slots)
			offsets = append(offsets, geom.Vec2{
				X: radius * math.Cos(angle),
				Y: radius * math.Sin(angle),
			})
		}
		ring++
	}
	return offsets
}
