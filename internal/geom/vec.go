package geom

import "math"

// Vec2 is a planar world-space vector. Value type, passed by value.
type Vec2 struct {
	X float64
	Y float64
}

// NewVec2 creates a Vec2 with the given components.
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v multiplied by factor.
func (v Vec2) Scale(factor float64) Vec2 {
	return Vec2{X: v.X * factor, Y: v.Y * factor}
}

// Dot returns the dot product of v and other.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Length returns the vector magnitude.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSquared returns the squared magnitude (no sqrt, for comparisons).
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalized returns a unit vector in the direction of v,
// or the zero vector if v is (near) zero length.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Distance returns the distance between v and other.
func (v Vec2) Distance(other Vec2) float64 {
	return v.Sub(other).Length()
}

// DistanceSquared returns the squared distance between v and other.
func (v Vec2) DistanceSquared(other Vec2) float64 {
	return v.Sub(other).LengthSquared()
}

// IsZero reports whether both components are (near) zero.
func (v Vec2) IsZero() bool {
	return math.Abs(v.X) < 1e-9 && math.Abs(v.Y) < 1e-9
}

// ClampLength returns v shortened to max if it is longer than max.
func (v Vec2) ClampLength(max float64) Vec2 {
	l := v.Length()
	if l <= max || l < 1e-9 {
		return v
	}
	return v.Scale(max / l)
}

// Perpendicular returns v rotated 90° counter-clockwise.
func (v Vec2) Perpendicular() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}
