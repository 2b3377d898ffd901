package geom

// AABB is an axis-aligned rectangle in world space.
type AABB struct {
	Min Vec2
	Max Vec2
}

// NewAABB creates an AABB from min/max corners.
func NewAABB(min, max Vec2) AABB {
	return AABB{Min: min, Max: max}
}

// AABBAround creates an AABB centered on center with the given half extents.
func AABBAround(center Vec2, halfW, halfH float64) AABB {
	return AABB{
		Min: Vec2{X: center.X - halfW, Y: center.Y - halfH},
		Max: Vec2{X: center.X + halfW, Y: center.Y + halfH},
	}
}

// Intersects reports whether the two rectangles overlap (touching counts).
func (b AABB) Intersects(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y
}

// Contains reports whether point lies inside the rectangle (inclusive).
func (b AABB) Contains(point Vec2) bool {
	return point.X >= b.Min.X && point.X <= b.Max.X &&
		point.Y >= b.Min.Y && point.Y <= b.Max.Y
}

// Expand returns the rectangle grown by margin on every side.
func (b AABB) Expand(margin float64) AABB {
	return AABB{
		Min: Vec2{X: b.Min.X - margin, Y: b.Min.Y - margin},
		Max: Vec2{X: b.Max.X + margin, Y: b.Max.Y + margin},
	}
}

// Union returns the smallest rectangle covering both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: Vec2{X: min(b.Min.X, other.Min.X), Y: min(b.Min.Y, other.Min.Y)},
		Max: Vec2{X: max(b.Max.X, other.Max.X), Y: max(b.Max.Y, other.Max.Y)},
	}
}

// Center returns the rectangle midpoint.
func (b AABB) Center() Vec2 {
	return Vec2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// Width returns the X extent.
func (b AABB) Width() float64 {
	return b.Max.X - b.Min.X
}

// Height returns the Y extent.
func (b AABB) Height() float64 {
	return b.Max.Y - b.Min.Y
}
