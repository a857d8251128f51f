package geom

import "math"

// Epsilon is the tolerance used when comparing cached geometry.
const Epsilon = 1e-9

// Point is a location in some coordinate frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromCorners returns the rect spanning two opposite corners in any order.
func RectFromCorners(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X:      min(x0, x1),
		Y:      min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the maximum x coordinate.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the maximum y coordinate.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area returns the rect's area, or 0 when empty.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width * r.Height
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.Right(), other.Right())
	maxY := max(r.Bottom(), other.Bottom())

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Intersects reports whether the two rects overlap with positive area.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Expand grows the rect by m on every side. Empty rects stay empty.
func (r Rect) Expand(m float64) Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Equal reports whether both rects are empty, or match within Epsilon.
func (r Rect) Equal(other Rect) bool {
	if r.IsEmpty() && other.IsEmpty() {
		return true
	}
	return math.Abs(r.X-other.X) <= Epsilon &&
		math.Abs(r.Y-other.Y) <= Epsilon &&
		math.Abs(r.Width-other.Width) <= Epsilon &&
		math.Abs(r.Height-other.Height) <= Epsilon
}
