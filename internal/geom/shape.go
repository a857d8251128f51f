package geom

import "math"

// Shape is a rectangle mapped through a rotation+translation transform: a
// convex quadrilateral in the target frame. The zero Shape is empty.
type Shape struct {
	pts   [4]Point
	valid bool
}

// IsEmpty reports whether the shape encloses nothing.
func (s Shape) IsEmpty() bool {
	return !s.valid
}

// Points returns the four corners in winding order. Empty shapes return nil.
func (s Shape) Points() []Point {
	if !s.valid {
		return nil
	}
	out := s.pts
	return out[:]
}

// Bounds returns the axis-aligned bounding box of the shape.
func (s Shape) Bounds() Rect {
	if !s.valid {
		return Rect{}
	}
	minX, minY := s.pts[0].X, s.pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range s.pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains reports whether (x, y) lies inside or on the edge of the shape.
func (s Shape) Contains(x, y float64) bool {
	if !s.valid {
		return false
	}
	var sign float64
	for i := range s.pts {
		a := s.pts[i]
		b := s.pts[(i+1)%len(s.pts)]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if math.Abs(cross) <= Epsilon {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (sign > 0) != (cross > 0) {
			return false
		}
	}
	return true
}

// Intersects reports whether the shape's bounding box overlaps r.
func (s Shape) Intersects(r Rect) bool {
	return s.Bounds().Intersects(r)
}

// Approx reports whether two shapes have the same corners within eps.
func (s Shape) Approx(other Shape, eps float64) bool {
	if s.valid != other.valid {
		return false
	}
	for i := range s.pts {
		if math.Abs(s.pts[i].X-other.pts[i].X) > eps || math.Abs(s.pts[i].Y-other.pts[i].Y) > eps {
			return false
		}
	}
	return true
}
