// Package geometry provides the 2D primitives used for exclusion testing:
// axis-aligned rectangles, circles, line segments and circular arcs.
package geometry

import "math"

// Edge bits returned by Rectangle.NearEdges, in the style of a
// Cohen-Sutherland outcode. Inside is set whenever the point is contained
// in the (tolerance-expanded) rectangle; the side bits identify which
// border(s) the point is within tolerance of.
const (
	Inside = 1 << iota
	Left
	Right
	Bottom
	Top
)

// Rectangle is an axis-aligned rectangle normalized so X1 <= X2 and
// Y1 <= Y2.
type Rectangle struct {
	X1, Y1, X2, Y2 float64
}

// NewRectangle builds a rectangle from two corner points, normalizing the
// coordinate order.
func NewRectangle(x1, y1, x2, y2 float64) Rectangle {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rectangle{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// ContainsPoint reports whether the point lies inside the rectangle,
// borders inclusive.
func (r Rectangle) ContainsPoint(x, y float64) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// ContainsRect reports whether other lies fully inside r.
func (r Rectangle) ContainsRect(other Rectangle) bool {
	return other.X1 >= r.X1 && other.X2 <= r.X2 &&
		other.Y1 >= r.Y1 && other.Y2 <= r.Y2
}

// Width returns the extent along X.
func (r Rectangle) Width() float64 { return r.X2 - r.X1 }

// Height returns the extent along Y.
func (r Rectangle) Height() float64 { return r.Y2 - r.Y1 }

// Union returns the smallest rectangle containing both r and other.
func (r Rectangle) Union(other Rectangle) Rectangle {
	return Rectangle{
		X1: math.Min(r.X1, other.X1),
		Y1: math.Min(r.Y1, other.Y1),
		X2: math.Max(r.X2, other.X2),
		Y2: math.Max(r.Y2, other.Y2),
	}
}

// NearEdges returns an edge bitmask for the point, treating any border
// within the given tolerance as "near". Used by interactive editors to
// decide between move and resize gestures.
func (r Rectangle) NearEdges(x, y, tolerance float64) int {
	mask := 0
	if x >= r.X1-tolerance && x <= r.X2+tolerance &&
		y >= r.Y1-tolerance && y <= r.Y2+tolerance {
		mask |= Inside
		if math.Abs(x-r.X1) <= tolerance {
			mask |= Left
		}
		if math.Abs(x-r.X2) <= tolerance {
			mask |= Right
		}
		if math.Abs(y-r.Y1) <= tolerance {
			mask |= Bottom
		}
		if math.Abs(y-r.Y2) <= tolerance {
			mask |= Top
		}
	}
	return mask
}
