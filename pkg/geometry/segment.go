package geometry

import "math"

// LineSegment is a straight segment between two points.
type LineSegment struct {
	X1, Y1, X2, Y2 float64
}

// Length returns the Euclidean length of the segment.
func (s LineSegment) Length() float64 {
	return math.Hypot(s.X2-s.X1, s.Y2-s.Y1)
}

// BoundingBox returns the axis-aligned bounding rectangle.
func (s LineSegment) BoundingBox() Rectangle {
	return NewRectangle(s.X1, s.Y1, s.X2, s.Y2)
}
