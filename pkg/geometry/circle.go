package geometry

import "math"

// Circle is a circle given by center and radius.
type Circle struct {
	CX, CY, R float64
}

// ContainsPoint reports whether the point lies inside the circle, border
// inclusive.
func (c Circle) ContainsPoint(x, y float64) bool {
	return math.Hypot(x-c.CX, y-c.CY) <= c.R
}

// ContainsRect reports whether the rectangle lies fully inside the circle.
func (c Circle) ContainsRect(r Rectangle) bool {
	return c.ContainsPoint(r.X1, r.Y1) &&
		c.ContainsPoint(r.X2, r.Y1) &&
		c.ContainsPoint(r.X2, r.Y2) &&
		c.ContainsPoint(r.X1, r.Y2)
}

// ContainsCircle reports whether other lies fully inside c.
func (c Circle) ContainsCircle(other Circle) bool {
	return math.Hypot(c.CX-other.CX, c.CY-other.CY)+other.R <= c.R
}

// BoundingBox returns the axis-aligned bounding rectangle.
func (c Circle) BoundingBox() Rectangle {
	return Rectangle{X1: c.CX - c.R, Y1: c.CY - c.R, X2: c.CX + c.R, Y2: c.CY + c.R}
}

// NearBorder reports whether the point is within tolerance of the circle's
// border, on either side.
func (c Circle) NearBorder(x, y, tolerance float64) bool {
	d := math.Hypot(x-c.CX, y-c.CY)
	return math.Abs(d-c.R) <= tolerance
}
