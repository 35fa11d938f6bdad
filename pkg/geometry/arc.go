// Circular arc construction and flattening.
//
// The segment subdivision rule follows the Marlin planArc approach: the
// number of line segments grows with the arc length so that containment
// sampling resolution is independent of arc size.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package geometry

import (
	"errors"
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

// ErrDegenerateArc is returned for arc definitions that cannot describe a
// valid arc (zero radius, identical endpoints in the R form, or a radius
// smaller than half the chord length).
var ErrDegenerateArc = errors.New("degenerate arc")

// Point is a 2D point produced by arc flattening.
type Point struct {
	X, Y float64
}

// Arc is a circular arc. Sweep is signed: negative sweeps are clockwise.
type Arc struct {
	CX, CY     float64
	Radius     float64
	StartAngle float64 // normalized to [0, 2pi)
	Sweep      float64 // normalized to [-2pi, 2pi], never 0

	// Derived values.
	EndAngle       float64
	X1, Y1, X2, Y2 float64
	Length         float64
	Clockwise      bool
}

// normalizeRadians maps an angle into [0, 2pi).
func normalizeRadians(angle float64) float64 {
	r := math.Mod(angle, twoPi)
	if r < 0 {
		r += twoPi
	}
	return r
}

// NewArc builds an arc from center, radius, start angle and signed sweep.
// A zero sweep denotes a full circle in the direction given by its sign
// (positive zero is counter-clockwise).
func NewArc(cx, cy, radius, startAngle, sweep float64) (Arc, error) {
	if radius <= 0 {
		return Arc{}, fmt.Errorf("%w: radius must be greater than 0", ErrDegenerateArc)
	}
	if sweep < 0 {
		sweep = -normalizeRadians(-sweep)
		if sweep == 0 {
			sweep = -twoPi
		}
	} else {
		sweep = normalizeRadians(sweep)
		if sweep == 0 {
			sweep = twoPi
		}
	}

	a := Arc{
		CX:         cx,
		CY:         cy,
		Radius:     radius,
		StartAngle: normalizeRadians(startAngle),
		Sweep:      sweep,
	}
	a.EndAngle = a.StartAngle + a.Sweep
	a.X1 = cx + math.Cos(a.StartAngle)*radius
	a.Y1 = cy + math.Sin(a.StartAngle)*radius
	a.X2 = cx + math.Cos(a.EndAngle)*radius
	a.Y2 = cy + math.Sin(a.EndAngle)*radius
	a.Clockwise = sweep < 0
	a.Length = math.Abs(sweep) * radius
	return a, nil
}

// ArcFromCenter builds an arc from its center point, start point, end
// point and direction. The radius is taken from the start point's distance
// to the center. Identical start and end points produce a full circle.
func ArcFromCenter(cx, cy, x1, y1, x2, y2 float64, clockwise bool) (Arc, error) {
	radius := math.Hypot(x1-cx, y1-cy)
	startAngle := math.Atan2(y1-cy, x1-cx)
	endAngle := math.Atan2(y2-cy, x2-cx)
	sweep := normalizeRadians(endAngle - startAngle)
	if clockwise {
		sweep -= twoPi
	}
	return NewArc(cx, cy, radius, startAngle, sweep)
}

// ArcFromRadius builds an arc from a radius, start point, end point and
// direction (the g-code R form). A positive radius selects the shorter of
// the two candidate arcs, a negative radius the longer one. The radius
// magnitude must be at least half the chord length.
func ArcFromRadius(radius, x1, y1, x2, y2 float64, clockwise bool) (Arc, error) {
	if radius == 0 {
		return Arc{}, fmt.Errorf("%w: radius cannot be 0", ErrDegenerateArc)
	}
	if x1 == x2 && y1 == y2 {
		return Arc{}, fmt.Errorf("%w: end points cannot be identical in the R form", ErrDegenerateArc)
	}

	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	halfDist := dist / 2
	if halfDist > math.Abs(radius) {
		return Arc{}, fmt.Errorf(
			"%w: radius %g is less than half the chord length %g",
			ErrDegenerateArc, radius, halfDist)
	}

	// Mirror the center across the chord for the long-arc (negative
	// radius) and direction combinations.
	e := 1.0
	if clockwise != (radius < 0) {
		e = -1.0
	}

	midX := (x1 + x2) / 2
	midY := (y1 + y2) / 2

	h2 := (radius - halfDist) * (radius + halfDist)
	h := 0.0
	if h2 > 0 {
		h = math.Sqrt(h2)
	}

	// Unit perpendicular of the chord.
	sx := -dy / dist
	sy := dx / dist

	return ArcFromCenter(midX+e*h*sx, midY+e*h*sy, x1, y1, x2, y2, clockwise)
}

// ContainsAngle reports whether the given angle lies within the arc's
// swept range.
func (a Arc) ContainsAngle(angle float64) bool {
	sweep := normalizeRadians(angle) - a.StartAngle
	if a.Clockwise {
		if sweep > 0 {
			sweep -= twoPi
		}
		return sweep >= a.Sweep
	}
	if sweep < 0 {
		sweep += twoPi
	}
	return sweep <= a.Sweep
}

// BoundingBox returns the tight axis-aligned bounding rectangle.
func (a Arc) BoundingBox() Rectangle {
	box := NewRectangle(a.X1, a.Y1, a.X2, a.Y2)
	for _, quadrant := range []struct {
		angle  float64
		px, py float64
	}{
		{0, a.CX + a.Radius, a.CY},
		{math.Pi / 2, a.CX, a.CY + a.Radius},
		{math.Pi, a.CX - a.Radius, a.CY},
		{3 * math.Pi / 2, a.CX, a.CY - a.Radius},
	} {
		if a.ContainsAngle(quadrant.angle) {
			box = box.Union(NewRectangle(quadrant.px, quadrant.py, quadrant.px, quadrant.py))
		}
	}
	return box
}

// SegmentCount returns the number of line segments used to flatten the
// arc at the given resolution (millimeters of travel per segment).
func (a Arc) SegmentCount(resolution float64) int {
	if resolution <= 0 {
		resolution = 1.0
	}
	return int(math.Max(1, math.Floor(a.Length/resolution)))
}

// Points flattens the arc into the endpoints of its line segments, in
// travel order. The final point is the exact arc end point; the start
// point is not included.
func (a Arc) Points(resolution float64) []Point {
	n := a.SegmentCount(resolution)
	pts := make([]Point, 0, n)
	thetaPerSegment := a.Sweep / float64(n)
	for i := 1; i < n; i++ {
		theta := a.StartAngle + float64(i)*thetaPerSegment
		pts = append(pts, Point{
			X: a.CX + math.Cos(theta)*a.Radius,
			Y: a.CY + math.Sin(theta)*a.Radius,
		})
	}
	return append(pts, Point{X: a.X2, Y: a.Y2})
}
