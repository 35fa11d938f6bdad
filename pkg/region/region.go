// Exclusion region shapes and containment queries.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package region defines the 2D exclusion regions and the concurrent store
// that holds the committed region set during a print.
package region

import (
	"math"

	"github.com/google/uuid"

	"excluderegion-go/pkg/geometry"
)

// Region is a 2D exclusion footprint with an optional height interval.
// The interval is half open: a point at z equal to MaxHeight is outside.
//
// The set of shapes is closed; only RectangleRegion and CircleRegion
// implement this interface.
type Region interface {
	ID() string
	Kind() string
	ContainsPoint(x, y float64) bool
	InHeightRange(z float64) bool
	BoundingBox() geometry.Rectangle
	NearBorder(x, y, tolerance float64) bool
	Validate() error
	HeightRange() (minHeight, maxHeight *float64)

	// clone returns an independent value copy so committed geometry can
	// never alias an editing copy.
	clone() Region
}

// base carries the identity and height interval shared by all shapes.
type base struct {
	id        string
	minHeight *float64
	maxHeight *float64
}

func newBase(id string, minHeight, maxHeight *float64) base {
	if id == "" {
		id = uuid.NewString()
	}
	return base{id: id, minHeight: copyFloat(minHeight), maxHeight: copyFloat(maxHeight)}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (b base) ID() string { return b.id }

// InHeightRange reports whether z falls inside the region's half-open
// height interval [min, max). An absent minimum means 0 and an absent
// maximum means unbounded above.
func (b base) InHeightRange(z float64) bool {
	minH := 0.0
	if b.minHeight != nil {
		minH = *b.minHeight
	}
	if z < minH {
		return false
	}
	return b.maxHeight == nil || z < *b.maxHeight
}

// HeightRange returns copies of the height bounds. Nil means unbounded.
func (b base) HeightRange() (minHeight, maxHeight *float64) {
	return copyFloat(b.minHeight), copyFloat(b.maxHeight)
}

// coversHeightRange reports whether b's interval contains all of other's.
func (b base) coversHeightRange(other base) bool {
	bMin, oMin := 0.0, 0.0
	if b.minHeight != nil {
		bMin = *b.minHeight
	}
	if other.minHeight != nil {
		oMin = *other.minHeight
	}
	if bMin > oMin {
		return false
	}
	if b.maxHeight == nil {
		return true
	}
	return other.maxHeight != nil && *other.maxHeight <= *b.maxHeight
}

func (b base) validateHeights() error {
	if b.minHeight != nil && b.maxHeight != nil && *b.maxHeight <= *b.minHeight {
		return &MutationError{Reason: ReasonInvalidGeometry, ID: b.id,
			Detail: "maxHeight must be greater than minHeight"}
	}
	return nil
}

// RectangleRegion is an axis-aligned rectangular exclusion region.
type RectangleRegion struct {
	base
	Rect geometry.Rectangle
}

// NewRectangleRegion builds a rectangular region from two corner points,
// normalizing the coordinate order. An empty id is replaced with a fresh
// UUID.
func NewRectangleRegion(id string, x1, y1, x2, y2 float64, minHeight, maxHeight *float64) *RectangleRegion {
	return &RectangleRegion{
		base: newBase(id, minHeight, maxHeight),
		Rect: geometry.NewRectangle(x1, y1, x2, y2),
	}
}

func (r *RectangleRegion) Kind() string { return "rectangle" }

func (r *RectangleRegion) ContainsPoint(x, y float64) bool {
	return r.Rect.ContainsPoint(x, y)
}

func (r *RectangleRegion) BoundingBox() geometry.Rectangle { return r.Rect }

// NearBorder reports whether the point is within tolerance of any edge.
func (r *RectangleRegion) NearBorder(x, y, tolerance float64) bool {
	mask := r.Rect.NearEdges(x, y, tolerance)
	return mask&^geometry.Inside != 0
}

func (r *RectangleRegion) Validate() error {
	if err := r.validateHeights(); err != nil {
		return err
	}
	if math.IsNaN(r.Rect.X1) || math.IsNaN(r.Rect.Y1) ||
		math.IsNaN(r.Rect.X2) || math.IsNaN(r.Rect.Y2) {
		return &MutationError{Reason: ReasonInvalidGeometry, ID: r.id,
			Detail: "rectangle coordinates must be numbers"}
	}
	if r.Rect.Width() == 0 || r.Rect.Height() == 0 {
		return &MutationError{Reason: ReasonInvalidGeometry, ID: r.id,
			Detail: "rectangle must have a non-zero width and height"}
	}
	return nil
}

func (r *RectangleRegion) clone() Region {
	c := *r
	c.base = newBase(r.id, r.minHeight, r.maxHeight)
	return &c
}

// CircleRegion is a circular exclusion region.
type CircleRegion struct {
	base
	Circle geometry.Circle
}

// NewCircleRegion builds a circular region. An empty id is replaced with a
// fresh UUID.
func NewCircleRegion(id string, cx, cy, r float64, minHeight, maxHeight *float64) *CircleRegion {
	return &CircleRegion{
		base:   newBase(id, minHeight, maxHeight),
		Circle: geometry.Circle{CX: cx, CY: cy, R: r},
	}
}

func (c *CircleRegion) Kind() string { return "circle" }

func (c *CircleRegion) ContainsPoint(x, y float64) bool {
	return c.Circle.ContainsPoint(x, y)
}

func (c *CircleRegion) BoundingBox() geometry.Rectangle { return c.Circle.BoundingBox() }

func (c *CircleRegion) NearBorder(x, y, tolerance float64) bool {
	return c.Circle.NearBorder(x, y, tolerance)
}

func (c *CircleRegion) Validate() error {
	if err := c.validateHeights(); err != nil {
		return err
	}
	if math.IsNaN(c.Circle.CX) || math.IsNaN(c.Circle.CY) || math.IsNaN(c.Circle.R) {
		return &MutationError{Reason: ReasonInvalidGeometry, ID: c.id,
			Detail: "circle coordinates must be numbers"}
	}
	if c.Circle.R <= 0 {
		return &MutationError{Reason: ReasonInvalidGeometry, ID: c.id,
			Detail: "circle radius must be greater than 0"}
	}
	return nil
}

func (c *CircleRegion) clone() Region {
	n := *c
	n.base = newBase(c.id, c.minHeight, c.maxHeight)
	return &n
}

// covers reports whether outer fully contains inner, both in footprint and
// in height range. Used to enforce the no-shrink policy while printing.
func covers(outer, inner Region) bool {
	var outerBase, innerBase base
	switch o := outer.(type) {
	case *RectangleRegion:
		outerBase = o.base
	case *CircleRegion:
		outerBase = o.base
	}
	switch i := inner.(type) {
	case *RectangleRegion:
		innerBase = i.base
	case *CircleRegion:
		innerBase = i.base
	}
	if !outerBase.coversHeightRange(innerBase) {
		return false
	}

	switch o := outer.(type) {
	case *RectangleRegion:
		// A rectangle contains a circle iff it contains its bounding box.
		return o.Rect.ContainsRect(inner.BoundingBox())
	case *CircleRegion:
		switch i := inner.(type) {
		case *RectangleRegion:
			return o.Circle.ContainsRect(i.Rect)
		case *CircleRegion:
			return o.Circle.ContainsCircle(i.Circle)
		}
	}
	return false
}
