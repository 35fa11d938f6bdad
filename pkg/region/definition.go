// This file may be distributed under the terms of the GNU GPLv3 license.

package region

// Definition is the serializable form of a region, used by the settings
// file and the control API.
type Definition struct {
	ID   string `yaml:"id,omitempty" json:"id,omitempty"`
	Kind string `yaml:"kind" json:"kind"`

	// Rectangle corners.
	X1 float64 `yaml:"x1,omitempty" json:"x1,omitempty"`
	Y1 float64 `yaml:"y1,omitempty" json:"y1,omitempty"`
	X2 float64 `yaml:"x2,omitempty" json:"x2,omitempty"`
	Y2 float64 `yaml:"y2,omitempty" json:"y2,omitempty"`

	// Circle center and radius.
	CX float64 `yaml:"cx,omitempty" json:"cx,omitempty"`
	CY float64 `yaml:"cy,omitempty" json:"cy,omitempty"`
	R  float64 `yaml:"r,omitempty" json:"r,omitempty"`

	MinHeight *float64 `yaml:"min_height,omitempty" json:"min_height,omitempty"`
	MaxHeight *float64 `yaml:"max_height,omitempty" json:"max_height,omitempty"`
}

// Build validates the definition and returns the corresponding region.
func (d Definition) Build() (Region, error) {
	var r Region
	switch d.Kind {
	case "rectangle":
		r = NewRectangleRegion(d.ID, d.X1, d.Y1, d.X2, d.Y2, d.MinHeight, d.MaxHeight)
	case "circle":
		r = NewCircleRegion(d.ID, d.CX, d.CY, d.R, d.MinHeight, d.MaxHeight)
	default:
		return nil, &MutationError{Reason: ReasonInvalidGeometry, ID: d.ID,
			Detail: "kind must be rectangle or circle"}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Describe returns the serializable form of a committed region.
func Describe(r Region) Definition {
	minH, maxH := r.HeightRange()
	d := Definition{ID: r.ID(), Kind: r.Kind(), MinHeight: minH, MaxHeight: maxH}
	switch shape := r.(type) {
	case *RectangleRegion:
		d.X1, d.Y1 = shape.Rect.X1, shape.Rect.Y1
		d.X2, d.Y2 = shape.Rect.X2, shape.Rect.Y2
	case *CircleRegion:
		d.CX, d.CY = shape.Circle.CX, shape.Circle.CY
		d.R = shape.Circle.R
	}
	return d
}
