// This file may be distributed under the terms of the GNU GPLv3 license.

package position

// Position bundles the axis state for X, Y, Z and E. The extruder axis
// starts at a known zero position; the movement axes are unknown until
// homed.
type Position struct {
	X, Y, Z, E Axis
}

// New returns a position with all axes in absolute millimeter mode.
func New() *Position {
	return &Position{
		X: NewAxis(),
		Y: NewAxis(),
		Z: NewAxis(),
		E: NewAxisAt(0),
	}
}

// Clone returns an independent copy.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

// SetUnitMultiplier sets the unit conversion factor on every axis
// (G20/G21).
func (p *Position) SetUnitMultiplier(m float64) {
	p.X.SetUnitMultiplier(m)
	p.Y.SetUnitMultiplier(m)
	p.Z.SetUnitMultiplier(m)
	p.E.SetUnitMultiplier(m)
}

// SetMoveAbsolute switches the movement axes between absolute and relative
// mode (G90/G91), leaving the extruder axis alone.
func (p *Position) SetMoveAbsolute(absolute bool) {
	p.X.SetAbsolute(absolute)
	p.Y.SetAbsolute(absolute)
	p.Z.SetAbsolute(absolute)
}

// SetExtruderAbsolute switches the extruder axis between absolute and
// relative mode (M82/M83).
func (p *Position) SetExtruderAbsolute(absolute bool) {
	p.E.SetAbsolute(absolute)
}

// GetStatus reports the position state for the status API.
func (p *Position) GetStatus() map[string]any {
	axis := func(a Axis) map[string]any {
		return map[string]any{
			"current":         a.Current,
			"known":           a.Known,
			"home_offset":     a.HomeOffset,
			"offset":          a.Offset,
			"absolute":        a.Absolute,
			"unit_multiplier": a.UnitMultiplier,
		}
	}
	return map[string]any{
		"x": axis(p.X),
		"y": axis(p.Y),
		"z": axis(p.Z),
		"e": axis(p.E),
	}
}
