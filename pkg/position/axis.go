// Per-axis position tracking with offset and unit bookkeeping.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package position tracks the printer's position state per axis: the
// native machine coordinate, the G92 coordinate offset, the M206 home
// offset, the absolute/relative positioning mode and the logical unit
// multiplier (1 for millimeters, 25.4 for inches).
package position

// Axis holds the position state of a single axis (X, Y, Z or E).
//
// Current, Offset and HomeOffset are always stored in native units
// (millimeters). Known is false until the axis has been given a position,
// normally by homing.
type Axis struct {
	Current        float64
	Known          bool
	HomeOffset     float64
	Offset         float64
	Absolute       bool
	UnitMultiplier float64
}

// NewAxis returns an axis in absolute millimeter mode with an unknown
// current position.
func NewAxis() Axis {
	return Axis{Absolute: true, UnitMultiplier: 1}
}

// NewAxisAt returns an axis in absolute millimeter mode positioned at the
// given native coordinate.
func NewAxisAt(current float64) Axis {
	return Axis{Current: current, Known: true, Absolute: true, UnitMultiplier: 1}
}

// SetAbsolute switches the axis between absolute and relative positioning
// mode (G90/G91, M82/M83).
func (a *Axis) SetAbsolute(absolute bool) {
	a.Absolute = absolute
}

// SetUnitMultiplier sets the logical-to-native unit conversion factor
// (G20/G21).
func (a *Axis) SetUnitMultiplier(m float64) {
	a.UnitMultiplier = m
}

// SetLogicalOffset adjusts the coordinate offset so the current native
// position reads as the given logical position (G92). The native position
// itself does not move.
func (a *Axis) SetLogicalOffset(position float64) {
	p := position
	a.Offset += a.Current - a.LogicalToNative(&p)
}

// SetHomeOffset sets the home offset (M206), keeping the physical position
// unchanged. The offset is given in logical units.
func (a *Axis) SetHomeOffset(homeOffset float64) {
	a.Current += a.HomeOffset
	a.HomeOffset = homeOffset * a.UnitMultiplier
	a.Current -= a.HomeOffset
}

// SetHome resets the axis to the home position (G28): native zero with the
// coordinate offset cleared. The home offset is preserved.
func (a *Axis) SetHome() {
	a.Current = 0
	a.Known = true
	a.Offset = 0
}

// SetLogical moves the axis to the given logical position and returns the
// new native position. A nil position means "no change".
func (a *Axis) SetLogical(position *float64) float64 {
	if position != nil {
		a.Current = a.LogicalToNative(position)
		a.Known = true
	}
	return a.Current
}

// LogicalToNative converts a logical coordinate to native units, honoring
// the axis positioning mode. A nil value returns the current native
// position unchanged.
func (a Axis) LogicalToNative(value *float64) float64 {
	return a.LogicalToNativeIn(value, a.Absolute)
}

// LogicalToNativeIn is LogicalToNative with an explicit positioning mode.
func (a Axis) LogicalToNativeIn(value *float64, absolute bool) float64 {
	if value == nil {
		return a.Current
	}
	v := *value * a.UnitMultiplier
	if absolute {
		return v + a.Offset + a.HomeOffset
	}
	return v + a.Current
}

// NativeToLogical converts a native coordinate to logical units, honoring
// the axis positioning mode. A nil value converts the current native
// position.
func (a Axis) NativeToLogical(value *float64) float64 {
	return a.NativeToLogicalIn(value, a.Absolute)
}

// NativeToLogicalIn is NativeToLogical with an explicit positioning mode.
func (a Axis) NativeToLogicalIn(value *float64, absolute bool) float64 {
	v := a.Current
	if value != nil {
		v = *value
	}
	if absolute {
		v -= a.Offset + a.HomeOffset
	} else {
		v -= a.Current
	}
	return v / a.UnitMultiplier
}
