package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestAxisAbsoluteConversion(t *testing.T) {
	a := NewAxisAt(50)

	assert.Equal(t, 30.0, a.LogicalToNative(f(30)))
	assert.Equal(t, 30.0, a.NativeToLogical(f(30)))
}

func TestAxisRelativeConversion(t *testing.T) {
	a := NewAxisAt(50)
	a.SetAbsolute(false)

	assert.Equal(t, 60.0, a.LogicalToNative(f(10)))
	assert.Equal(t, 10.0, a.NativeToLogical(f(60)))
}

func TestAxisNilValueMeansCurrent(t *testing.T) {
	a := NewAxisAt(42)

	assert.Equal(t, 42.0, a.LogicalToNative(nil))
	assert.Equal(t, 42.0, a.NativeToLogical(nil))
	assert.Equal(t, 42.0, a.SetLogical(nil))
}

func TestAxisConversionRoundTrip(t *testing.T) {
	a := NewAxisAt(50)
	a.SetHomeOffset(3)
	a.SetLogicalOffset(40)
	a.SetUnitMultiplier(25.4)

	logical := 7.5
	native := a.LogicalToNative(&logical)
	assert.InDelta(t, logical, a.NativeToLogical(&native), 1e-9)
}

func TestAxisLogicalOffsetRebasesReading(t *testing.T) {
	a := NewAxisAt(100)

	// G92 X0 at native 100: the position now reads as logical 0 but the
	// native position is unchanged.
	a.SetLogicalOffset(0)
	assert.Equal(t, 0.0, a.NativeToLogical(nil))
	assert.Equal(t, 100.0, a.Current)

	// Moving to logical 10 lands at native 10 past the new origin.
	a.SetLogical(f(10))
	assert.Equal(t, 10.0, a.NativeToLogical(nil))
	assert.Equal(t, 110.0, a.Current)

	// Reapplying the same offset is idempotent.
	before := a
	a.SetLogicalOffset(10)
	assert.Equal(t, before, a)
}

func TestAxisHomeOffsetKeepsPhysicalPosition(t *testing.T) {
	a := NewAxisAt(50)

	physical := a.Current + a.HomeOffset
	a.SetHomeOffset(5)
	assert.Equal(t, 5.0, a.HomeOffset)
	assert.Equal(t, physical, a.Current+a.HomeOffset)

	// Applying the same offset again changes nothing.
	before := a
	a.SetHomeOffset(5)
	assert.Equal(t, before, a)
}

func TestAxisHomeOffsetUsesLogicalUnits(t *testing.T) {
	a := NewAxisAt(50)
	a.SetUnitMultiplier(25.4)

	a.SetHomeOffset(1)
	assert.Equal(t, 25.4, a.HomeOffset)
}

func TestAxisSetHome(t *testing.T) {
	a := NewAxisAt(80)
	a.SetHomeOffset(5)
	a.SetLogicalOffset(0)

	a.SetHome()
	assert.Equal(t, 0.0, a.Current)
	assert.Equal(t, 0.0, a.Offset)
	assert.Equal(t, 5.0, a.HomeOffset)
	assert.True(t, a.Known)
}

func TestAxisUnknownUntilPositioned(t *testing.T) {
	a := NewAxis()
	assert.False(t, a.Known)

	a.SetLogical(f(25))
	assert.True(t, a.Known)
	assert.Equal(t, 25.0, a.Current)
}

func TestAxisExplicitModeOverride(t *testing.T) {
	a := NewAxisAt(50)
	a.SetAbsolute(false)

	// The override ignores the axis mode.
	assert.Equal(t, 30.0, a.LogicalToNativeIn(f(30), true))
	assert.Equal(t, 30.0, a.NativeToLogicalIn(f(30), true))
}

func TestPositionModeSwitchesAffectRightAxes(t *testing.T) {
	p := New()

	p.SetMoveAbsolute(false)
	assert.False(t, p.X.Absolute)
	assert.False(t, p.Y.Absolute)
	assert.False(t, p.Z.Absolute)
	assert.True(t, p.E.Absolute)

	p.SetExtruderAbsolute(false)
	assert.False(t, p.E.Absolute)
	p.SetMoveAbsolute(true)
	assert.False(t, p.E.Absolute)
}

func TestPositionCloneIsIndependent(t *testing.T) {
	p := New()
	p.X.SetLogical(f(10))

	c := p.Clone()
	c.X.SetLogical(f(99))

	assert.Equal(t, 10.0, p.X.Current)
	assert.Equal(t, 99.0, c.X.Current)
}

func TestPositionDefaults(t *testing.T) {
	p := New()

	assert.False(t, p.X.Known)
	assert.True(t, p.E.Known)
	assert.Equal(t, 0.0, p.E.Current)
	assert.Equal(t, 1.0, p.X.UnitMultiplier)
}
