package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNoSpacesEquivalence(t *testing.T) {
	a := ParseLine("G0X100Y100")
	b := ParseLine("G0 X100 Y100")

	require.Equal(t, KindCommand, a.Kind)
	require.Equal(t, KindCommand, b.Kind)
	assert.Equal(t, b.Command.Gcode(), a.Command.Gcode())
	assert.Equal(t, b.Command.Params, a.Command.Params)
}

func TestParseSpaceBetweenLetterAndValue(t *testing.T) {
	line := ParseLine("G1 X   123 Y7")
	require.Equal(t, KindCommand, line.Kind)

	x, ok := line.Command.Float('X')
	require.True(t, ok)
	assert.Equal(t, 123.0, x)
	y, ok := line.Command.Float('Y')
	require.True(t, ok)
	assert.Equal(t, 7.0, y)
}

func TestParseCommandForms(t *testing.T) {
	tests := []struct {
		raw     string
		gcode   string
		subCode int
	}{
		{"G1 X5", "G1", -1},
		{"g28 x y", "G28", -1},
		{"M204 S1000", "M204", -1},
		{"M80.1", "M80", 1},
		{"T0", "T0", -1},
		{"  G92E0", "G92", -1},
	}
	for _, tt := range tests {
		line := ParseLine(tt.raw)
		require.Equal(t, KindCommand, line.Kind, "raw=%q", tt.raw)
		assert.Equal(t, tt.gcode, line.Command.Gcode(), "raw=%q", tt.raw)
		assert.Equal(t, tt.subCode, line.Command.SubCode, "raw=%q", tt.raw)
	}
}

func TestParseNegativeAndDecimalValues(t *testing.T) {
	line := ParseLine("G1 E-2.5 F2400 Z.3")
	require.Equal(t, KindCommand, line.Kind)

	e, _ := line.Command.Float('E')
	assert.Equal(t, -2.5, e)
	f, _ := line.Command.Float('F')
	assert.Equal(t, 2400.0, f)
	z, _ := line.Command.Float('Z')
	assert.Equal(t, 0.3, z)
}

func TestParseValuelessParameters(t *testing.T) {
	line := ParseLine("G28 X Y")
	require.Equal(t, KindCommand, line.Kind)

	assert.True(t, line.Command.Has('X'))
	assert.True(t, line.Command.Has('Y'))
	assert.False(t, line.Command.Has('Z'))
	_, ok := line.Command.Float('X')
	assert.False(t, ok)
}

func TestParseClassification(t *testing.T) {
	assert.Equal(t, KindEmpty, ParseLine("   ").Kind)
	assert.Equal(t, KindComment, ParseLine("; just a comment").Kind)
	assert.Equal(t, KindUnknown, ParseLine("this is not gcode!").Kind)
	assert.Equal(t, KindUnknown, ParseLine("123abc").Kind)
}

func TestParseTrailingComment(t *testing.T) {
	line := ParseLine("G1 X5 ; move")
	require.Equal(t, KindCommand, line.Kind)
	assert.Equal(t, "; move", line.Comment)
	x, _ := line.Command.Float('X')
	assert.Equal(t, 5.0, x)
}

func TestParseAtCommand(t *testing.T) {
	line := ParseLine("@ExcludeRegion disable for now")
	require.Equal(t, KindAtCommand, line.Kind)
	assert.Equal(t, "ExcludeRegion", line.AtCommand)
	assert.Equal(t, "disable for now", line.AtParams)

	bare := ParseLine("@pause")
	require.Equal(t, KindAtCommand, bare.Kind)
	assert.Equal(t, "pause", bare.AtCommand)
	assert.Equal(t, "", bare.AtParams)
}

func TestParseLineNumberAndChecksum(t *testing.T) {
	line := ParseLine("N5 G0 X1*83")
	require.Equal(t, KindCommand, line.Kind)
	assert.Equal(t, 5, line.Command.LineNumber)
	assert.Equal(t, 83, line.Command.Checksum)
	x, _ := line.Command.Float('X')
	assert.Equal(t, 1.0, x)
}

func TestParseStringArgument(t *testing.T) {
	line := ParseLine("M117 Hello World")
	require.Equal(t, KindCommand, line.Kind)
	assert.Equal(t, "M117", line.Command.Gcode())
	assert.Equal(t, "Hello World", line.Command.StringArg)
}

func TestCommandString(t *testing.T) {
	line := ParseLine("g1x5.50 y10")
	require.Equal(t, KindCommand, line.Kind)
	assert.Equal(t, "G1 X5.5 Y10", line.Command.String())
}

func TestBuild(t *testing.T) {
	assert.Equal(t, "M204 S1000 P500", Build("M204", P('S', 1000), P('P', 500)))
	assert.Equal(t, "G0 F1200 Z0.4", Build("G0", P('F', 1200), P('Z', 0.4)))
	assert.Equal(t, "G28 X", Build("G28", Flag('X')))
}
