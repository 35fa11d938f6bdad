// Package gcode parses and re-synthesizes lines of RS274-style g-code.
//
// The parser is deliberately forgiving: whitespace between the command
// letter, code, parameter letters and values is optional ("G0X100Y100" is
// equivalent to "G0 X100 Y100"), and anything that cannot be interpreted as
// a command is classified rather than rejected so the caller can pass it
// through verbatim.
package gcode

import (
	"strconv"
	"strings"
)

// Kind classifies a parsed line.
type Kind int

const (
	// KindEmpty is a blank line.
	KindEmpty Kind = iota
	// KindComment is a comment-only line.
	KindComment
	// KindCommand is a G/M/T command.
	KindCommand
	// KindAtCommand is an out-of-band "@Name args" directive.
	KindAtCommand
	// KindUnknown is a line that could not be interpreted; it must be
	// passed through verbatim with no state update.
	KindUnknown
)

// Param is a single command parameter. A parameter may carry no value
// (e.g. the axis letters of "G28 X Y").
type Param struct {
	Letter   byte
	Value    float64
	HasValue bool
}

// P builds a valued parameter.
func P(letter byte, value float64) Param {
	return Param{Letter: letter, Value: value, HasValue: true}
}

// Flag builds a parameter with no value.
func Flag(letter byte) Param {
	return Param{Letter: letter}
}

// Command is a parsed G/M/T command with its ordered parameters.
type Command struct {
	Type       string // "G", "M" or "T"
	Code       int
	SubCode    int // -1 when absent (e.g. the 1 of "M80.1")
	Params     []Param
	StringArg  string // trailing free-form text (e.g. the message of M117)
	LineNumber int    // -1 when absent
	Checksum   int    // -1 when absent
}

// Line is the result of parsing one raw input line.
type Line struct {
	Kind    Kind
	Raw     string
	Command *Command // set when Kind == KindCommand

	// At-command fields, set when Kind == KindAtCommand.
	AtCommand string
	AtParams  string

	Comment string
}

// Gcode returns the normalized command code, e.g. "G1" or "M204".
// The subcode is not included.
func (c *Command) Gcode() string {
	return c.Type + strconv.Itoa(c.Code)
}

// Float returns the value of the first occurrence of the given parameter
// letter, and whether a valued occurrence was present.
func (c *Command) Float(letter byte) (float64, bool) {
	for _, p := range c.Params {
		if p.Letter == letter && p.HasValue {
			return p.Value, true
		}
	}
	return 0, false
}

// FloatPtr is like Float but returns nil when the parameter is absent,
// matching the "absent means unchanged" convention of the move handlers.
func (c *Command) FloatPtr(letter byte) *float64 {
	if v, ok := c.Float(letter); ok {
		return &v
	}
	return nil
}

// Has reports whether the parameter letter occurs at all, valued or not.
func (c *Command) Has(letter byte) bool {
	for _, p := range c.Params {
		if p.Letter == letter {
			return true
		}
	}
	return false
}

// FormatFloat renders a float the way emitted g-code expects: shortest
// representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String re-synthesizes the normalized command string, without line
// number, checksum or comment.
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.Type)
	sb.WriteString(strconv.Itoa(c.Code))
	if c.SubCode >= 0 {
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(c.SubCode))
	}
	for _, p := range c.Params {
		sb.WriteByte(' ')
		sb.WriteByte(p.Letter)
		if p.HasValue {
			sb.WriteString(FormatFloat(p.Value))
		}
	}
	if c.StringArg != "" {
		sb.WriteByte(' ')
		sb.WriteString(c.StringArg)
	}
	return sb.String()
}

// Build synthesizes a command string from a code and parameter list,
// e.g. Build("M204", P('S', 1000), P('P', 500)) == "M204 S1000 P500".
func Build(code string, params ...Param) string {
	var sb strings.Builder
	sb.WriteString(code)
	for _, p := range params {
		sb.WriteByte(' ')
		sb.WriteByte(p.Letter)
		if p.HasValue {
			sb.WriteString(FormatFloat(p.Value))
		}
	}
	return sb.String()
}
