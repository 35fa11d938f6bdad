// Per-gcode dispatch: moves, arcs, retraction, homing and tracked-state
// commands.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package exclude

import (
	"excluderegion-go/pkg/gcode"
	"excluderegion-go/pkg/geometry"
	"excluderegion-go/pkg/log"
)

// Handlers routes parsed commands to the state machine. Commands without
// a dedicated handler flow through the extended gcode policy table.
type Handlers struct {
	state         *State
	logger        *log.Logger
	arcResolution float64
}

// NewHandlers builds the dispatch layer.
func NewHandlers(state *State, arcResolution float64, logger *log.Logger) *Handlers {
	return &Handlers{
		state:         state,
		logger:        logger.Component("gcode"),
		arcResolution: arcResolution,
	}
}

// HandleCommand processes one parsed command line and returns the lines
// to emit in its place. The raw line itself is included when it should
// pass through.
func (h *Handlers) HandleCommand(line gcode.Line) []string {
	h.state.CountCommand()
	cmd := line.Command

	switch cmd.Gcode() {
	case "G0", "G1":
		return h.handleLinearMove(line)
	case "G2":
		return h.handleArcMove(line, true)
	case "G3":
		return h.handleArcMove(line, false)
	case "G10":
		return h.handleFirmwareRetract(line)
	case "G11":
		return h.handleFirmwareRecover(line)
	case "G20":
		h.state.SetUnitMultiplier(inchToMM)
		return []string{line.Raw}
	case "G21":
		h.state.SetUnitMultiplier(1)
		return []string{line.Raw}
	case "G28":
		return h.handleHome(line)
	case "G90":
		h.state.SetAbsoluteMode(true)
		return []string{line.Raw}
	case "G91":
		h.state.SetAbsoluteMode(false)
		return []string{line.Raw}
	case "G92":
		return h.handleSetPosition(line)
	case "M82":
		h.state.Position().SetExtruderAbsolute(true)
		return []string{line.Raw}
	case "M83":
		h.state.Position().SetExtruderAbsolute(false)
		return []string{line.Raw}
	case "M206":
		return h.handleHomeOffset(line)
	}

	if cmds, handled := h.state.ProcessExtendedGcode(line.Raw, cmd.Gcode(), cmd.Params); handled {
		return cmds
	}
	return []string{line.Raw}
}

// handleLinearMove processes G0/G1.
func (h *Handlers) handleLinearMove(line gcode.Line) []string {
	cmd := line.Command
	return h.state.ProcessMove(line.Raw,
		cmd.FloatPtr('E'), cmd.FloatPtr('F'), cmd.FloatPtr('Z'),
		cmd.FloatPtr('X'), cmd.FloatPtr('Y'))
}

// handleArcMove processes G2/G3 by flattening the arc into sampled
// segment endpoints. A degenerate arc definition passes through
// unmodified; the printer's own handling applies.
func (h *Handlers) handleArcMove(line gcode.Line, clockwise bool) []string {
	cmd := line.Command
	pos := h.state.Position()

	x0 := pos.X.NativeToLogical(nil)
	y0 := pos.Y.NativeToLogical(nil)
	x, y := x0, y0
	if v, ok := cmd.Float('X'); ok {
		x = v
	}
	if v, ok := cmd.Float('Y'); ok {
		y = v
	}

	var (
		arc geometry.Arc
		err error
	)
	if radius, ok := cmd.Float('R'); ok {
		arc, err = geometry.ArcFromRadius(radius, x0, y0, x, y, clockwise)
	} else {
		i, _ := cmd.Float('I')
		j, _ := cmd.Float('J')
		if i == 0 && j == 0 {
			err = geometry.ErrDegenerateArc
		} else {
			arc, err = geometry.ArcFromCenter(x0+i, y0+j, x0, y0, x, y, clockwise)
		}
	}
	if err != nil {
		h.logger.Info("unable to interpret arc %q from [%s, %s]: %v",
			line.Raw, gcode.FormatFloat(x0), gcode.FormatFloat(y0), err)
		return []string{line.Raw}
	}

	points := arc.Points(h.arcResolution)
	xyPairs := make([]*float64, 0, 2*len(points))
	for i := range points[:len(points)-1] {
		px, py := points[i].X, points[i].Y
		xyPairs = append(xyPairs, &px, &py)
	}
	// The final sample is the commanded destination, not the flattened
	// approximation of it.
	destX, destY := x, y
	xyPairs = append(xyPairs, &destX, &destY)

	return h.state.ProcessMove(line.Raw,
		cmd.FloatPtr('E'), cmd.FloatPtr('F'), cmd.FloatPtr('Z'), xyPairs...)
}

// handleFirmwareRetract processes G10. A P or L parameter marks a tool
// offset or workspace coordinate command, passed through unfiltered.
func (h *Handlers) handleFirmwareRetract(line gcode.Line) []string {
	cmd := line.Command
	if cmd.Has('P') || cmd.Has('L') {
		return []string{line.Raw}
	}

	h.logger.Debug("firmware retraction: %s", line.Raw)
	cmds := h.state.recordRetraction(NewFirmwareRetraction(line.Raw))
	if len(cmds) == 0 {
		return h.state.ignore()
	}
	return cmds
}

// handleFirmwareRecover processes G11.
func (h *Handlers) handleFirmwareRecover(line gcode.Line) []string {
	cmds := h.state.recoverRetractionIfNeeded(line.Raw, true)
	if len(cmds) == 0 {
		return h.state.ignore()
	}
	return cmds
}

// handleHome processes G28. Named axes reset to the home position; no
// axis letters homes all three. Homing while excluding force-exits the
// span first, since the home position bears no relation to the tracked
// location the regions were tested against.
func (h *Handlers) handleHome(line gcode.Line) []string {
	var cmds []string
	if h.state.excluding {
		cmds = h.state.ExitExcludedRegion(line.Raw)
	}

	cmd := line.Command
	homeX, homeY, homeZ := cmd.Has('X'), cmd.Has('Y'), cmd.Has('Z')
	if !homeX && !homeY && !homeZ {
		homeX, homeY, homeZ = true, true, true
	}

	pos := h.state.Position()
	if homeX {
		pos.X.SetHome()
	}
	if homeY {
		pos.Y.SetHome()
	}
	if homeZ {
		pos.Z.SetHome()
	}

	return append(cmds, line.Raw)
}

// handleSetPosition processes G92. E sets the tracked position directly;
// X/Y/Z adjust the coordinate offset without moving.
func (h *Handlers) handleSetPosition(line gcode.Line) []string {
	pos := h.state.Position()
	for _, p := range line.Command.Params {
		if !p.HasValue {
			continue
		}
		switch p.Letter {
		case 'E':
			v := p.Value
			pos.E.SetLogical(&v)
		case 'X':
			pos.X.SetLogicalOffset(p.Value)
		case 'Y':
			pos.Y.SetLogicalOffset(p.Value)
		case 'Z':
			pos.Z.SetLogicalOffset(p.Value)
		}
	}
	return []string{line.Raw}
}

// handleHomeOffset processes M206.
func (h *Handlers) handleHomeOffset(line gcode.Line) []string {
	pos := h.state.Position()
	for _, p := range line.Command.Params {
		if !p.HasValue {
			continue
		}
		switch p.Letter {
		case 'X':
			pos.X.SetHomeOffset(p.Value)
		case 'Y':
			pos.Y.SetHomeOffset(p.Value)
		case 'Z':
			pos.Z.SetHomeOffset(p.Value)
		}
	}
	return []string{line.Raw}
}
