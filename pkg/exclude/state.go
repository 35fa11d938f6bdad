// Exclusion state machine: entry/exit detection, recovery synthesis and
// retraction tracking.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package exclude

import (
	"fmt"
	"time"

	"excluderegion-go/pkg/gcode"
	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/metrics"
	"excluderegion-go/pkg/position"
	"excluderegion-go/pkg/region"
	"excluderegion-go/pkg/settings"
)

// Mode is the externally visible state of the engine.
type Mode string

const (
	// ModeDisabled ignores regions entirely; commands pass through.
	ModeDisabled Mode = "disabled"
	// ModeArmed enforces regions; the tool is outside all of them.
	ModeArmed Mode = "armed"
	// ModeExcluding suppresses commands; the tool is inside a region.
	ModeExcluding Mode = "excluding"
)

const inchToMM = 25.4

// State tracks position, feed rate, retraction and the exclusion span
// itself. It is driven one command at a time by the handler layer and is
// not safe for concurrent use; the region store handles cross-goroutine
// publication.
type State struct {
	logger  *log.Logger
	store   *region.Store
	metrics *metrics.Collector

	g90InfluencesExtruder bool
	enteringScript        []string
	exitingScript         []string
	rules                 map[string]settings.ExcludeMode

	pos                    *position.Position
	feedRate               float64
	feedRateUnitMultiplier float64
	enabled                bool
	excluding              bool
	excludeStartTime       time.Time
	numCommands            int
	numExcludedCommands    int
	lastRetraction         *RetractionState
	lastPosition           *position.Position
	pending                PendingBuffer
}

// NewState builds a state machine bound to the given region store.
func NewState(cfg *settings.Settings, store *region.Store, logger *log.Logger, collector *metrics.Collector) *State {
	s := &State{
		logger:                logger.Component("state"),
		store:                 store,
		metrics:               collector,
		g90InfluencesExtruder: cfg.G90InfluencesExtruder,
		enteringScript:        settings.SplitScript(cfg.EnteringExcludedRegionGcode),
		exitingScript:         settings.SplitScript(cfg.ExitingExcludedRegionGcode),
		rules:                 extendedRules(cfg.ExtendedExcludeGcodes),
	}
	s.Reset()
	return s
}

// Reset returns the tracking state to its baseline, discarding any
// pending buffers without emitting them. The enabled/disabled baseline is
// preserved so an @-command before print start keeps its effect.
func (s *State) Reset() {
	if s.pos == nil {
		s.enabled = true
	}
	s.pos = position.New()
	s.feedRate = 0
	s.feedRateUnitMultiplier = 1
	s.excluding = false
	s.excludeStartTime = time.Time{}
	s.numCommands = 0
	s.numExcludedCommands = 0
	s.lastRetraction = nil
	s.lastPosition = nil
	s.pending.Clear()
}

// Mode returns the externally visible state.
func (s *State) Mode() Mode {
	switch {
	case !s.enabled:
		return ModeDisabled
	case s.excluding:
		return ModeExcluding
	default:
		return ModeArmed
	}
}

// Position exposes the tracked position for the handler layer.
func (s *State) Position() *position.Position {
	return s.pos
}

// FeedRate returns the tracked feed rate in native units/minute.
func (s *State) FeedRate() float64 {
	return s.feedRate
}

// SetUnitMultiplier applies G20/G21 to every axis and the feed rate.
func (s *State) SetUnitMultiplier(m float64) {
	s.feedRateUnitMultiplier = m
	s.pos.SetUnitMultiplier(m)
}

// SetAbsoluteMode applies G90/G91, extending to the extruder axis when
// the firmware is configured that way.
func (s *State) SetAbsoluteMode(absolute bool) {
	s.pos.SetMoveAbsolute(absolute)
	if s.g90InfluencesExtruder {
		s.pos.SetExtruderAbsolute(absolute)
	}
}

// EnableExclusion arms the engine (idempotent).
func (s *State) EnableExclusion(context string) {
	if s.enabled {
		s.logger.Debug("exclusion already enabled: context=%s", context)
		return
	}
	s.logger.Info("exclusion enabled: context=%s", context)
	s.enabled = true
}

// DisableExclusion disables the engine. An in-progress excluded span is
// force-exited first; the returned commands perform that exit.
func (s *State) DisableExclusion(context string) []string {
	if !s.enabled {
		s.logger.Debug("exclusion already disabled: context=%s", context)
		return nil
	}
	s.logger.Info("exclusion disabled: context=%s", context)
	s.enabled = false
	if s.excluding {
		return s.ExitExcludedRegion(context)
	}
	return nil
}

// CountCommand notes one intercepted command for span statistics.
func (s *State) CountCommand() {
	s.numCommands++
}

// ignore drops the current command, counting it for span statistics.
func (s *State) ignore() []string {
	s.numExcludedCommands++
	s.metrics.LineExcluded()
	return []string{}
}

// isAnyPointExcluded updates the tracked X/Y position through each
// coordinate pair and reports whether any landed inside an active region.
// Containment is tested in native coordinates against one store snapshot,
// at the current native Z. Position updates happen even while disabled so
// re-enabling resumes from accurate state.
func (s *State) isAnyPointExcluded(xyPairs ...*float64) bool {
	snapshot := s.store.Snapshot()
	excluded := false
	for i := 0; i+1 < len(xyPairs); i += 2 {
		x := s.pos.X.SetLogical(xyPairs[i])
		y := s.pos.Y.SetLogical(xyPairs[i+1])
		if !excluded && s.enabled && snapshot.AnyContains(x, y, s.pos.Z.Current) {
			excluded = true
		}
	}
	return excluded
}

// recordRetraction tracks a retraction and decides whether it executes.
func (s *State) recordRetraction(retract *RetractionState) []string {
	last := s.lastRetraction
	switch {
	case last == nil:
		s.lastRetraction = retract
		if s.excluding {
			// The first retraction of a span executes so the physical
			// filament state matches the bookkeeping.
			s.logger.Info("initial retraction while excluding, allowing it to proceed: %s",
				retract.OriginalCommand)
			return retract.GenerateRetractCommands(s.pos)
		}
		return []string{retract.OriginalCommand}

	case last.RecoverExcluded:
		// The prior recovery was excluded, so the filament is already
		// retracted; swallow this retraction and clear the flag.
		last.RecoverExcluded = false
		if !last.FirmwareRetract {
			last.FeedRate = s.feedRate
		}
		return nil

	case last.AllowCombine:
		last.Combine(retract, s.logger)
		if s.excluding {
			s.logger.Debug("combined consecutive retraction while excluding: %s",
				retract.OriginalCommand)
			return retract.GenerateRetractCommands(s.pos)
		}
		return []string{retract.OriginalCommand}

	case s.excluding:
		s.logger.Debug("suppressing retraction, filament already retracted")
		return nil

	default:
		return []string{retract.OriginalCommand}
	}
}

// recoverRetractionIfNeeded replays a pending recovery before cmd when
// one is owed. isRecoveryCommand marks cmd as itself a recovery (G11 or a
// positive-E move with no X/Y/Z) rather than an extruding travel move.
// While excluding, cmd is dropped and the recovery deferred instead.
func (s *State) recoverRetractionIfNeeded(cmd string, isRecoveryCommand bool) []string {
	if s.lastRetraction != nil {
		s.lastRetraction.AllowCombine = false
		if s.excluding {
			if isRecoveryCommand {
				s.lastRetraction.RecoverExcluded = true
			}
			return nil
		}

		last := s.lastRetraction
		s.lastRetraction = nil
		var cmds []string
		if last.RecoverExcluded {
			s.logger.Info("executing pending recovery for previous retraction: %s",
				last.OriginalCommand)
			cmds = last.GenerateRecoverCommands(s.pos)
		}
		return append(cmds, cmd)
	}

	if s.excluding {
		return nil
	}
	if isRecoveryCommand {
		// A recovery with no matching retraction; slicers emit one at
		// file start to prime the nozzle.
		s.logger.Debug("recovery without a corresponding retraction: %s", cmd)
	}
	return []string{cmd}
}

// processNonMove handles G0/G1 commands with no X/Y/Z component: either a
// retraction, a recovery, or a bare feed rate change.
func (s *State) processNonMove(cmd string, deltaE float64) []string {
	switch {
	case deltaE < 0:
		return s.recordRetraction(NewMoveRetraction(cmd, -deltaE, s.feedRate))
	case deltaE > 0:
		return s.recoverRetractionIfNeeded(cmd, true)
	case !s.excluding:
		return []string{cmd}
	}
	return nil
}

// processExcludedMove handles a move with at least one sampled point in
// an active region.
func (s *State) processExcludedMove(cmd string, deltaE float64) []string {
	var cmds []string
	if !s.excluding {
		cmds = s.EnterExcludedRegion(cmd)
	}
	if deltaE < 0 {
		// Slic3r wipes retract during travel moves.
		cmds = append(cmds, s.processNonMove(cmd, deltaE)...)
	}
	return cmds
}

// ProcessMove applies a linear or pre-flattened arc move and returns the
// commands to emit. A nil return means the command was consumed.
//
// extruderPosition, feedRate and finalZ are logical values, nil when the
// parameter is absent. xyPairs alternates x and y sample values in
// logical units; the last pair is the move's destination.
func (s *State) ProcessMove(cmd string, extruderPosition, feedRate, finalZ *float64, xyPairs ...*float64) []string {
	priorE := s.pos.E.Current
	deltaE := 0.0
	if extruderPosition != nil {
		deltaE = s.pos.E.SetLogical(extruderPosition) - priorE
	}

	isMove := finalZ != nil
	if finalZ != nil {
		s.pos.Z.SetLogical(finalZ)
	}
	if !isMove {
		for _, v := range xyPairs {
			if v != nil {
				isMove = true
				break
			}
		}
	}

	if feedRate != nil {
		s.feedRate = *feedRate * s.feedRateUnitMultiplier
	}

	var cmds []string
	switch {
	case !isMove:
		// X/Y/Z all absent: retraction, recovery or feed-only. A move to
		// the identical coordinates still counts as a move, matching
		// Marlin's auto-retract detection.
		cmds = s.processNonMove(cmd, deltaE)
	case s.isAnyPointExcluded(xyPairs...):
		cmds = s.processExcludedMove(cmd, deltaE)
	case s.excluding:
		cmds = s.ExitExcludedRegion(cmd)
	case deltaE != 0:
		cmds = s.recoverRetractionIfNeeded(cmd, false)
	default:
		cmds = []string{cmd}
	}

	if len(cmds) == 0 {
		return s.ignore()
	}
	return cmds
}

// EnterExcludedRegion opens an excluded span and returns the entering
// script, if configured.
func (s *State) EnterExcludedRegion(cmd string) []string {
	if s.excluding {
		s.logger.Debug("already excluding, entry ignored: cmd=%s", cmd)
		return nil
	}
	s.excluding = true
	s.excludeStartTime = time.Now()
	s.numCommands = 0
	s.numExcludedCommands = 0
	s.lastPosition = s.pos.Clone()
	s.metrics.SpanEntered()
	s.logger.Info("START excluding: cmd=%s", cmd)

	return append([]string(nil), s.enteringScript...)
}

// ExitExcludedRegion closes the span: flush pending commands and the exit
// script, recalibrate the logical extruder position, then travel to the
// destination with Z ordered against the last printed height.
func (s *State) ExitExcludedRegion(cmd string) []string {
	if !s.excluding {
		s.logger.Debug("not excluding, exit ignored: cmd=%s", cmd)
		return nil
	}
	s.excluding = false

	cmds := s.pending.Flush()
	cmds = append(cmds, s.exitingScript...)

	cmds = append(cmds, fmt.Sprintf("G92 E%s", gcode.FormatFloat(s.pos.E.NativeToLogical(nil))))

	newZ := s.pos.Z.NativeToLogical(nil)
	oldZ := s.lastPosition.Z.NativeToLogical(nil)
	feed := ""
	if s.feedRate > 0 {
		feed = fmt.Sprintf(" F%s", gcode.FormatFloat(s.feedRate/s.feedRateUnitMultiplier))
	}
	moveZ := fmt.Sprintf("G0%s Z%s", feed, gcode.FormatFloat(newZ))

	// Raise before traveling, lower after; either way the nozzle crosses
	// adjacent geometry at the higher of the two heights.
	if newZ > oldZ {
		cmds = append(cmds, moveZ)
	}
	cmds = append(cmds, fmt.Sprintf("G0%s X%s Y%s",
		feed,
		gcode.FormatFloat(s.pos.X.NativeToLogical(nil)),
		gcode.FormatFloat(s.pos.Y.NativeToLogical(nil))))
	if newZ < oldZ {
		cmds = append(cmds, moveZ)
	}

	s.logger.Info("STOP excluding: cmd=%s, commands=%d, excluded=%d, elapsed=%s",
		cmd, s.numCommands, s.numExcludedCommands,
		time.Since(s.excludeStartTime).Round(time.Millisecond))

	return cmds
}

// ProcessExtendedGcode applies the configured policy for the command
// code. The second return is false when no rule applies and the command
// should continue through normal processing.
func (s *State) ProcessExtendedGcode(raw string, code string, params []gcode.Param) ([]string, bool) {
	if !s.excluding {
		return nil, false
	}
	mode, ok := s.rules[code]
	if !ok {
		return nil, false
	}

	s.logger.Debug("extended gcode %s handled with mode %s: %s", code, mode, raw)
	switch mode {
	case settings.ModeMerge:
		s.pending.RecordMerge(code, params)
	case settings.ModeFirst:
		s.pending.RecordFirst(code, raw)
	case settings.ModeLast:
		s.pending.RecordLast(code, raw)
	case settings.ModeExclude:
		// Dropped entirely.
	}
	return s.ignore(), true
}

// GetStatus reports the engine state for the status API.
func (s *State) GetStatus() map[string]any {
	status := map[string]any{
		"mode":              string(s.Mode()),
		"excluding":         s.excluding,
		"feed_rate":         s.feedRate,
		"pending_commands":  s.pending.Len(),
		"position":          s.pos.GetStatus(),
		"excluded_commands": s.numExcludedCommands,
	}
	if s.excluding {
		status["exclude_started"] = s.excludeStartTime.Format(time.RFC3339)
	}
	return status
}
