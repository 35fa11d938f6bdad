// Retraction bookkeeping across excluded spans.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package exclude

import (
	"fmt"

	"excluderegion-go/pkg/gcode"
	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/position"
)

// RetractionState records a retraction that may need to be recovered
// after an excluded span ends, either a firmware retraction (G10/G11) or
// a move-based one (negative-E G0/G1).
type RetractionState struct {
	// FirmwareRetract marks a G10 retraction, recovered with G11.
	FirmwareRetract bool

	// ExtrusionAmount is the filament length to extrude on recovery, in
	// native units. Zero for firmware retractions.
	ExtrusionAmount float64

	// FeedRate is the recovery feed rate in native units/minute. Zero for
	// firmware retractions.
	FeedRate float64

	// OriginalCommand is the retraction gcode as received.
	OriginalCommand string

	// RecoverExcluded is set when the matching recovery arrived while
	// excluding; the recovery is then replayed before the next extrusion.
	RecoverExcluded bool

	// AllowCombine permits a following retraction to accumulate into this
	// one. Cleared once any recovery or extrusion is seen.
	AllowCombine bool
}

// NewMoveRetraction records a move-based retraction (G0/G1 with negative
// E and no X/Y/Z component).
func NewMoveRetraction(originalCommand string, extrusionAmount, feedRate float64) *RetractionState {
	return &RetractionState{
		ExtrusionAmount: extrusionAmount,
		FeedRate:        feedRate,
		OriginalCommand: originalCommand,
		AllowCombine:    true,
	}
}

// NewFirmwareRetraction records a G10 firmware retraction.
func NewFirmwareRetraction(originalCommand string) *RetractionState {
	return &RetractionState{
		FirmwareRetract: true,
		OriginalCommand: originalCommand,
		AllowCombine:    true,
	}
}

// Combine accumulates another retraction into this one. Slicers that wipe
// while retracting can split one retraction across several commands.
func (r *RetractionState) Combine(other *RetractionState, logger *log.Logger) {
	if r.FirmwareRetract != other.FirmwareRetract {
		logger.Warn("cannot combine firmware and move retractions, keeping the first: %s",
			other.OriginalCommand)
		return
	}
	r.ExtrusionAmount += other.ExtrusionAmount
	r.FeedRate = other.FeedRate
	r.OriginalCommand = other.OriginalCommand
}

// GenerateRetractCommands returns the commands performing this retraction
// at the tracked extruder position.
func (r *RetractionState) GenerateRetractCommands(pos *position.Position) []string {
	if r.FirmwareRetract {
		return []string{r.OriginalCommand}
	}
	return r.offsetCommands(pos, r.ExtrusionAmount)
}

// GenerateRecoverCommands returns the commands undoing this retraction at
// the tracked extruder position.
func (r *RetractionState) GenerateRecoverCommands(pos *position.Position) []string {
	if r.FirmwareRetract {
		return []string{"G11"}
	}
	return r.offsetCommands(pos, -r.ExtrusionAmount)
}

// offsetCommands claims an extruder position shifted by amount via G92,
// then issues a move back to the tracked position. The printer extrudes
// or retracts the difference while the tracked native position is
// unchanged.
func (r *RetractionState) offsetCommands(pos *position.Position, amount float64) []string {
	eAxis := &pos.E

	eAxis.Current += amount
	claim := fmt.Sprintf("G92 E%s", gcode.FormatFloat(eAxis.NativeToLogical(nil)))
	eAxis.Current -= amount

	move := fmt.Sprintf("G1 F%s E%s",
		gcode.FormatFloat(r.FeedRate/eAxis.UnitMultiplier),
		gcode.FormatFloat(eAxis.NativeToLogical(nil)))

	return []string{claim, move}
}
