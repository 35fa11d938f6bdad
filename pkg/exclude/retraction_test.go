package exclude

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/position"
)

func discardLogger() *log.Logger {
	l := log.New("test")
	l.SetWriter(io.Discard)
	return l
}

func TestMoveRetractionCommands(t *testing.T) {
	pos := position.New()
	r := NewMoveRetraction("G1 E-2 F2400", 2, 2400)

	// Retract: claim the unretracted position, then move to the tracked
	// one so the printer pulls back the difference.
	assert.Equal(t, []string{"G92 E2", "G1 F2400 E0"}, r.GenerateRetractCommands(pos))
	assert.Equal(t, 0.0, pos.E.Current)

	// Recover mirrors the offset.
	assert.Equal(t, []string{"G92 E-2", "G1 F2400 E0"}, r.GenerateRecoverCommands(pos))
	assert.Equal(t, 0.0, pos.E.Current)
}

func TestMoveRetractionFeedRateUsesLogicalUnits(t *testing.T) {
	pos := position.New()
	pos.SetUnitMultiplier(25.4)
	r := NewMoveRetraction("G1 E-1 F2540", 1, 2540)

	cmds := r.GenerateRetractCommands(pos)
	assert.Contains(t, cmds[1], "F100")
}

func TestFirmwareRetractionCommands(t *testing.T) {
	pos := position.New()
	r := NewFirmwareRetraction("G10")

	assert.Equal(t, []string{"G10"}, r.GenerateRetractCommands(pos))
	assert.Equal(t, []string{"G11"}, r.GenerateRecoverCommands(pos))
}

func TestCombineAccumulatesAmount(t *testing.T) {
	r := NewMoveRetraction("G1 E-1 F2400", 1, 2400)
	r.Combine(NewMoveRetraction("G1 E-0.5 F1800", 0.5, 1800), discardLogger())

	assert.Equal(t, 1.5, r.ExtrusionAmount)
	assert.Equal(t, 1800.0, r.FeedRate)
}

func TestCombineRejectsMixedKinds(t *testing.T) {
	r := NewMoveRetraction("G1 E-1 F2400", 1, 2400)
	r.Combine(NewFirmwareRetraction("G10"), discardLogger())

	assert.False(t, r.FirmwareRetract)
	assert.Equal(t, 1.0, r.ExtrusionAmount)
}
