package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleTables(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	modes := map[string]ExcludeMode{}
	for _, e := range s.ExtendedExcludeGcodes {
		modes[e.Gcode] = e.Mode
	}
	assert.Equal(t, ModeExclude, modes["G4"])
	assert.Equal(t, ModeMerge, modes["M204"])
	assert.Equal(t, ModeMerge, modes["M205"])
	assert.Equal(t, ModeLast, modes["M117"])
	assert.Equal(t, ModeMerge, modes["M73"])

	require.Len(t, s.AtCommandActions, 2)
	for _, a := range s.AtCommandActions {
		assert.Equal(t, "ExcludeRegion", a.Command)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clear_regions_after_print_finishes: true
entering_excluded_region_gcode: "M117 excluding"
arc_resolution: 0.5
regions:
  - kind: rectangle
    x1: 0
    y1: 0
    x2: 10
    y2: 10
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.ClearRegionsAfterPrintFinishes)
	assert.Equal(t, "M117 excluding", s.EnteringExcludedRegionGcode)
	assert.Equal(t, 0.5, s.ArcResolution)
	require.Len(t, s.Regions, 1)

	// Untouched defaults survive the overlay.
	assert.NotEmpty(t, s.ExtendedExcludeGcodes)
	assert.Equal(t, "info", s.LogLevel)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestValidateRejectsBadEntries(t *testing.T) {
	s := Default()
	s.ExtendedExcludeGcodes = append(s.ExtendedExcludeGcodes,
		ExtendedGcode{Gcode: "M400", Mode: "sometimes"})
	assert.Error(t, s.Validate())

	s = Default()
	s.AtCommandActions[0].ParameterPattern = "("
	assert.Error(t, s.Validate())

	s = Default()
	s.ArcResolution = 0
	assert.Error(t, s.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := Default()
	s.ExitingExcludedRegionGcode = "M117 resumed\nG4 P100"
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestSplitScript(t *testing.T) {
	assert.Nil(t, SplitScript(""))
	assert.Equal(t, []string{"M117 hi", "G4 P100"},
		SplitScript("  M117 hi \n\n G4 P100\n"))
}
