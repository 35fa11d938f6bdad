// This file may be distributed under the terms of the GNU GPLv3 license.

// Package settings holds the filter configuration: exclusion scripts, the
// extended gcode rule table, the @-command rule table and general engine
// options. Configuration is loaded from a YAML file over a set of
// defaults.
package settings

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"excluderegion-go/pkg/region"
)

// ExcludeMode selects how a registered gcode is handled while the tool is
// inside an excluded area.
type ExcludeMode string

const (
	// ModeExclude drops every occurrence.
	ModeExclude ExcludeMode = "exclude"
	// ModeFirst emits only the first occurrence, on exit.
	ModeFirst ExcludeMode = "first"
	// ModeLast emits only the most recent occurrence, on exit.
	ModeLast ExcludeMode = "last"
	// ModeMerge emits one command with the merged parameters of all
	// occurrences, on exit.
	ModeMerge ExcludeMode = "merge"
)

// AtAction is the action an @-command rule triggers.
type AtAction string

const (
	ActionEnableExclusion  AtAction = "enable_exclusion"
	ActionDisableExclusion AtAction = "disable_exclusion"
)

// ExtendedGcode is one entry of the extended gcode rule table.
type ExtendedGcode struct {
	Gcode       string      `yaml:"gcode"`
	Mode        ExcludeMode `yaml:"mode"`
	Description string      `yaml:"description,omitempty"`
}

// AtCommandAction is one entry of the @-command rule table. The command
// name match is case sensitive; ParameterPattern is an optional regular
// expression matched against the raw parameter text.
type AtCommandAction struct {
	Command          string   `yaml:"command"`
	ParameterPattern string   `yaml:"parameter_pattern,omitempty"`
	Action           AtAction `yaml:"action"`
	Description      string   `yaml:"description,omitempty"`
}

// Settings is the full engine configuration.
type Settings struct {
	ClearRegionsAfterPrintFinishes bool `yaml:"clear_regions_after_print_finishes"`
	MayShrinkRegionsWhilePrinting  bool `yaml:"may_shrink_regions_while_printing"`

	// G90InfluencesExtruder selects firmware behavior where G90/G91 also
	// switch the extruder axis mode instead of only M82/M83.
	G90InfluencesExtruder bool `yaml:"g90_influences_extruder"`

	// Multi-line gcode scripts run on exclusion entry and exit.
	EnteringExcludedRegionGcode string `yaml:"entering_excluded_region_gcode,omitempty"`
	ExitingExcludedRegionGcode  string `yaml:"exiting_excluded_region_gcode,omitempty"`

	// ArcResolution is the flattening resolution for G2/G3 containment
	// sampling, in millimeters of travel per segment.
	ArcResolution float64 `yaml:"arc_resolution"`

	ExtendedExcludeGcodes []ExtendedGcode   `yaml:"extended_exclude_gcodes"`
	AtCommandActions      []AtCommandAction `yaml:"at_command_actions"`

	// Regions predefined at startup, typically written back by the
	// control interface.
	Regions []region.Definition `yaml:"regions,omitempty"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// Default returns the stock configuration.
func Default() *Settings {
	return &Settings{
		ArcResolution: 1.0,
		LogLevel:      "info",
		ExtendedExcludeGcodes: []ExtendedGcode{
			{Gcode: "G4", Mode: ModeExclude,
				Description: "Ignore dwell commands inside an excluded area to reduce delays"},
			{Gcode: "M73", Mode: ModeMerge,
				Description: "Track print progress updates and apply the most recent on exit"},
			{Gcode: "M117", Mode: ModeLast,
				Description: "Only display the most recent status message after exiting"},
			{Gcode: "M204", Mode: ModeMerge,
				Description: "Record acceleration changes and apply the most recent values on exit"},
			{Gcode: "M205", Mode: ModeMerge,
				Description: "Record advanced setting changes and apply the most recent values on exit"},
		},
		AtCommandActions: []AtCommandAction{
			{Command: "ExcludeRegion", ParameterPattern: `^\s*(enable|on)(\s|$)`,
				Action: ActionEnableExclusion, Description: "Default action to enable exclusion"},
			{Command: "ExcludeRegion", ParameterPattern: `^\s*(disable|off)(\s|$)`,
				Action: ActionDisableExclusion, Description: "Default action to disable exclusion"},
		},
	}
}

// Load reads a YAML configuration file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (*Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks rule tables, patterns and region definitions.
func (s *Settings) Validate() error {
	if s.ArcResolution <= 0 {
		return fmt.Errorf("arc_resolution must be greater than 0")
	}
	for _, e := range s.ExtendedExcludeGcodes {
		if e.Gcode == "" {
			return fmt.Errorf("extended exclude gcode entry is missing a gcode")
		}
		switch e.Mode {
		case ModeExclude, ModeFirst, ModeLast, ModeMerge:
		default:
			return fmt.Errorf("extended exclude gcode %s: invalid mode %q", e.Gcode, e.Mode)
		}
	}
	for _, a := range s.AtCommandActions {
		if a.Command == "" {
			return fmt.Errorf("at-command action entry is missing a command")
		}
		switch a.Action {
		case ActionEnableExclusion, ActionDisableExclusion:
		default:
			return fmt.Errorf("at-command %s: invalid action %q", a.Command, a.Action)
		}
		if a.ParameterPattern != "" {
			if _, err := regexp.Compile(a.ParameterPattern); err != nil {
				return fmt.Errorf("at-command %s: bad parameter pattern: %w", a.Command, err)
			}
		}
	}
	for _, d := range s.Regions {
		if _, err := d.Build(); err != nil {
			return fmt.Errorf("region definition: %w", err)
		}
	}
	return nil
}

// Save writes the configuration back to a YAML file.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// SplitScript splits a multi-line gcode script into its non-empty lines.
func SplitScript(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
