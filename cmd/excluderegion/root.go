// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"excluderegion-go/pkg/exclude"
	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/metrics"
	"excluderegion-go/pkg/region"
	"excluderegion-go/pkg/settings"
)

var rootCmd = &cobra.Command{
	Use:   "excluderegion",
	Short: "G-code exclusion region filter",
	Long: `excluderegion rewrites a g-code stream so that nothing prints inside
configured 2D exclusion regions. Moves into a region are suppressed,
commands issued inside it are dropped, merged or deferred per policy,
and leaving the region synthesizes the moves needed to resume cleanly.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Settings file (YAML); defaults apply when omitted")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level (debug, info, warn, error)")
}

// setup builds the shared filter stack: settings, logger, region store
// seeded from the settings file, metrics and the engine.
func setup(cmd *cobra.Command) (*exclude.Engine, *settings.Settings, *metrics.Collector, *log.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	levelOverride, _ := cmd.Flags().GetString("log-level")

	cfg, err := settings.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	logger := log.New("excluderegion")
	level := cfg.LogLevel
	if levelOverride != "" {
		level = levelOverride
	}
	logger.SetLevel(log.ParseLevel(level))

	if cfg.LogFile != "" {
		w, err := log.NewRotatingFileWriter(log.RotationConfig{Filename: cfg.LogFile})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logger.SetWriter(w)
	} else {
		// The filtered stream owns stdout; logs go to stderr.
		logger.SetWriter(os.Stderr)
	}

	store := region.NewStore(logger)
	for _, def := range cfg.Regions {
		r, err := def.Build()
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("building region %q: %w", def.ID, err)
		}
		if err := store.Add(r); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("adding region %q: %w", def.ID, err)
		}
	}

	collector := metrics.New()
	engine, err := exclude.NewEngine(cfg, store, logger, collector)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return engine, cfg, collector, logger, nil
}
