// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"excluderegion-go/pkg/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Filter stdin while serving the control API",
	Long: `Filters g-code from stdin to stdout while exposing the control API:
exclusion status, live region add/replace/remove and websocket
region-change notifications, plus Prometheus metrics on /metrics.
Regions added over the API take effect on the very next line filtered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, collector, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		server := api.New(api.Config{
			Addr:    addr,
			Engine:  engine,
			Metrics: collector,
			Logger:  logger,
		})

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- server.Start()
		}()

		filterDone := make(chan error, 1)
		go func() {
			filterDone <- filterStream(engine, os.Stdin, os.Stdout)
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("api server: %w", err)

		case err := <-filterDone:
			server.Stop()
			return err

		case sig := <-shutdown:
			logger.Info("shutting down on %v", sig)
			engine.CancelJob()
			return server.Stop()
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":7216", "Control API listen address")
	rootCmd.AddCommand(serveCmd)
}
