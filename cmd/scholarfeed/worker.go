package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the article collection every RUN_INTERVAL and serve health endpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		go func() {
			if err := e.app.StartHealthServer(ctx); err != nil {
				e.logger.Error().Err(err).Msg("health check server error")
			}
		}()

		if err := e.app.RunWorker(ctx); err != nil {
			if stopped(err) {
				e.logger.Info().Msg("application stopped")
				return nil
			}

			return err
		}

		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List enabled sources after SOURCES_FILE overrides",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		names, err := e.app.SourceNames()
		if err != nil {
			return err
		}

		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}

		return nil
	},
}
