package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mp4creator/internal/logging"
	"mp4creator/internal/scratch"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned scratch directories and expired conversion logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			result := scratch.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logger)
			logs := logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d scratch directories and %d log files\n", len(result.Removed), logs)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", e.Path, e.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d scratch directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", time.Hour, "Only remove scratch directories older than this")
	return cmd
}
