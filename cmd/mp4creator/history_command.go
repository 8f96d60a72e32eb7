package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mp4creator/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past conversions",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var outcome string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit, outcome)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No conversions recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					shortID(rec.ID),
					rec.StartedAt.Local().Format("2006-01-02 15:04"),
					rec.Mode,
					rec.Outcome,
					formatSeconds(rec.DurationSeconds),
					strconv.Itoa(rec.Segments),
					filepath.Base(rec.Output),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Started", "Mode", "Outcome", "Length", "Segments", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}))

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Total: %d succeeded, %d failed, %d rejected, %d canceled\n",
				stats[services.OutcomeSucceeded], stats[services.OutcomeFailed],
				stats[services.OutcomeRejected], stats[services.OutcomeCanceled])
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of conversions to show")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Only show conversions with this outcome")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history entries older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
