package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mp4creator/internal/deps"
	"mp4creator/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries, directories, and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Detail
				if s.Available {
					detail = s.Path
				}
				rows = append(rows, []string{s.Name, yesNo(s.Available), yesNo(!s.Optional), s.Version, detail})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Binary", "Found", "Required", "Version", "Detail"}, rows, nil))

			checks := preflight.RunAll(cmd.Context(), cfg)
			rows = rows[:0]
			for _, r := range checks {
				rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Check", "OK", "Detail"}, rows, nil))

			if !deps.Satisfied(statuses) || len(preflight.Failed(checks)) > 0 {
				return errors.New("some dependencies are missing")
			}
			return nil
		},
	}
}
