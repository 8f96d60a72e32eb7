package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voice names usable in [VOICE:...] directives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cfg.Voice.Voices))
			for _, name := range slices.Sorted(maps.Keys(cfg.Voice.Voices)) {
				def := ""
				if name == cfg.Voice.DefaultVoice {
					def = "default"
				}
				rows = append(rows, []string{name, cfg.Voice.Voices[name], def})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Name", "Engine voice", ""}, rows, nil))
			fmt.Fprintf(out, "Engine: %s, default speed %s\n", cfg.Synthesis.Engine, cfg.Voice.DefaultSpeed)
			return nil
		},
	}
}
