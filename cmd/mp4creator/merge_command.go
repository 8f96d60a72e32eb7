package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mp4creator/internal/audio"
	"mp4creator/internal/config"
	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/media/ffprobe"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <output> <input> <input>...",
		Short: "Join finished MP4 files end to end without re-encoding",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			paths := make([]string, len(args))
			for i, arg := range args {
				if paths[i], err = config.ExpandPath(arg); err != nil {
					return err
				}
			}
			concat := audio.NewConcatenator(ffmpeg.New(cfg.Tools.FFmpeg), ffprobe.NewProber(cfg.Tools.FFprobe), cfg.Paths.WorkDir, logger)
			if err := concat.Merge(cmd.Context(), paths[1:], paths[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d files into %s\n", len(paths)-1, paths[0])
			return nil
		},
	}
}
