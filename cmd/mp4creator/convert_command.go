package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mp4creator/internal/config"
	"mp4creator/internal/logging"
	"mp4creator/internal/pipeline"
	"mp4creator/internal/scratch"
	"mp4creator/internal/services/sheets"
)

// staleScratchAge is how old an orphaned scratch namespace must be before a
// new conversion removes it.
const staleScratchAge = 24 * time.Hour

type convertFlags struct {
	output    string
	mode      string
	sheetID   string
	upload    bool
	audio     string
	subtitles string
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "convert [script]",
		Short: "Render a script into a video with subtitles",
		Long: "Render a script into a narrated MP4 with burned-in subtitles and a sidecar SRT.\n" +
			"The script is read from a file, from stdin when the argument is '-', or from\n" +
			"the configured Google Sheet with --sheet-id.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pipeline.ParseMode(flags.mode)
			if err != nil {
				return err
			}
			return runConvert(cmd, ctx, args, flags, mode)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path (default: output_dir/<script name>)")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "video", "Artifacts to produce: video, audio, or subtitles")
	cmd.Flags().StringVar(&flags.sheetID, "sheet-id", "", "Read the script from the configured Google Sheet row with this ID")
	cmd.Flags().BoolVar(&flags.upload, "upload", false, "Upload the result to the configured Google Drive folder")
	cmd.Flags().StringVar(&flags.audio, "audio", "", "Compose from an existing narration track instead of synthesizing")
	cmd.Flags().StringVar(&flags.subtitles, "srt", "", "Subtitle file to pair with --audio")
	return cmd
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	return newModeCommand(ctx, "audio [script]", "Render a script into an MP3 narration track and SRT", pipeline.ModeAudio)
}

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	return newModeCommand(ctx, "srt [script]", "Render a script into an SRT file only", pipeline.ModeSubtitles)
}

func newModeCommand(ctx *commandContext, use, short string, mode pipeline.Mode) *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, ctx, args, flags, mode)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path")
	cmd.Flags().StringVar(&flags.sheetID, "sheet-id", "", "Read the script from the configured Google Sheet row with this ID")
	cmd.Flags().BoolVar(&flags.upload, "upload", false, "Upload the result to the configured Google Drive folder")
	return cmd
}

func runConvert(cmd *cobra.Command, ctx *commandContext, args []string, flags convertFlags, mode pipeline.Mode) error {
	runCtx := cmd.Context()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Output:            strings.TrimSpace(flags.output),
		Mode:              mode,
		Upload:            flags.upload,
		ExternalAudio:     strings.TrimSpace(flags.audio),
		ExternalSubtitles: strings.TrimSpace(flags.subtitles),
	}
	if req.ExternalSubtitles != "" && req.ExternalAudio == "" {
		return errors.New("--srt requires --audio")
	}
	if req.Upload && !cfg.GoogleEnabled() {
		return errors.New("--upload requires google.service_account_key_path in the config")
	}

	switch {
	case strings.TrimSpace(flags.sheetID) != "":
		if len(args) > 0 {
			return errors.New("pass either a script file or --sheet-id, not both")
		}
		req.Script, err = scriptFromSheet(runCtx, cfg, flags.sheetID)
		req.Source = "sheet:" + strings.TrimSpace(flags.sheetID)
	case len(args) == 1:
		req.Script, err = readScript(cmd.InOrStdin(), args[0])
		if args[0] != "-" {
			req.Source = args[0]
		}
	case req.ExternalAudio == "":
		return errors.New("a script file, '-' for stdin, or --sheet-id is required")
	}
	if err != nil {
		return err
	}

	scratch.CleanStale(runCtx, cfg.Paths.WorkDir, staleScratchAge, logger)
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)

	p, closeFn, err := ctx.newPipeline(runCtx, req.Upload)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := p.Convert(runCtx, req)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func readScript(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read script from stdin: %w", err)
		}
		return string(data), nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func scriptFromSheet(ctx context.Context, cfg *config.Config, id string) (string, error) {
	if !cfg.GoogleEnabled() || strings.TrimSpace(cfg.Google.SpreadsheetID) == "" {
		return "", errors.New("--sheet-id requires google.service_account_key_path and google.spreadsheet_id")
	}
	reader, err := sheets.New(ctx, cfg.Google.ServiceAccountKeyPath, cfg.Google.SpreadsheetID, cfg.Google.SheetName)
	if err != nil {
		return "", err
	}
	return reader.Script(ctx, id)
}

func printResult(out io.Writer, result pipeline.Result) {
	label := map[pipeline.Mode]string{
		pipeline.ModeVideo:     "Video",
		pipeline.ModeAudio:     "Audio",
		pipeline.ModeSubtitles: "Subtitles",
	}[result.Mode]
	fmt.Fprintf(out, "%s: %s\n", label, result.Output)
	if result.Subtitles != "" && result.Subtitles != result.Output {
		fmt.Fprintf(out, "Subtitles: %s\n", result.Subtitles)
	}
	fmt.Fprintf(out, "Duration: %s\n", formatSeconds(result.Duration))
	if result.Segments > 0 {
		fmt.Fprintf(out, "Segments: %d\n", result.Segments)
	}
	if result.Mode == pipeline.ModeVideo {
		fmt.Fprintf(out, "Images: %d\n", result.Assets)
	}
	if result.DriveFile != nil {
		fmt.Fprintf(out, "Drive: %s\n", result.DriveFile.Link)
	}
}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds * float64(time.Second))).Round(10 * time.Millisecond).String()
}
