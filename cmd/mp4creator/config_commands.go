package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"mp4creator/internal/config"
)

const redacted = "<redacted>"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check, or print the configuration",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration with the default voice table",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: set giphy.api_key for background images and google.service_account_key_path for Drive uploads.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func resolveInitTarget(flag string) (string, error) {
	var (
		target string
		err    error
	)
	if flag = strings.TrimSpace(flag); flag != "" {
		target, err = config.ExpandPath(flag)
	} else {
		target, err = config.DefaultConfigPath()
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report optional features that are off",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Output directory", cfg.Paths.OutputDir},
				{"Work directory", cfg.Paths.WorkDir},
				{"Speech engine", cfg.Synthesis.Engine},
				{"Default voice", fmt.Sprintf("%s (%s)", cfg.Voice.DefaultVoice, cfg.ResolveVoice(cfg.Voice.DefaultVoice))},
				{"Frame", fmt.Sprintf("%dx%d @ %dfps", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)},
				{"Giphy search", yesNo(strings.TrimSpace(cfg.Giphy.APIKey) != "")},
				{"Google integration", yesNo(cfg.GoogleEnabled())},
				{"Notifications", yesNo(strings.TrimSpace(cfg.Notifications.NtfyTopic) != "")},
			}
			fmt.Fprintln(out, renderTable(out, []string{"Setting", "Value"}, rows, nil))
			for _, warning := range configWarnings(cfg) {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// configWarnings lists settings that load fine but will surprise at
// conversion time.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if _, ok := cfg.Voice.Voices[cfg.Voice.DefaultVoice]; !ok {
		warnings = append(warnings, fmt.Sprintf("default voice %q is not in the voice table and will be passed to the engine as-is", cfg.Voice.DefaultVoice))
	}
	if font := strings.TrimSpace(cfg.Video.FontFile); font != "" {
		if _, err := os.Stat(font); err != nil {
			warnings = append(warnings, fmt.Sprintf("font file %s is not readable; ffmpeg will fall back to %q", font, cfg.Video.Font))
		}
	}
	if cfg.Google.SpreadsheetID != "" && !cfg.GoogleEnabled() {
		warnings = append(warnings, "google.spreadsheet_id is set but no service account key is configured")
	}
	return warnings
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			effective := *cfg
			if effective.Giphy.APIKey != "" {
				effective.Giphy.APIKey = redacted
			}
			if effective.Notifications.NtfyTopic != "" {
				effective.Notifications.NtfyTopic = redacted
			}
			encoded, err := toml.Marshal(effective)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}
}
