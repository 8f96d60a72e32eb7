package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mp4creator/internal/config"
	"mp4creator/internal/deps"
	"mp4creator/internal/services/googleauth"
	"mp4creator/internal/services/ttshttp"
)

const ttsHealthTimeout = 5 * time.Second

// CheckTTSService verifies the HTTP speech renderer answers its health probe.
func CheckTTSService(ctx context.Context, baseURL string) Result {
	const name = "TTS service"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, ttsHealthTimeout)
	defer cancel()

	client := ttshttp.New(base, ttsHealthTimeout)
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeHealthError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckGoogleCredentials verifies the service account key parses.
func CheckGoogleCredentials(ctx context.Context, keyPath string) Result {
	const name = "Google credentials"
	if _, err := googleauth.ClientOptions(ctx, keyPath, nil); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: keyPath}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries required by the configuration.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for silence, concatenation, and composition",
			VersionFlag: "-version",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for measuring segment durations",
			VersionFlag: "-version",
		},
	}
	requirements = append(requirements, deps.Requirement{
		Name:        "edge-tts",
		Command:     cfg.Synthesis.EdgeTTSBinary,
		Description: "Speech renderer",
		VersionFlag: "--version",
		Optional:    cfg.Synthesis.Engine != config.EngineEdgeTTS,
	})
	return deps.CheckBinaries(ctx, requirements)
}

func summarizeHealthError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return err.Error()
}
