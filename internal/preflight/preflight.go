package preflight

import (
	"context"
	"strings"

	"mp4creator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}

	if cfg.Synthesis.Engine == config.EngineHTTP {
		results = append(results, CheckTTSService(ctx, cfg.Synthesis.HTTPURL))
	}
	if cfg.GoogleEnabled() {
		results = append(results, CheckGoogleCredentials(ctx, cfg.Google.ServiceAccountKeyPath))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed checks into a single line for error messages.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}
