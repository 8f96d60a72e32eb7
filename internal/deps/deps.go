package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionProbeTimeout bounds each "<binary> -version" style probe.
const versionProbeTimeout = 5 * time.Second

// Requirement names an external binary the conversion pipeline shells out to.
// VersionFlag, when set, is passed to the resolved binary and the first line
// of its output is reported as the version.
type Requirement struct {
	Name        string
	Command     string
	Description string
	VersionFlag string
	Optional    bool
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Requirement
	Path      string
	Version   string
	Available bool
	Detail    string
}

// Satisfied reports whether every non-optional binary resolved.
func Satisfied(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			return false
		}
	}
	return true
}

// CheckBinaries resolves each requirement on PATH and probes its version.
// A failing version probe does not make the binary unavailable.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		if req.VersionFlag != "" {
			status.Version = probeVersion(ctx, path, req.VersionFlag)
		}
		results = append(results, status)
	}
	return results
}

func probeVersion(ctx context.Context, path, flag string) string {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, flag).CombinedOutput()
	if err != nil && len(out) == 0 {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
