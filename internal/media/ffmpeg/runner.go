package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// stderrLimit bounds how much diagnostic output is kept from a failed command.
const stderrLimit = 8 << 10

// killGrace is how long a cancelled command may linger before its pipes are closed.
const killGrace = 3 * time.Second

// CommandRunner executes an external command. Implementations must honour ctx
// cancellation and return *ToolError on non-zero exit.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ToolError reports a failed external command together with its stderr.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StderrOf extracts the diagnostic text from a runner error, or the error text
// when it did not come from a command.
func StderrOf(err error) string {
	if err == nil {
		return ""
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.Stderr != "" {
		return toolErr.Stderr
	}
	return err.Error()
}

// Exec is the production CommandRunner.
func Exec(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = killGrace

	var stderr tailBuffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &ToolError{Tool: name, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}

// tailBuffer keeps the last stderrLimit bytes written to it. ffmpeg prints the
// actual failure reason at the end of its log.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - stderrLimit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
