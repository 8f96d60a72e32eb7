package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"mp4creator/internal/logging"
	"mp4creator/internal/services"
)

// ErrOutputBusy reports that another conversion holds the output lock.
var ErrOutputBusy = errors.New("output is locked by another conversion")

type outputLock struct {
	lock *flock.Flock
}

func acquireOutputLock(output string) (*outputLock, error) {
	lock := flock.New(output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock output", output, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock output", output, ErrOutputBusy)
	}
	return &outputLock{lock: lock}, nil
}

func (l *outputLock) release(logger *slog.Logger) {
	if l == nil || l.lock == nil {
		return
	}
	path := l.lock.Path()
	if err := l.lock.Unlock(); err != nil {
		logger.Warn("release output lock", logging.Error(err))
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug(fmt.Sprintf("remove lock file %s", path), logging.Error(err))
	}
}

// artifacts are the final paths a conversion has written so far. A failed
// conversion removes them; there is no partial result.
type artifacts []string

func (a *artifacts) add(path string) { *a = append(*a, path) }

func (a artifacts) discard(logger *slog.Logger) {
	for _, path := range a {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "failed to remove artifact of failed conversion", "artifact_cleanup",
				logging.String("path", path), logging.Error(err),
				logging.String(logging.FieldImpact, "incomplete output left on disk"))
			continue
		}
		logger.Debug("removed artifact of failed conversion", logging.String("path", path))
	}
}
