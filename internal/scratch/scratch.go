// Package scratch gives every conversion a private temporary directory.
//
// All intermediate files of a conversion (fragments, concat lists, stills,
// filter scripts, downloaded images) live below one namespace directory, so
// a single Cleanup removes everything regardless of which stage failed.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mp4creator/internal/logging"
)

// dirPrefix marks directories owned by this package inside the work root.
const dirPrefix = "conv-"

// Namespace is one conversion's scratch directory.
type Namespace struct {
	ID  string
	Dir string

	once sync.Once
	err  error
}

// New creates root/conv-<id>.
func New(root, id string) (*Namespace, error) {
	root = strings.TrimSpace(root)
	id = strings.TrimSpace(id)
	if root == "" || id == "" {
		return nil, errors.New("scratch: root and id are required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("scratch: create root: %w", err)
	}
	dir := filepath.Join(root, dirPrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("scratch: create namespace: %w", err)
	}
	return &Namespace{ID: id, Dir: dir}, nil
}

// Path joins name onto the namespace directory.
func (n *Namespace) Path(name string) string {
	return filepath.Join(n.Dir, name)
}

// Subdir creates and returns a child directory.
func (n *Namespace) Subdir(name string) (string, error) {
	dir := n.Path(name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("scratch: create %s: %w", name, err)
	}
	return dir, nil
}

// Cleanup removes the namespace and everything in it. Later calls return
// the first call's result.
func (n *Namespace) Cleanup() error {
	if n == nil {
		return nil
	}
	n.once.Do(func() {
		n.err = os.RemoveAll(n.Dir)
	})
	return n.err
}

// CleanStaleResult lists what CleanStale removed or failed to remove.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes namespaces older than maxAge. They are left behind only
// when the process died before its deferred cleanup ran.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	var result CleanStaleResult
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logger.Warn("failed to remove stale scratch directory",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed stale scratch directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "scratch_cleanup"),
		)
	}
	return result
}
