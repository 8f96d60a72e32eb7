package timeline

import (
	"errors"
	"fmt"
	"os"

	"mp4creator/internal/subtitles"
)

// FragmentKind tells speech from inserted silence.
type FragmentKind int

const (
	FragmentSpeech FragmentKind = iota + 1
	FragmentSilence
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentSpeech:
		return "speech"
	case FragmentSilence:
		return "silence"
	default:
		return "unknown"
	}
}

// Fragment is one audio file placed on the timeline.
type Fragment struct {
	Kind    FragmentKind
	Path    string
	Text    string
	Start   float64
	Seconds float64
}

// End is where the next fragment starts.
func (f Fragment) End() float64 {
	return f.Start + f.Seconds
}

// Timeline owns the fragment files of one conversion.
type Timeline struct {
	Fragments []Fragment
	Entries   []subtitles.Entry
	// Lines counts the script lines that were parsed.
	Lines int
}

// TotalSeconds is the sum of all fragment durations, silences included.
func (t *Timeline) TotalSeconds() float64 {
	if t == nil {
		return 0
	}
	var total float64
	for _, f := range t.Fragments {
		total += f.Seconds
	}
	return total
}

// Paths lists fragment files in playback order. Silence files may repeat.
func (t *Timeline) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, 0, len(t.Fragments))
	for _, f := range t.Fragments {
		paths = append(paths, f.Path)
	}
	return paths
}

// Release removes every fragment file. It is safe to call more than once.
func (t *Timeline) Release() error {
	if t == nil {
		return nil
	}
	return removeAll(t.Paths())
}

func removeAll(paths []string) error {
	var errs []error
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrEmptyInput marks scripts with nothing to narrate.
var ErrEmptyInput = errors.New("no narratable text")

// EmptyInputError is returned when no line yields narration after
// directives are stripped.
type EmptyInputError struct {
	Lines int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%v in %d line(s)", ErrEmptyInput, e.Lines)
}

func (e *EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}
