package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteConcatList writes an ffmpeg concat demuxer list referencing files in
// order. Paths are made absolute so the list can live anywhere.
func WriteConcatList(path string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("concat list %s: no inputs", path)
	}
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("concat list: resolve %s: %w", file, err)
		}
		b.WriteString("file ")
		b.WriteString(QuoteConcatPath(abs))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("concat list: write %s: %w", path, err)
	}
	return nil
}

// QuoteConcatPath quotes a path for the concat demuxer. Single quotes are
// closed, escaped and reopened.
func QuoteConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
