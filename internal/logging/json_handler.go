package logging

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
)

// jsonTimeLayout keeps millisecond precision at a fixed width so conversion
// logs sort lexically.
const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// newJSONHandler writes one object per line. Durations are emitted as
// fractional seconds and *_seconds floats are rounded to the millisecond so
// timeline values read the same as the SRT they produce.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(jsonTimeLayout))
		}
		return attr
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
		return attr
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
		return attr
	}

	switch attr.Value.Kind() {
	case slog.KindDuration:
		attr.Value = slog.Float64Value(roundMillis(attr.Value.Duration().Seconds()))
	case slog.KindFloat64:
		if strings.HasSuffix(attr.Key, "_seconds") || attr.Key == "duration" {
			attr.Value = slog.Float64Value(roundMillis(attr.Value.Float64()))
		}
	}
	return attr
}

func roundMillis(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
