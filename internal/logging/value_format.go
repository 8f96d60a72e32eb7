package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// attrString renders a value without quoting, for header fields such as the
// component and stage names.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	if v.Kind() == slog.KindAny {
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
		return fmt.Sprint(v.Any())
	}
	return consoleValue("", v)
}

// consoleValue renders a detail line value. Media timings keyed *_seconds
// print with three decimals and an "s" suffix to match the timeline's
// millisecond grid.
func consoleValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindFloat64:
		if strings.HasSuffix(key, "_seconds") || key == "duration" {
			return strconv.FormatFloat(v.Float64(), 'f', 3, 64) + "s"
		}
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		d := v.Duration()
		if d < time.Second {
			return d.Round(time.Millisecond).String()
		}
		return d.Round(10 * time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Local().Format(time.DateTime)
	case slog.KindBool, slog.KindInt64, slog.KindUint64:
		return v.String()
	default:
		return quoteUnsafe(attrString(v))
	}
}

// quoteUnsafe quotes values that would break the one-pair-per-line layout.
func quoteUnsafe(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
