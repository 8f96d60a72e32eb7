package directive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	minRatePercent = -50
	maxRatePercent = 100
)

// NormalizeRate converts a speed expression into a signed percentage rate
// such as "+40%" or "-10%". Two forms are accepted: a signed percentage,
// clamped to [-50%, +100%], and a legacy decimal multiplier mapped
// piecewise-linearly (0 → -50%, 1 → 0%, 2 → +100%, clamped outside).
// ok is false when the value is not parseable as either form.
func NormalizeRate(expr string) (rate string, ok bool) {
	value := strings.TrimSpace(expr)
	if value == "" {
		return "", false
	}
	if strings.HasSuffix(value, "%") {
		number := strings.TrimSpace(strings.TrimSuffix(value, "%"))
		pct, err := strconv.ParseFloat(number, 64)
		if err != nil || math.IsNaN(pct) {
			return "", false
		}
		return formatPercent(pct), true
	}
	multiplier, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(value), "x"), 64)
	if err != nil || math.IsNaN(multiplier) {
		return "", false
	}
	return formatPercent(multiplierToPercent(multiplier)), true
}

// RateOrDefault normalizes expr and resolves unparseable input to "+0%".
func RateOrDefault(expr string) string {
	if rate, ok := NormalizeRate(expr); ok {
		return rate
	}
	return formatPercent(0)
}

func multiplierToPercent(m float64) float64 {
	switch {
	case m <= 0:
		return minRatePercent
	case m < 1:
		return minRatePercent * (1 - m)
	case m == 1:
		return 0
	case m <= 2:
		return maxRatePercent * (m - 1)
	default:
		return maxRatePercent
	}
}

func formatPercent(pct float64) string {
	pct = math.Max(minRatePercent, math.Min(maxRatePercent, pct))
	n := int(math.Round(pct))
	if n < 0 {
		return fmt.Sprintf("%d%%", n)
	}
	return fmt.Sprintf("+%d%%", n)
}
