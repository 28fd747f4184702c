package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Clamp limits x to the [lo, hi] range
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ClampInt limits x to the [lo, hi] range
func ClampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// DollarMagnitude compresses an absolute dollar amount into [0, 1] on a log
// scale: ~0 at $0, ~1 at ceilUSD. Keeps mega-cap flows from dominating a
// score purely by dollar size.
//
//	magnitude = log1p(|usd| / 1e6) / log1p(ceil / 1e6)
func DollarMagnitude(usd float64, ceilUSD float64) float64 {
	if ceilUSD <= 0 {
		return 0
	}
	m := math.Log1p(math.Abs(usd)/1_000_000.0) / math.Log1p(ceilUSD/1_000_000.0)
	return Clamp(m, 0.0, 1.0)
}

// FormatUSD renders a dollar value compactly for "why" strings: -1.5B, 23.0M, 410.0K.
func FormatUSD(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%s%.1fB", sign, v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%s%.1fM", sign, v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%s%.1fK", sign, v/1_000)
	default:
		return fmt.Sprintf("%s%.0f", sign, v)
	}
}
