package autoets

import (
	"math"

	"github.com/anofox/go-forecast/ets"
)

func alphaGrid() []float64 { return []float64{0.1, 0.3, 0.5, 0.7, 0.9} }

func betaGrid(alpha float64, hasTrend bool) []float64 {
	if !hasTrend {
		return []float64{0}
	}
	return []float64{0, alpha * 0.3, math.Min(alpha*0.7, 0.9999)}
}

func phiGrid(damped bool) []float64 {
	if !damped {
		return []float64{1.0}
	}
	return []float64{0.80, 0.85, 0.90, 0.95, 0.98}
}

func gammaGrid(season ets.Season) []float64 {
	switch season {
	case ets.SeasonMultiplicative:
		return []float64{0.01, 0.05, 0.10}
	case ets.SeasonAdditive:
		return []float64{0.05, 0.2, 0.5, 0.8}
	default:
		return []float64{0}
	}
}

// gammaBounds returns the admissibility bounds for gamma given phi and
// alpha, following the damped-seasonal constraint gamma in
// [max(0,1-1/phi-alpha), 1+1/phi-alpha], clamped to the global bounds.
func gammaBounds(phi, alpha float64) (lower, upper float64) {
	const globalLower, globalUpper = 0.0001, 0.9999
	lower = math.Max(0, 1-1/phi-alpha)
	upper = 1 + 1/phi - alpha
	if lower < globalLower {
		lower = globalLower
	}
	if upper > globalUpper {
		upper = globalUpper
	}
	return lower, upper
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
