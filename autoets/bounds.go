package autoets

import (
	"math"

	"github.com/anofox/go-forecast/ets"
)

// paramDefaults mirrors statsforecast's initparam default-value logic:
// alpha/beta/gamma default values are scaled by season length m and
// clamped to the global smoothing-parameter bounds.
type paramDefaults struct {
	alpha, beta, gamma, phi float64
}

const (
	alphaLower, alphaUpper = 0.0001, 0.9999
	betaLower, betaUpper   = 0.0001, 0.9999
	gammaLowerGlobal       = 0.0001
	gammaUpperGlobal       = 0.9999
)

func defaultParams(cfg ets.Config) paramDefaults {
	m := float64(maxInt(cfg.M, 1))
	alpha := clamp(alphaLower+0.2*(alphaUpper-alphaLower)/m, alphaLower, alphaUpper)
	d := paramDefaults{alpha: alpha, phi: 0.98}
	if cfg.HasTrend() {
		d.beta = clamp(alpha*0.3, betaLower, betaUpper)
	}
	if cfg.HasSeason() {
		d.gamma = clamp(0.05*m/10.0, gammaLowerGlobal, gammaUpperGlobal)
	}
	return d
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// levelBounds returns [lower,upper] box bounds for the initial level,
// derived from the series' range, following the different conventions for
// multiplicative-season, additive-season-damped, additive-season-undamped,
// and non-seasonal candidates.
func levelBounds(cfg ets.Config, y []float64) (lower, upper float64) {
	minV, maxV := minMax(y)
	rng := maxV - minV

	switch {
	case cfg.Season == ets.SeasonMultiplicative:
		return math.Max(1, minV*0.1), maxV * 10
	case cfg.HasSeason() && cfg.Damped():
		return minV - 2*rng, maxV + 2*rng
	case cfg.HasSeason():
		return minV - 2*rng, maxV + 2*rng
	default:
		return minV - 2*rng, maxV + 2*rng
	}
}

func trendBounds(y []float64) (lower, upper float64) {
	_, _ = minMax(y)
	minV, maxV := minMax(y)
	rng := maxV - minV
	b := math.Max(1, rng*1.5)
	return -b, b
}

// levelBase returns the initial level seed value, per family.
func levelBase(cfg ets.Config, y []float64) float64 {
	n := len(y)
	switch {
	case cfg.Season == ets.SeasonMultiplicative:
		return mean(y)
	case cfg.HasSeason() && cfg.Damped():
		m := cfg.M
		if n < m {
			m = n
		}
		return mean(y[n-m:])
	case cfg.HasSeason():
		m := 2 * cfg.M
		if n < m {
			m = n
		}
		return mean(y[n-m:])
	default:
		k := 10
		if n < k {
			k = n
		}
		return mean(y[:k])
	}
}

func ratioBase(y []float64) float64 {
	n := len(y)
	if n < 2 || y[0] == 0 {
		return 1
	}
	r := math.Pow(y[n-1]/y[0], 1.0/float64(n-1))
	return clamp(r, 0.01, 10)
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

func minMax(v []float64) (min, max float64) {
	min, max = v[0], v[0]
	for _, x := range v {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}
