package ets

import "math"

// InitialStates exposes initializeStates's heuristic to callers outside
// this package (AutoETS needs it to seed gradient-based refinement with the
// same initial state Fit would derive).
func InitialStates(cfg Config, y []float64) (level, trend float64, seasonal []float64) {
	l, t, sb := initializeStates(cfg, y)
	if sb != nil {
		seasonal = sb.Snapshot()
	}
	return l, t, seasonal
}

// initializeStates derives starting level, trend, and seasonal states from
// the training data, following the statsforecast initstate() heuristic:
// a short series gets simple per-phase seasonal averaging, a longer one
// gets a centered-moving-average decomposition first.
func initializeStates(cfg Config, y []float64) (level, trend float64, seasonal *SeasonalBuffer) {
	n := len(y)
	m := cfg.M
	if !cfg.HasSeason() {
		m = 1
	}

	var seasonAvg []float64
	if cfg.HasSeason() {
		if n < 3*m {
			seasonAvg = simpleSeasonalAverage(y, m, cfg.Season)
		} else {
			seasonAvg = decompositionSeasonalAverage(y, m, cfg.Season)
		}
		seasonal = NewSeasonalBuffer(seasonAvg)
	}

	maxn := min(max(10, 2*m), n)
	level, trend = initLevelTrend(cfg, y, maxn)
	return level, trend, seasonal
}

func simpleSeasonalAverage(y []float64, m int, season Season) []float64 {
	sums := make([]float64, m)
	counts := make([]int, m)
	for i, v := range y {
		phase := i % m
		sums[phase] += v
		counts[phase]++
	}
	avg := make([]float64, m)
	var overall float64
	for j := 0; j < m; j++ {
		if counts[j] > 0 {
			avg[j] = sums[j] / float64(counts[j])
		}
		overall += avg[j]
	}
	overall /= float64(m)
	return normalizeSeasonAvg(avg, overall, season)
}

func decompositionSeasonalAverage(y []float64, m int, season Season) []float64 {
	n := len(y)
	trend := centeredMovingAverage(y, m)

	detrended := make([]float64, n)
	for i := range y {
		if trend[i] == 0 || math.IsNaN(trend[i]) {
			detrended[i] = 0
			continue
		}
		if season == SeasonMultiplicative {
			detrended[i] = y[i] / clampAwayFromZero(trend[i])
		} else {
			detrended[i] = y[i] - trend[i]
		}
	}

	sums := make([]float64, m)
	counts := make([]int, m)
	for i := range detrended {
		if trend[i] == 0 {
			continue
		}
		phase := i % m
		sums[phase] += detrended[i]
		counts[phase]++
	}
	avg := make([]float64, m)
	var overall float64
	for j := 0; j < m; j++ {
		if counts[j] > 0 {
			avg[j] = sums[j] / float64(counts[j])
		}
		overall += avg[j]
	}
	overall /= float64(m)
	return normalizeSeasonAvg(avg, overall, season)
}

func normalizeSeasonAvg(avg []float64, overall float64, season Season) []float64 {
	out := make([]float64, len(avg))
	if season == SeasonMultiplicative {
		for j, v := range avg {
			if overall == 0 {
				out[j] = 1
				continue
			}
			out[j] = clampAwayFromZero(v / overall)
		}
	} else {
		for j, v := range avg {
			out[j] = v - overall
		}
	}
	return out
}

// centeredMovingAverage computes a 2xM centered moving average (odd m: a
// simple symmetric window; even m: the classic two-pass average-of-two
// window used by classical decomposition).
func centeredMovingAverage(y []float64, m int) []float64 {
	n := len(y)
	out := make([]float64, n)
	if m%2 == 1 {
		half := m / 2
		for i := 0; i < n; i++ {
			if i < half || i >= n-half {
				continue
			}
			var sum float64
			for j := -half; j <= half; j++ {
				sum += y[i+j]
			}
			out[i] = sum / float64(m)
		}
		return out
	}

	half := m / 2
	for i := 0; i < n; i++ {
		if i < half || i >= n-half {
			continue
		}
		var sum float64
		for j := -half; j < half; j++ {
			sum += y[i+j]
		}
		avg1 := sum / float64(m)
		// shift window by one and average the two centered sums, the
		// standard even-order centering trick.
		if i+half < n && i-half+1 >= 0 {
			var sum2 float64
			for j := -half + 1; j <= half; j++ {
				sum2 += y[i+j]
			}
			avg2 := sum2 / float64(m)
			out[i] = (avg1 + avg2) / 2
		} else {
			out[i] = avg1
		}
	}
	return out
}

// initLevelTrend derives initial level/trend via the mean of the first
// maxn points (no trend) or simple linear regression over them (with
// trend), following a lightweight OLS-on-index fit.
func initLevelTrend(cfg Config, y []float64, maxn int) (level, trend float64) {
	if maxn < 1 {
		maxn = 1
	}
	window := y[:maxn]

	if !cfg.HasTrend() {
		return mean(window), 0
	}

	meanX := float64(maxn-1) / 2.0
	meanY := mean(window)
	var num, den float64
	for i, v := range window {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	slope := 0.0
	if den > 1e-10 {
		slope = num / den
	}
	intercept := meanY - slope*meanX

	if cfg.Trend.multiplicative() {
		l := intercept
		b := intercept + 2*slope
		if l == 0 || b == 0 {
			return meanY, 1
		}
		level = l
		trend = b / l
		if trend <= 0 {
			trend = 1
		}
		return level, trend
	}

	return intercept, slope
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
