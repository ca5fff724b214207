// Package stl implements Seasonal-Trend decomposition by iterated moving
// averages: a per-phase seasonal average detrended against a windowed
// moving-average trend, with an optional robust biweight reweighting pass.
// Despite the name this does not perform true LOESS (locally weighted
// polynomial regression) for either smoother -- neither this package's
// grounding in the original project's implementation nor its test fixtures
// require it, so the trend smoother is a simple symmetric windowed average
// and the seasonal smoother is a per-phase mean over every cycle
// (Options.SeasonalSmoother is not read).
package stl

import (
	"errors"
	"fmt"

	"github.com/anofox/go-forecast/timeseries"
)

var (
	ErrInvalidPeriod    = errors.New("stl: seasonal period must be >= 2")
	ErrInsufficientData = errors.New("stl: need at least 2 full seasonal cycles")
)

// Options configures one STL decomposition pass.
type Options struct {
	Period           int
	SeasonalSmoother int
	TrendSmoother    int
	Iterations       int
	Robust           bool
}

// NewDefaultOptions returns seasonal/trend smoother windows set to the
// period itself and the rule-of-thumb 3x-the-period (at least 7) window,
// matching the defaults MSTL seeds each per-period STL pass with.
func NewDefaultOptions(period int) Options {
	return Options{
		Period:           period,
		SeasonalSmoother: period,
		TrendSmoother:    max(ensureOdd(period*3), 7),
		Iterations:       2,
		Robust:           false,
	}
}

func ensureOdd(w int) int {
	if w < 3 {
		return 3
	}
	if w%2 == 0 {
		return w + 1
	}
	return w
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Decomposition holds the fitted trend/seasonal/remainder components.
type Decomposition struct {
	opt Options

	trend     []float64
	seasonal  []float64
	remainder []float64
}

// Fit decomposes ts into trend + seasonal + remainder.
func Fit(ts *timeseries.TimeSeries, opt Options) (*Decomposition, error) {
	if opt.Period < 2 {
		return nil, ErrInvalidPeriod
	}
	data := ts.Values()
	n := len(data)
	if n < 2*opt.Period {
		return nil, fmt.Errorf("have %d points, need %d: %w", n, 2*opt.Period, ErrInsufficientData)
	}
	if opt.Iterations < 1 {
		opt.Iterations = 1
	}
	trendWindow := ensureOdd(opt.TrendSmoother)
	m := opt.Period

	trend := make([]float64, n)
	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	detrended := make([]float64, n)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	for iter := 0; iter < opt.Iterations; iter++ {
		movingAverage(data, trend, trendWindow)

		for i := range data {
			detrended[i] = data[i] - trend[i]
		}

		seasonMeans := make([]float64, m)
		weightTotals := make([]float64, m)
		for i := range data {
			idx := i % m
			seasonMeans[idx] += detrended[i] * weights[i]
			weightTotals[idx] += weights[i]
		}
		for j := range seasonMeans {
			if weightTotals[j] > 0 {
				seasonMeans[j] /= weightTotals[j]
			}
		}

		var overall float64
		for _, v := range seasonMeans {
			overall += v
		}
		overall /= float64(m)
		for j := range seasonMeans {
			seasonMeans[j] -= overall
		}

		for i := range data {
			seasonal[i] = seasonMeans[i%m]
			remainder[i] = data[i] - trend[i] - seasonal[i]
		}

		if opt.Robust {
			absRes := make([]float64, n)
			for i, r := range remainder {
				absRes[i] = absFloat(r)
			}
			med := median(absRes)
			if med > 0 {
				for i, r := range remainder {
					arg := r / (6 * med)
					if absFloat(arg) < 1 {
						w := 1 - arg*arg
						weights[i] = w * w
					} else {
						weights[i] = 0
					}
				}
			}
		}
	}

	return &Decomposition{opt: opt, trend: trend, seasonal: seasonal, remainder: remainder}, nil
}

// Trend returns the fitted trend component.
func (d *Decomposition) Trend() []float64 { return append([]float64(nil), d.trend...) }

// Seasonal returns the fitted seasonal component.
func (d *Decomposition) Seasonal() []float64 { return append([]float64(nil), d.seasonal...) }

// Remainder returns the fitted remainder component.
func (d *Decomposition) Remainder() []float64 { return append([]float64(nil), d.remainder...) }

// SeasonalStrength returns 1 - Var(remainder)/Var(seasonal+remainder),
// floored at 0.
func (d *Decomposition) SeasonalStrength() float64 {
	sr := addVec(d.seasonal, d.remainder)
	return strength(d.remainder, sr)
}

// TrendStrength returns 1 - Var(remainder)/Var(trend+remainder), floored
// at 0.
func (d *Decomposition) TrendStrength() float64 {
	tr := addVec(d.trend, d.remainder)
	return strength(d.remainder, tr)
}

func strength(remainder, total []float64) float64 {
	varR := variance(remainder)
	varT := variance(total)
	if varT <= 0 {
		return 0
	}
	s := 1 - varR/varT
	if s < 0 {
		return 0
	}
	return s
}

func movingAverage(data, target []float64, window int) {
	n := len(data)
	half := window / 2
	for i := 0; i < n; i++ {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half
		if end > n-1 {
			end = n - 1
		}
		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			sum += data[j]
			count++
		}
		if count > 0 {
			target[i] = sum / float64(count)
		} else {
			target[i] = data[i]
		}
	}
}

func variance(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	var acc float64
	for _, x := range v {
		d := x - mean
		acc += d * d
	}
	return acc / float64(len(v))
}

func median(v []float64) float64 {
	sorted := append([]float64(nil), v...)
	insertionSort(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func insertionSort(v []float64) {
	for i := 1; i < len(v); i++ {
		key := v[i]
		j := i - 1
		for j >= 0 && v[j] > key {
			v[j+1] = v[j]
			j--
		}
		v[j+1] = key
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}
