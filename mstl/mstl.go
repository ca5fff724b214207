// Package mstl implements multi-seasonal STL decomposition: one STL pass
// per seasonal period, applied successively to the residual left by the
// previous period, followed by a final trend recomputation over the
// max-period window and a MAD-based clip-style robustness pass distinct
// from single-period STL's biweight reweighting.
package mstl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/anofox/go-forecast/stl"
	"github.com/anofox/go-forecast/timeseries"
)

var (
	ErrNoPeriods        = errors.New("mstl: at least one seasonal period is required")
	ErrInsufficientData = errors.New("mstl: series is too short for the largest requested period")
)

// Options configures an MSTL decomposition.
type Options struct {
	Periods    []int
	Iterations int
	Robust     bool
}

// NewDefaultOptions returns two outer iterations and no robustness pass,
// matching the reference implementation's defaults.
func NewDefaultOptions(periods []int) Options {
	return Options{Periods: periods, Iterations: 2, Robust: false}
}

// Decomposition holds one seasonal component per requested period plus a
// shared trend and remainder.
type Decomposition struct {
	periods   []int
	seasonals map[int][]float64
	trend     []float64
	remainder []float64
}

// Seasonal returns the fitted seasonal component for the given period.
func (d *Decomposition) Seasonal(period int) []float64 {
	return append([]float64(nil), d.seasonals[period]...)
}

// Trend returns the fitted combined trend component.
func (d *Decomposition) Trend() []float64 { return append([]float64(nil), d.trend...) }

// Remainder returns the fitted remainder component.
func (d *Decomposition) Remainder() []float64 { return append([]float64(nil), d.remainder...) }

// Periods returns the seasonal periods this decomposition was fit with, in
// ascending order.
func (d *Decomposition) Periods() []int { return append([]int(nil), d.periods...) }

// Fit decomposes ts into one seasonal series per period plus a shared
// trend and remainder.
func Fit(ts *timeseries.TimeSeries, opt Options) (*Decomposition, error) {
	if len(opt.Periods) == 0 {
		return nil, ErrNoPeriods
	}
	periods := append([]int(nil), opt.Periods...)
	sort.Ints(periods)
	maxPeriod := periods[len(periods)-1]

	data := ts.Values()
	n := len(data)
	if n < 2*maxPeriod {
		return nil, fmt.Errorf("have %d points, need %d: %w", n, 2*maxPeriod, ErrInsufficientData)
	}
	if opt.Iterations < 1 {
		opt.Iterations = 1
	}

	deseasonalized := append([]float64(nil), data...)
	seasonals := make(map[int][]float64, len(periods))
	for _, p := range periods {
		seasonals[p] = make([]float64, n)
	}

	for iter := 0; iter < opt.Iterations; iter++ {
		for _, p := range periods {
			residualPlusThis := make([]float64, n)
			for i := range data {
				residualPlusThis[i] = deseasonalized[i] + seasonals[p][i]
			}
			residualTS, err := timeseries.New(ts.Times(), residualPlusThis)
			if err != nil {
				return nil, err
			}
			d, err := stl.Fit(residualTS, stl.NewDefaultOptions(p))
			if err != nil {
				return nil, fmt.Errorf("period %d: %w", p, err)
			}
			seasonals[p] = d.Seasonal()
			for i := range data {
				deseasonalized[i] = residualPlusThis[i] - seasonals[p][i]
			}
		}
	}

	trend := make([]float64, n)
	movingAverage(deseasonalized, trend, oddWindow(maxPeriod))

	remainder := make([]float64, n)
	for i := range data {
		seasonalSum := 0.0
		for _, p := range periods {
			seasonalSum += seasonals[p][i]
		}
		remainder[i] = data[i] - trend[i] - seasonalSum
	}

	if opt.Robust {
		clipRemainder(remainder)
	}

	return &Decomposition{periods: periods, seasonals: seasonals, trend: trend, remainder: remainder}, nil
}

// clipRemainder applies MAD-based clipping: residuals beyond 3x the
// median absolute deviation from the median are clamped to that bound,
// rather than down-weighted (distinguishing this robustness pass from
// single-period STL's biweight reweighting of the seasonal average).
func clipRemainder(remainder []float64) {
	n := len(remainder)
	if n == 0 {
		return
	}
	sorted := append([]float64(nil), remainder...)
	sort.Float64s(sorted)
	med := medianSorted(sorted)

	devs := make([]float64, n)
	for i, r := range remainder {
		devs[i] = absFloat(r - med)
	}
	sort.Float64s(devs)
	mad := medianSorted(devs)
	if mad == 0 {
		return
	}

	bound := 3 * mad
	for i, r := range remainder {
		d := r - med
		if d > bound {
			remainder[i] = med + bound
		} else if d < -bound {
			remainder[i] = med - bound
		}
	}
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func oddWindow(period int) int {
	w := period
	if w < 7 {
		w = 7
	}
	if w%2 == 0 {
		w++
	}
	return w
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

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
