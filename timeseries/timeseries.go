// Package timeseries holds the minimal immutable univariate time series
// container shared by every forecaster in this module.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoData           = errors.New("no observations")
	ErrLengthMismatch   = errors.New("time and value slices have different lengths")
	ErrNonMonotonic     = errors.New("timestamps are not strictly increasing")
	ErrNonFinite        = errors.New("values contain a non-finite observation")
	ErrInsufficientData = errors.New("insufficient observations for requested period")
)

// TimeSeries is an ordered, immutable sequence of (timestamp, value) pairs
// with strictly increasing timestamps and finite values. It is constructed
// once and never mutated for the duration of a fit.
type TimeSeries struct {
	t []time.Time
	y []float64
}

// New validates and copies t/y into an immutable TimeSeries.
func New(t []time.Time, y []float64) (*TimeSeries, error) {
	if len(y) == 0 {
		return nil, ErrNoData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf("time has length %d, values has length %d: %w", len(t), len(y), ErrLengthMismatch)
	}

	var last time.Time
	for i, v := range y {
		if i > 0 && !t[i].After(last) {
			return nil, fmt.Errorf("timestamp at index %d does not strictly increase: %w", i, ErrNonMonotonic)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value at index %d is non-finite: %w", i, ErrNonFinite)
		}
		last = t[i]
	}

	tCopy := make([]time.Time, len(t))
	yCopy := make([]float64, len(y))
	copy(tCopy, t)
	copy(yCopy, y)
	return &TimeSeries{t: tCopy, y: yCopy}, nil
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int { return len(ts.y) }

// Times returns a defensive copy of the timestamps.
func (ts *TimeSeries) Times() []time.Time {
	out := make([]time.Time, len(ts.t))
	copy(out, ts.t)
	return out
}

// Values returns a defensive copy of the observed values.
func (ts *TimeSeries) Values() []float64 {
	out := make([]float64, len(ts.y))
	copy(out, ts.y)
	return out
}

// At returns the (timestamp, value) pair at index i.
func (ts *TimeSeries) At(i int) (time.Time, float64) { return ts.t[i], ts.y[i] }

// StartTime returns the first observation's timestamp.
func (ts *TimeSeries) StartTime() time.Time { return ts.t[0] }

// EndTime returns the last observation's timestamp.
func (ts *TimeSeries) EndTime() time.Time { return ts.t[len(ts.t)-1] }

// AllPositive reports whether every observed value is strictly positive,
// a precondition for multiplicative error/trend/season components.
func (ts *TimeSeries) AllPositive() bool {
	for _, v := range ts.y {
		if v <= 0 {
			return false
		}
	}
	return true
}

// EstimateFreq returns the most common delta between consecutive timestamps,
// used by callers that want to infer a sampling interval for generating a
// forecast horizon's timestamps. It does not infer seasonal period m, which
// remains a caller-supplied parameter per the data model.
func (ts *TimeSeries) EstimateFreq() time.Duration {
	if len(ts.t) < 2 {
		return 0
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < len(ts.t); i++ {
		counts[ts.t[i].Sub(ts.t[i-1])]++
	}
	var best time.Duration
	bestCount := -1
	for d, c := range counts {
		if c > bestCount {
			bestCount = c
			best = d
		}
	}
	return best
}

// ForecastTimes generates h future timestamps spaced by the series'
// estimated sampling frequency, continuing from EndTime.
func (ts *TimeSeries) ForecastTimes(h int) []time.Time {
	freq := ts.EstimateFreq()
	out := make([]time.Time, h)
	end := ts.EndTime()
	for i := 0; i < h; i++ {
		out[i] = end.Add(freq * time.Duration(i+1))
	}
	return out
}
