package mstl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anofox/go-forecast/timeseries"
)

func buildSeries(t *testing.T, y []float64) *timeseries.TimeSeries {
	t.Helper()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(y))
	for i := range y {
		times[i] = base.AddDate(0, 0, i)
	}
	ts, err := timeseries.New(times, y)
	require.NoError(t, err)
	return ts
}

func dualSeasonalSeries(cycles int) []float64 {
	const weekly, monthly = 7, 28
	n := monthly * cycles
	y := make([]float64, n)
	for i := range y {
		week := []float64{1, -1, 2, -2, 0.5, -0.5, 0}[i%weekly]
		month := []float64{3, 2, 1, 0}[(i/weekly)%4]
		y[i] = 100 + 0.2*float64(i) + week + month
	}
	return y
}

func TestMSTLFitRejectsNoPeriods(t *testing.T) {
	ts := buildSeries(t, make([]float64, 30))
	_, err := Fit(ts, Options{})
	assert.ErrorIs(t, err, ErrNoPeriods)
}

func TestMSTLFitRejectsShortSeries(t *testing.T) {
	ts := buildSeries(t, make([]float64, 10))
	_, err := Fit(ts, NewDefaultOptions([]int{7, 28}))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMSTLFitDualSeasonal(t *testing.T) {
	ts := buildSeries(t, dualSeasonalSeries(10))
	d, err := Fit(ts, NewDefaultOptions([]int{7, 28}))
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{7, 28}, d.Periods())
	assert.Len(t, d.Trend(), ts.Len())
	assert.Len(t, d.Seasonal(7), ts.Len())
	assert.Len(t, d.Seasonal(28), ts.Len())
}

func TestMSTLRobustClipsOutlier(t *testing.T) {
	y := dualSeasonalSeries(10)
	y[50] = 10000
	ts := buildSeries(t, y)

	opt := NewDefaultOptions([]int{7, 28})
	opt.Robust = true
	d, err := Fit(ts, opt)
	require.NoError(t, err)
	assert.Less(t, d.Remainder()[50], 1000.0)
}

func TestForecasterCyclicSeasonalHoltTrend(t *testing.T) {
	ts := buildSeries(t, dualSeasonalSeries(12))

	fc := New(NewDefaultForecasterOptions([]int{7, 28}))
	require.NoError(t, fc.Fit(ts))

	out, err := fc.Predict(14)
	require.NoError(t, err)
	assert.Len(t, out, 14)
	for _, v := range out {
		assert.False(t, v != v) // not NaN
	}
}

func TestForecasterDeseasonalizedLinear(t *testing.T) {
	ts := buildSeries(t, dualSeasonalSeries(12))

	opt := NewDefaultForecasterOptions([]int{7, 28})
	opt.Deseasonal = DeseasonalizedLinear
	fc := New(opt)
	require.NoError(t, fc.Fit(ts))

	out, err := fc.Predict(5)
	require.NoError(t, err)
	assert.Len(t, out, 5)
}

func TestForecasterUnfittedErrors(t *testing.T) {
	fc := New(NewDefaultForecasterOptions([]int{7}))
	_, err := fc.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}
