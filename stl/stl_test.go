package stl

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

func TestFitRejectsShortSeries(t *testing.T) {
	ts := buildSeries(t, []float64{1, 2, 3})
	_, err := Fit(ts, NewDefaultOptions(4))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFitRejectsInvalidPeriod(t *testing.T) {
	ts := buildSeries(t, make([]float64, 10))
	_, err := Fit(ts, NewDefaultOptions(1))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestFitRecoversSeasonalPattern(t *testing.T) {
	const period = 7
	y := make([]float64, period*8)
	for i := range y {
		seasonal := []float64{1, -1, 2, -2, 0.5, -0.5, 0}[i%period]
		y[i] = 50 + 0.1*float64(i) + seasonal
	}
	ts := buildSeries(t, y)

	d, err := Fit(ts, NewDefaultOptions(period))
	require.NoError(t, err)
	assert.Len(t, d.Trend(), len(y))
	assert.Len(t, d.Seasonal(), len(y))
	assert.Len(t, d.Remainder(), len(y))
	assert.Greater(t, d.SeasonalStrength(), 0.3)
}

func TestRobustDownweightsOutliers(t *testing.T) {
	const period = 7
	y := make([]float64, period*8)
	for i := range y {
		seasonal := []float64{1, -1, 2, -2, 0.5, -0.5, 0}[i%period]
		y[i] = 50 + seasonal
	}
	y[10] = 500 // gross outlier

	opt := NewDefaultOptions(period)
	opt.Robust = true
	opt.Iterations = 3
	ts := buildSeries(t, y)

	d, err := Fit(ts, opt)
	require.NoError(t, err)
	assert.Less(t, absFloat(d.Remainder()[10]), 500.0)
}

func TestTrendStrengthNonNegative(t *testing.T) {
	const period = 4
	y := make([]float64, period*10)
	for i := range y {
		y[i] = float64(i)
	}
	ts := buildSeries(t, y)
	d, err := Fit(ts, NewDefaultOptions(period))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d.TrendStrength(), 0.0)
}
