package mfles

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

func seasonalTrendSeries(periods int) []float64 {
	const period = 7
	y := make([]float64, period*periods)
	for i := range y {
		seasonal := []float64{1, -1, 2, -2, 0.5, -0.5, 0}[i%period]
		y[i] = 50 + 0.3*float64(i) + seasonal
	}
	return y
}

func TestFitRejectsTooFewPoints(t *testing.T) {
	m := New(FastPreset())
	ts := buildSeries(t, []float64{1, 2})
	err := m.Fit(ts)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestFitRejectsInvalidLearningRate(t *testing.T) {
	p := NewDefaultParams()
	p.LRTrend = 1.5
	m := New(p)
	ts := buildSeries(t, seasonalTrendSeries(8))
	err := m.Fit(ts)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestFitBalancedPresetRecoversTrend(t *testing.T) {
	p := BalancedPreset()
	p.SeasonalPeriods = []int{7}
	m := New(p)
	ts := buildSeries(t, seasonalTrendSeries(20))
	require.NoError(t, m.Fit(ts))

	fitted, err := m.FittedValues()
	require.NoError(t, err)
	require.Len(t, fitted, ts.Len())

	fc, err := m.Predict(7)
	require.NoError(t, err)
	require.Len(t, fc, 7)
	assert.Greater(t, fc[6], fitted[0])
}

func TestPredictUnfittedErrors(t *testing.T) {
	m := New(BalancedPreset())
	_, err := m.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestRobustPresetHandlesOutlier(t *testing.T) {
	y := seasonalTrendSeries(20)
	y[5] = 5000
	p := RobustPreset()
	p.SeasonalPeriods = []int{7}
	m := New(p)
	ts := buildSeries(t, y)
	require.NoError(t, m.Fit(ts))

	resid, err := m.Residuals()
	require.NoError(t, err)
	require.Len(t, resid, ts.Len())
}

func TestBuilderProducesConfiguredParams(t *testing.T) {
	p := NewBuilder().
		WithSeasonalPeriods([]int{7, 28}).
		WithMaxRounds(4).
		WithTrendMethod(TrendSiegelRobust).
		WithFourierOrder(4).
		Build()

	assert.Equal(t, []int{7, 28}, p.SeasonalPeriods)
	assert.Equal(t, 4, p.MaxRounds)
	assert.Equal(t, TrendSiegelRobust, p.TrendMethod)
	assert.Equal(t, 4, p.FourierOrder)
}

func TestMultiplicativeDetectionRespectsOverride(t *testing.T) {
	p := NewDefaultParams()
	on := true
	p.MultiplicativeOverride = &on
	m := New(p)
	ts := buildSeries(t, seasonalTrendSeries(8))
	require.NoError(t, m.Fit(ts))
	assert.True(t, m.IsMultiplicative())
}
