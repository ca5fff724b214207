package ets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anofox/go-forecast/timeseries"
)

func genSeries(t *testing.T, n int, gen func(i int) float64) *timeseries.TimeSeries {
	t.Helper()
	times := make([]time.Time, n)
	y := make([]float64, n)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		times[i] = base.AddDate(0, 0, i)
		y[i] = gen(i)
	}
	ts, err := timeseries.New(times, y)
	require.NoError(t, err)
	return ts
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Error: ErrorAdditive, Trend: TrendNone, Season: SeasonNone, M: 1, Alpha: 0.3}
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Alpha = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidAlpha)

	damped := Config{Error: ErrorAdditive, Trend: TrendDampedAdditive, Season: SeasonNone, M: 1, Alpha: 0.3, Beta: 0.1, Phi: 0.9}
	require.NoError(t, damped.Validate())

	badPhi := damped
	badPhi.Phi = 0.5
	assert.ErrorIs(t, badPhi.Validate(), ErrInvalidPhi)

	multSeasonAddErr := Config{Error: ErrorAdditive, Trend: TrendNone, Season: SeasonMultiplicative, M: 4, Alpha: 0.3, Gamma: 0.1}
	assert.ErrorIs(t, multSeasonAddErr.Validate(), ErrAdditiveErrorMultSeason)
}

func TestETSFitPredictLevelOnly(t *testing.T) {
	ts := genSeries(t, 30, func(i int) float64 { return 100 })
	cfg := Config{Error: ErrorAdditive, Trend: TrendNone, Season: SeasonNone, M: 1, Alpha: 0.3}
	m := New(cfg)
	require.NoError(t, m.Fit(ts))

	fitted, err := m.FittedValues()
	require.NoError(t, err)
	assert.Len(t, fitted, 30)

	fc, err := m.Predict(5)
	require.NoError(t, err)
	require.Len(t, fc, 5)
	for _, v := range fc {
		assert.InDelta(t, 100, v, 1.0)
	}
}

func TestETSSeasonalBuffer(t *testing.T) {
	buf := NewSeasonalBuffer([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, buf.Len())
	assert.Equal(t, 1.0, buf.Active())
	buf.RotateWith(5)
	assert.Equal(t, 2.0, buf.Active())
}

func TestETSUnfittedErrors(t *testing.T) {
	m := New(Config{Error: ErrorAdditive, Alpha: 0.3, M: 1})
	_, err := m.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestGradientsFiniteDifferenceSanity(t *testing.T) {
	ts := genSeries(t, 40, func(i int) float64 { return 50 + float64(i)*0.5 })
	y := ts.Values()
	cfg := Config{Error: ErrorAdditive, Trend: TrendAdditive, Season: SeasonNone, M: 1, Alpha: 0.3, Beta: 0.1}

	level, trend, _ := initializeStates(cfg, y)
	negLL, grad, err := ComputeNegLogLikelihoodWithGradients(cfg, y, level, trend, nil)
	require.NoError(t, err)
	assert.False(t, negLLIsNaN(negLL))

	// Finite-difference check on alpha: the analytical and numerical
	// derivative should roughly agree.
	eps := 1e-5
	cfgUp := cfg
	cfgUp.Alpha += eps
	negLLUp, _, err := ComputeNegLogLikelihoodWithGradients(cfgUp, y, level, trend, nil)
	require.NoError(t, err)
	fd := (negLLUp - negLL) / eps
	assert.InDelta(t, fd, grad.DAlpha, 1.0)
}

func negLLIsNaN(v float64) bool { return v != v }
