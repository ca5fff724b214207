package forecaster

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anofox/go-forecast/bocpd"
	"github.com/anofox/go-forecast/mfles"
)

func dailySeries(days int, period time.Duration) ([]time.Time, []float64) {
	t := make([]time.Time, 0, days)
	y := make([]float64, 0, days)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		ts := start.Add(time.Duration(i) * period)
		t = append(t, ts)
		seasonal := 5.0 * math.Sin(2*math.Pi*float64(i)/7.0)
		y = append(y, 100.0+0.2*float64(i)+seasonal)
	}
	return t, y
}

func TestNewRejectsMissingOptions(t *testing.T) {
	_, err := New(&Options{})
	assert.ErrorIs(t, err, ErrNoSeriesOrUncertaintyOptions)
}

func TestFitPredictAutoETS(t *testing.T) {
	trainT, trainY := dailySeries(90, 24*time.Hour)

	f, err := New(NewDefaultOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(trainT, trainY))

	horizon, err := f.MakeFuturePeriods(14, 0)
	require.NoError(t, err)
	require.Len(t, horizon, 14)

	res, err := f.Predict(horizon)
	require.NoError(t, err)
	require.Len(t, res.Forecast, 14)
	for i := range res.Forecast {
		assert.GreaterOrEqual(t, res.Upper[i], res.Forecast[i])
		assert.LessOrEqual(t, res.Lower[i], res.Forecast[i])
	}

	score, err := f.Score(trainT, trainY)
	require.NoError(t, err)
	assert.Greater(t, score, 0.0)
}

func TestFitMSTLExposesDecomposition(t *testing.T) {
	trainT, trainY := dailySeries(60, 24*time.Hour)

	opt := NewDefaultOptions()
	opt.SeriesOptions = NewMSTLSeriesOptions([]int{7})

	f, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(trainT, trainY))

	assert.NotNil(t, f.TrendComponent())
	assert.NotNil(t, f.SeasonalityComponent())
	assert.NotNil(t, f.RemainderComponent())
}

func TestFitMFLES(t *testing.T) {
	trainT, trainY := dailySeries(60, 24*time.Hour)

	opt := NewDefaultOptions()
	opt.SeriesOptions = NewMFLESSeriesOptions(mfles.BalancedPreset())

	f, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(trainT, trainY))

	horizon, err := f.MakeFuturePeriods(7, 0)
	require.NoError(t, err)
	res, err := f.Predict(horizon)
	require.NoError(t, err)
	assert.Len(t, res.Forecast, 7)
}

func TestModelRoundTripAutoETS(t *testing.T) {
	trainT, trainY := dailySeries(90, 24*time.Hour)

	f, err := New(NewDefaultOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(trainT, trainY))

	m, err := f.Model()
	require.NoError(t, err)
	require.NotNil(t, m.SeriesETSModel)
	require.NotNil(t, m.UncertaintyETSModel)

	restored, err := NewFromModel(m)
	require.NoError(t, err)

	horizon, err := f.MakeFuturePeriods(5, 0)
	require.NoError(t, err)

	want, err := f.Predict(horizon)
	require.NoError(t, err)
	got, err := restored.Predict(horizon)
	require.NoError(t, err)

	require.Len(t, got.Forecast, len(want.Forecast))
	for i := range want.Forecast {
		assert.InDelta(t, want.Forecast[i], got.Forecast[i], 1e-6)
	}
}

func TestMinMaxValueClipping(t *testing.T) {
	trainT, trainY := dailySeries(60, 24*time.Hour)

	opt := NewDefaultOptions()
	opt.SetMinValue(0.0)
	opt.SetMaxValue(1000.0)

	f, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(trainT, trainY))

	horizon, err := f.MakeFuturePeriods(5, 0)
	require.NoError(t, err)
	res, err := f.Predict(horizon)
	require.NoError(t, err)
	for _, v := range res.Forecast {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1000.0)
	}
}

func TestDetectChangepointsRequiresFit(t *testing.T) {
	f, err := New(NewDefaultOptions())
	require.NoError(t, err)
	_, err = f.DetectChangepoints(bocpd.NewBuilder().Build())
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDetectChangepointsFlagsShift(t *testing.T) {
	trainT, trainY := dailySeries(80, 24*time.Hour)
	for i := 40; i < len(trainY); i++ {
		trainY[i] += 40.0
	}

	f, err := New(NewDefaultOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(trainT, trainY))

	result, err := f.DetectChangepoints(nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
}
