package autoets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anofox/go-forecast/ets"
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

func TestParseSpecFullyAutomatic(t *testing.T) {
	e, tr, s, err := ParseSpec("ZZZ")
	require.NoError(t, err)
	assert.Len(t, e, 2)
	assert.Len(t, tr, 5)
	assert.Len(t, s, 3)
}

func TestParseSpecDampedAdditive(t *testing.T) {
	_, tr, _, err := ParseSpec("AAdN")
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, ets.TrendDampedAdditive, tr[0])
}

func TestCandidatesNonSeasonal(t *testing.T) {
	cands, err := Candidates("ANN", 1, true)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, ets.TrendNone, cands[0].Trend)
}

func TestAutoETSFitConstantSeries(t *testing.T) {
	y := make([]float64, 36)
	for i := range y {
		y[i] = 120
	}
	ts := buildSeries(t, y)

	a := New(&Options{Spec: "AAN", M: 1, Parallelization: 2, EarlyStopAfter: 8})
	require.NoError(t, a.Fit(ts))

	fc, err := a.Predict(4)
	require.NoError(t, err)
	require.Len(t, fc, 4)
	for _, v := range fc {
		assert.InDelta(t, 120, v, 2.0)
	}
}

func TestAutoETSUnfittedErrors(t *testing.T) {
	a := New(nil)
	_, err := a.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}
