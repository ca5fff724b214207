package mstl

import (
	"errors"
	"fmt"

	"github.com/anofox/go-forecast/autoets"
	"github.com/anofox/go-forecast/timeseries"
)

// TrendMethod selects how the forecaster extrapolates the shared trend
// component beyond the fitted window.
type TrendMethod int

const (
	TrendLinear TrendMethod = iota
	TrendSES
	TrendHolt
	TrendNone
	TrendAutoETSAdditive
	TrendAutoETSMultiplicative
)

// SeasonalMethod selects how each period's seasonal component is
// projected into the forecast horizon.
type SeasonalMethod int

const (
	SeasonalCyclic SeasonalMethod = iota
	SeasonalAutoETSAdditive
	SeasonalAutoETSMultiplicative
)

// DeseasonalizedMethod selects how the forecaster combines trend +
// remainder into a single extrapolated series, bypassing the separate
// trend/seasonal dispatch entirely.
type DeseasonalizedMethod int

const (
	DeseasonalizedNone DeseasonalizedMethod = iota
	DeseasonalizedExponentialSmoothing
	DeseasonalizedLinear
	DeseasonalizedAutoETS
)

var ErrNotFitted = errors.New("mstl: forecaster has not been fit")

// ForecasterOptions configures an MSTL forecaster.
type ForecasterOptions struct {
	Decomposition Options
	Trend         TrendMethod
	Seasonal      SeasonalMethod
	Deseasonal    DeseasonalizedMethod
}

// NewDefaultForecasterOptions returns Holt-extrapolated trend with cyclic
// seasonal projection, the reference implementation's default wiring.
func NewDefaultForecasterOptions(periods []int) ForecasterOptions {
	return ForecasterOptions{
		Decomposition: NewDefaultOptions(periods),
		Trend:         TrendHolt,
		Seasonal:      SeasonalCyclic,
		Deseasonal:    DeseasonalizedNone,
	}
}

// Forecaster combines an MSTL decomposition with per-component
// extrapolation. The zero value is unusable; call New then Fit.
type Forecaster struct {
	opt  ForecasterOptions
	ts   *timeseries.TimeSeries
	decomp *Decomposition
	fitted bool
}

// New returns an unfitted MSTL forecaster.
func New(opt ForecasterOptions) *Forecaster { return &Forecaster{opt: opt} }

// Fit decomposes ts per the configured periods.
func (f *Forecaster) Fit(ts *timeseries.TimeSeries) error {
	d, err := Fit(ts, f.opt.Decomposition)
	if err != nil {
		return err
	}
	f.ts = ts
	f.decomp = d
	f.fitted = true
	return nil
}

// Decomposition returns the underlying fitted decomposition.
func (f *Forecaster) Decomposition() (*Decomposition, error) {
	if !f.fitted {
		return nil, ErrNotFitted
	}
	return f.decomp, nil
}

// Predict returns h-step-ahead forecasts combining the extrapolated
// trend, each period's projected seasonal component, and (when
// configured) a deseasonalized override that bypasses both.
func (f *Forecaster) Predict(h int) ([]float64, error) {
	if !f.fitted {
		return nil, ErrNotFitted
	}

	if f.opt.Deseasonal != DeseasonalizedNone {
		return f.forecastDeseasonalized(h)
	}

	trendFc, err := f.forecastTrend(h)
	if err != nil {
		return nil, err
	}

	out := make([]float64, h)
	copy(out, trendFc)
	for _, p := range f.decomp.periods {
		seasonalFc, err := f.forecastSeasonal(p, h)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] += seasonalFc[i]
		}
	}
	return out, nil
}

func (f *Forecaster) forecastTrend(h int) ([]float64, error) {
	trend := f.decomp.trend
	switch f.opt.Trend {
	case TrendNone:
		last := trend[len(trend)-1]
		out := make([]float64, h)
		for i := range out {
			out[i] = last
		}
		return out, nil
	case TrendLinear:
		return linearExtrapolate(trend, h), nil
	case TrendSES:
		return sesExtrapolate(trend, 0.3, h), nil
	case TrendHolt:
		return holtExtrapolate(trend, 0.8, 0.2, h), nil
	case TrendAutoETSAdditive:
		return autoETSComponentForecast(f.ts, trend, "ZAN", h)
	case TrendAutoETSMultiplicative:
		return autoETSComponentForecast(f.ts, trend, "ZMN", h)
	default:
		return nil, fmt.Errorf("mstl: unknown trend method %d", f.opt.Trend)
	}
}

func (f *Forecaster) forecastSeasonal(period, h int) ([]float64, error) {
	seasonal := f.decomp.seasonals[period]
	switch f.opt.Seasonal {
	case SeasonalCyclic:
		return cyclicProject(seasonal, period, h), nil
	case SeasonalAutoETSAdditive:
		if len(seasonal) < 2*period {
			return cyclicProject(seasonal, period, h), nil
		}
		fc, err := autoETSComponentForecastM(f.ts, seasonal, "ZNA", period, h)
		if err != nil {
			return cyclicProject(seasonal, period, h), nil
		}
		return fc, nil
	case SeasonalAutoETSMultiplicative:
		if len(seasonal) < 2*period || !allPositive(seasonal) {
			return cyclicProject(seasonal, period, h), nil
		}
		fc, err := autoETSComponentForecastM(f.ts, seasonal, "ZNM", period, h)
		if err != nil {
			return cyclicProject(seasonal, period, h), nil
		}
		return fc, nil
	default:
		return nil, fmt.Errorf("mstl: unknown seasonal method %d", f.opt.Seasonal)
	}
}

// forecastDeseasonalized recombines trend + remainder into a single
// series (skipping the separately-decomposed seasonal components) and
// extrapolates it directly, falling back to linear extrapolation if the
// configured method fails numerically.
func (f *Forecaster) forecastDeseasonalized(h int) ([]float64, error) {
	n := len(f.decomp.trend)
	xsa := make([]float64, n)
	for i := 0; i < n; i++ {
		xsa[i] = f.decomp.trend[i] + f.decomp.remainder[i]
	}

	switch f.opt.Deseasonal {
	case DeseasonalizedExponentialSmoothing:
		return sesExtrapolate(xsa, 0.3, h), nil
	case DeseasonalizedLinear:
		return linearExtrapolate(xsa, h), nil
	case DeseasonalizedAutoETS:
		fc, err := autoETSComponentForecast(f.ts, xsa, "ZZN", h)
		if err != nil {
			return linearExtrapolate(xsa, h), nil
		}
		return fc, nil
	default:
		return nil, fmt.Errorf("mstl: unknown deseasonalized method %d", f.opt.Deseasonal)
	}
}

func linearExtrapolate(series []float64, h int) []float64 {
	n := len(series)
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range series {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	var slope, intercept float64
	if denom != 0 {
		slope = (nf*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / nf
	} else {
		intercept = sumY / nf
	}
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		x := float64(n + i)
		out[i] = intercept + slope*x
	}
	return out
}

func sesExtrapolate(series []float64, alpha float64, h int) []float64 {
	level := series[0]
	for _, v := range series[1:] {
		level = alpha*v + (1-alpha)*level
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = level
	}
	return out
}

func holtExtrapolate(series []float64, alpha, beta float64, h int) []float64 {
	level := series[0]
	trend := 0.0
	if len(series) > 1 {
		trend = series[1] - series[0]
	}
	for _, v := range series[1:] {
		prevLevel := level
		level = alpha*v + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = level + float64(i+1)*trend
	}
	return out
}

// cyclicProject repeats the last complete seasonal cycle forward.
func cyclicProject(seasonal []float64, period, h int) []float64 {
	n := len(seasonal)
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		idx := n - period + (i % period)
		if idx < 0 {
			idx = i % period
		}
		out[i] = seasonal[idx]
	}
	return out
}

func allPositive(v []float64) bool {
	for _, x := range v {
		if x <= 0 {
			return false
		}
	}
	return true
}

func autoETSComponentForecast(ref *timeseries.TimeSeries, component []float64, spec string, h int) ([]float64, error) {
	return autoETSComponentForecastM(ref, component, spec, 1, h)
}

// autoETSComponentForecastM constructs a synthetic series over the
// reference series' timestamps and fits AutoETS to it with the given
// spec and seasonal period, used to extrapolate a single decomposition
// component rather than the raw observations.
func autoETSComponentForecastM(ref *timeseries.TimeSeries, component []float64, spec string, m, h int) ([]float64, error) {
	synthetic, err := timeseries.New(ref.Times(), component)
	if err != nil {
		return nil, err
	}
	a := autoets.New(&autoets.Options{Spec: spec, M: m, Parallelization: 4, EarlyStopAfter: 8})
	if err := a.Fit(synthetic); err != nil {
		return nil, err
	}
	return a.Predict(h)
}
