package forecaster

import (
	"errors"
	"fmt"

	"github.com/anofox/go-forecast/autoets"
	"github.com/anofox/go-forecast/ets"
	"github.com/anofox/go-forecast/mfles"
	"github.com/anofox/go-forecast/mstl"
	"github.com/anofox/go-forecast/timeseries"
)

// Method selects which forecasting engine backs a series fit.
type Method int

const (
	// MethodAutoETS searches the ETS state-space family for the
	// best-fitting error/trend/season combination by AICc.
	MethodAutoETS Method = iota
	// MethodMSTL decomposes multi-seasonal series into trend, one
	// seasonal component per period, and a remainder, then extrapolates
	// each separately.
	MethodMSTL
	// MethodMFLES fits trend, seasonality, and level via gradient
	// boosting over successive rounds.
	MethodMFLES
)

func (m Method) String() string {
	switch m {
	case MethodAutoETS:
		return "autoets"
	case MethodMSTL:
		return "mstl"
	case MethodMFLES:
		return "mfles"
	default:
		return "unknown"
	}
}

var ErrUnknownMethod = errors.New("forecaster: unknown method")

// engine is the common contract every backing model satisfies so the
// Forecaster facade can treat AutoETS, MSTL, and MFLES interchangeably.
type engine interface {
	Fit(ts *timeseries.TimeSeries) error
	Predict(h int) ([]float64, error)
	FittedValues() ([]float64, error)
	Residuals() ([]float64, error)
}

// etsBacked is implemented by engines whose fitted state reduces to a single
// ets.ETS model, letting the facade persist them without replaying the fit.
type etsBacked interface {
	ETSModel() (*ets.ETS, error)
}

// decomposedEngine is additionally implemented by engines that expose a
// trend/seasonal/remainder breakdown of the fitted series (MSTL, MFLES).
type decomposedEngine interface {
	engine
	TrendComponent() []float64
	SeasonalComponent() []float64
	RemainderComponent() []float64
}

// newEngine builds the configured engine for the given series options.
// It does not fit the engine; callers invoke Fit separately.
func newEngine(opt *SeriesOptions) (engine, error) {
	switch opt.Method {
	case MethodAutoETS:
		aOpt := opt.AutoETSOptions
		if aOpt == nil {
			aOpt = autoets.NewDefaultOptions()
		}
		return &autoETSEngine{inner: autoets.New(aOpt)}, nil
	case MethodMSTL:
		mOpt := opt.MSTLOptions
		if mOpt == nil || len(mOpt.Decomposition.Periods) == 0 {
			return nil, fmt.Errorf("mstl method requires at least one seasonal period: %w", ErrUnknownMethod)
		}
		return &mstlEngine{inner: mstl.New(*mOpt)}, nil
	case MethodMFLES:
		pOpt := opt.MFLESParams
		if pOpt == nil {
			d := mfles.NewDefaultParams()
			pOpt = &d
		}
		return &mflesEngine{inner: mfles.New(*pOpt)}, nil
	default:
		return nil, fmt.Errorf("method %d: %w", opt.Method, ErrUnknownMethod)
	}
}

// autoETSEngine adapts autoets.AutoETS, which exposes fitted values and
// residuals only through the selected candidate's underlying ets.ETS, to
// the engine contract.
type autoETSEngine struct {
	inner *autoets.AutoETS
}

func (a *autoETSEngine) Fit(ts *timeseries.TimeSeries) error { return a.inner.Fit(ts) }
func (a *autoETSEngine) Predict(h int) ([]float64, error)   { return a.inner.Predict(h) }

func (a *autoETSEngine) selected() (*ets.ETS, error) { return a.inner.Model() }

// ETSModel returns the selected candidate's underlying fitted ETS model, letting the
// facade persist it independent of the AutoETS search that produced it.
func (a *autoETSEngine) ETSModel() (*ets.ETS, error) { return a.selected() }

func (a *autoETSEngine) FittedValues() ([]float64, error) {
	m, err := a.selected()
	if err != nil {
		return nil, err
	}
	return m.FittedValues()
}

func (a *autoETSEngine) Residuals() ([]float64, error) {
	m, err := a.selected()
	if err != nil {
		return nil, err
	}
	return m.Residuals()
}

// mstlEngine adapts mstl.Forecaster, which returns its decomposition
// instead of raw fitted values/residuals, to the engine contract.
type mstlEngine struct {
	inner *mstl.Forecaster
	y     []float64
}

func (m *mstlEngine) Fit(ts *timeseries.TimeSeries) error {
	if err := m.inner.Fit(ts); err != nil {
		return err
	}
	m.y = ts.Values()
	return nil
}

func (m *mstlEngine) Predict(h int) ([]float64, error) { return m.inner.Predict(h) }

func (m *mstlEngine) decomposition() (*mstl.Decomposition, error) { return m.inner.Decomposition() }

func (m *mstlEngine) FittedValues() ([]float64, error) {
	d, err := m.decomposition()
	if err != nil {
		return nil, err
	}
	trend := d.Trend()
	remainder := d.Remainder()
	fitted := make([]float64, len(trend))
	for i := range fitted {
		fitted[i] = trend[i] + remainder[i]
	}
	for _, p := range d.Periods() {
		seasonal := d.Seasonal(p)
		for i := range fitted {
			fitted[i] += seasonal[i]
		}
	}
	return fitted, nil
}

func (m *mstlEngine) Residuals() ([]float64, error) {
	fitted, err := m.FittedValues()
	if err != nil {
		return nil, err
	}
	resid := make([]float64, len(fitted))
	for i := range resid {
		resid[i] = m.y[i] - fitted[i]
	}
	return resid, nil
}

func (m *mstlEngine) TrendComponent() []float64 {
	d, err := m.decomposition()
	if err != nil {
		return nil
	}
	return d.Trend()
}

func (m *mstlEngine) SeasonalComponent() []float64 {
	d, err := m.decomposition()
	if err != nil {
		return nil
	}
	periods := d.Periods()
	if len(periods) == 0 {
		return nil
	}
	combined := d.Seasonal(periods[0])
	out := append([]float64(nil), combined...)
	for _, p := range periods[1:] {
		s := d.Seasonal(p)
		for i := range out {
			out[i] += s[i]
		}
	}
	return out
}

func (m *mstlEngine) RemainderComponent() []float64 {
	d, err := m.decomposition()
	if err != nil {
		return nil
	}
	return d.Remainder()
}

// mflesEngine adapts mfles.MFLES, which already satisfies the engine
// contract directly, additionally exposing its boosted decomposition.
type mflesEngine struct {
	inner *mfles.MFLES
}

func (m *mflesEngine) Fit(ts *timeseries.TimeSeries) error { return m.inner.Fit(ts) }
func (m *mflesEngine) Predict(h int) ([]float64, error)   { return m.inner.Predict(h) }
func (m *mflesEngine) FittedValues() ([]float64, error)   { return m.inner.FittedValues() }
func (m *mflesEngine) Residuals() ([]float64, error)      { return m.inner.Residuals() }

func (m *mflesEngine) TrendComponent() []float64 {
	d, err := m.inner.SeasonalDecompose()
	if err != nil {
		return nil
	}
	return d.Trend
}

func (m *mflesEngine) SeasonalComponent() []float64 {
	d, err := m.inner.SeasonalDecompose()
	if err != nil || len(d.Seasonal) == 0 {
		return nil
	}
	var out []float64
	for _, s := range d.Seasonal {
		if out == nil {
			out = append([]float64(nil), s...)
			continue
		}
		for i := range out {
			out[i] += s[i]
		}
	}
	return out
}

func (m *mflesEngine) RemainderComponent() []float64 {
	d, err := m.inner.SeasonalDecompose()
	if err != nil {
		return nil
	}
	return d.Residuals
}

// restoredETSEngine wraps an ets.ETS reloaded directly from a persisted Model
// (bypassing AutoETS's search), satisfying both engine and etsBacked.
type restoredETSEngine struct {
	*ets.ETS
}

func (r *restoredETSEngine) ETSModel() (*ets.ETS, error) { return r.ETS, nil }
