package ets

import (
	"errors"
	"fmt"
	"math"

	"github.com/anofox/go-forecast/timeseries"
)

var (
	ErrNotFitted     = errors.New("ets: model has not been fitted")
	ErrInvalidInput  = errors.New("ets: invalid input")
	ErrTooFewPoints  = errors.New("ets: series too short for the requested season length")
)

// ETS is a fitted (or fittable) exponential smoothing state-space model.
// The zero value is an unfitted builder; New returns one configured with
// a Config. Fit transitions it into a fitted, read-only-state forecaster.
type ETS struct {
	cfg Config

	fitted bool
	state  *State

	fittedValues []float64
	residuals    []float64

	innovationSSE  float64
	sumLogForecast float64
	n              int
}

// New returns an unfitted ETS builder for the given config. The config is
// validated lazily at Fit time so that AutoETS can construct many
// candidates cheaply before discarding invalid ones.
func New(cfg Config) *ETS {
	return &ETS{cfg: cfg}
}

// Config returns the model's configuration.
func (e *ETS) Config() Config { return e.cfg }

// Fit runs the ETS recursion over the training series using the config's
// smoothing parameters, deriving initial states internally.
func (e *ETS) Fit(ts *timeseries.TimeSeries) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	y := ts.Values()
	if e.cfg.HasSeason() && len(y) < 2*e.cfg.M {
		return fmt.Errorf("need at least %d points for season length %d: %w", 2*e.cfg.M, e.cfg.M, ErrTooFewPoints)
	}
	if (e.cfg.Error == ErrorMultiplicative || e.cfg.Season == SeasonMultiplicative || e.cfg.Trend.multiplicative()) && !ts.AllPositive() {
		return fmt.Errorf("%w", ErrNonPositiveData)
	}

	level, trend, seasonal := initializeStates(e.cfg, y)
	e.state = &State{Level: level, Trend: trend, Seasonal: seasonal}

	return e.FitWithInitialState(ts, e.state.Clone())
}

// FitWithInitialState runs the recursion from caller-supplied initial
// state. Fit calls it with the state derived by initializeStates.
func (e *ETS) FitWithInitialState(ts *timeseries.TimeSeries, start *State) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	y := ts.Values()

	s := start.Clone()
	n := len(y)
	fitted := make([]float64, n)
	resid := make([]float64, n)

	var sse, sumLogF float64
	for i, v := range y {
		f, r, err := Update(e.cfg, s, v)
		if err != nil {
			return errors.Join(ErrNumericDivergence, err)
		}
		fitted[i] = f
		resid[i] = r
		sse += r * r
		if e.cfg.Error == ErrorMultiplicative {
			if f <= 0 {
				return ErrNumericDivergence
			}
			sumLogF += math.Log(f)
		}
	}

	e.state = s
	e.fittedValues = fitted
	e.residuals = resid
	e.innovationSSE = sse
	e.sumLogForecast = sumLogF
	e.n = n
	e.fitted = true
	return nil
}

// Predict returns the h-step-ahead point forecasts from the fitted state.
func (e *ETS) Predict(h int) ([]float64, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	if h <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive", ErrInvalidInput)
	}
	return ForecastHorizon(e.cfg, e.state, h), nil
}

// FittedValues returns the in-sample one-step-ahead fitted values.
func (e *ETS) FittedValues() ([]float64, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(e.fittedValues))
	copy(out, e.fittedValues)
	return out, nil
}

// Residuals returns the in-sample residuals (y - fitted).
func (e *ETS) Residuals() ([]float64, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(e.residuals))
	copy(out, e.residuals)
	return out, nil
}

// ParameterCount returns k, the number of free parameters: smoothing
// parameters plus the initial state components.
func (e *ETS) ParameterCount() int {
	k := 1 // alpha
	if e.cfg.HasTrend() {
		k++ // beta
		if e.cfg.Damped() {
			k++ // phi
		}
	}
	if e.cfg.HasSeason() {
		k++ // gamma
	}
	// initial states: level (+trend +season m states)
	k++
	if e.cfg.HasTrend() {
		k++
	}
	if e.cfg.HasSeason() {
		k += e.cfg.M
	}
	return k
}

// LogLikelihood returns the model's log-likelihood under the Gaussian
// innovations assumption: -0.5*(n*ln(SSE) [+ 2*sum_log_forecast]).
func (e *ETS) LogLikelihood() float64 {
	if !e.fitted || e.n == 0 || e.innovationSSE <= 0 {
		return math.Inf(-1)
	}
	n := float64(e.n)
	ll := -0.5 * n * math.Log(e.innovationSSE)
	if e.cfg.Error == ErrorMultiplicative {
		ll -= e.sumLogForecast
	}
	return ll
}

// AIC returns the Akaike information criterion.
func (e *ETS) AIC() float64 {
	k := e.ParameterCount()
	return -2*e.LogLikelihood() + 2*float64(k)
}

// AICc returns the bias-corrected AIC, +Inf when n <= k+1.
func (e *ETS) AICc() float64 {
	k := float64(e.ParameterCount())
	n := float64(e.n)
	if n <= k+1 {
		return math.Inf(1)
	}
	return e.AIC() + (2*k*(k+1))/(n-k-1)
}

// BIC returns the Bayesian information criterion.
func (e *ETS) BIC() float64 {
	k := float64(e.ParameterCount())
	n := float64(e.n)
	return -2*e.LogLikelihood() + k*math.Log(n)
}

// MSE returns the in-sample mean squared error.
func (e *ETS) MSE() float64 {
	if e.n == 0 {
		return math.NaN()
	}
	return e.innovationSSE / float64(e.n)
}

// Sigma returns the residual standard deviation, sqrt(MSE).
func (e *ETS) Sigma() float64 { return math.Sqrt(e.MSE()) }

// State returns a defensive copy of the model's current state, used by
// callers persisting a Model or chaining forecasts.
func (e *ETS) State() *State {
	if e.state == nil {
		return nil
	}
	return e.state.Clone()
}
