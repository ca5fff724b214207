// Package holt implements Holt's linear trend method and Holt-Winters
// seasonal smoothing as thin collaborators over the ETS engine: both are
// special cases of the ETS state-space recursion (additive or damped-additive
// trend; additive error with no season or an additive season, multiplicative
// error with a multiplicative season), named
// explicitly in this library's purpose statement as consumers of that
// recursion.
package holt

import (
	"github.com/anofox/go-forecast/ets"
	"github.com/anofox/go-forecast/timeseries"
)

// Holt is Holt's linear trend exponential smoothing method: ETS(A,A,N)
// (or ETS(A,Ad,N) when damped) with caller-supplied smoothing parameters.
type Holt struct {
	model *ets.ETS
}

// New returns an unfitted Holt forecaster. Set phi > 0 to request damping.
func New(alpha, beta, phi float64) *Holt {
	trend := ets.TrendAdditive
	if phi > 0 {
		trend = ets.TrendDampedAdditive
	}
	cfg := ets.Config{
		Error: ets.ErrorAdditive,
		Trend: trend,
		M:     1,
		Alpha: alpha,
		Beta:  beta,
		Phi:   phi,
	}
	return &Holt{model: ets.New(cfg)}
}

func (h *Holt) Fit(ts *timeseries.TimeSeries) error       { return h.model.Fit(ts) }
func (h *Holt) Predict(horizon int) ([]float64, error)    { return h.model.Predict(horizon) }
func (h *Holt) Residuals() ([]float64, error)             { return h.model.Residuals() }
func (h *Holt) FittedValues() ([]float64, error)          { return h.model.FittedValues() }

// HoltWinters adds an additive or multiplicative seasonal component to
// Holt's method: ETS(A,A|Ad,A), or ETS(M,A|Ad,M) for a multiplicative season.
type HoltWinters struct {
	model *ets.ETS
}

// NewWinters returns an unfitted Holt-Winters forecaster.
func NewWinters(alpha, beta, gamma, phi float64, m int, multiplicativeSeason bool) *HoltWinters {
	trend := ets.TrendAdditive
	if phi > 0 {
		trend = ets.TrendDampedAdditive
	}
	errKind := ets.ErrorAdditive
	season := ets.SeasonAdditive
	if multiplicativeSeason {
		errKind = ets.ErrorMultiplicative
		season = ets.SeasonMultiplicative
	}
	cfg := ets.Config{
		Error:  errKind,
		Trend:  trend,
		Season: season,
		M:      m,
		Alpha:  alpha,
		Beta:   beta,
		Gamma:  gamma,
		Phi:    phi,
	}
	return &HoltWinters{model: ets.New(cfg)}
}

func (h *HoltWinters) Fit(ts *timeseries.TimeSeries) error    { return h.model.Fit(ts) }
func (h *HoltWinters) Predict(horizon int) ([]float64, error) { return h.model.Predict(horizon) }
func (h *HoltWinters) Residuals() ([]float64, error)          { return h.model.Residuals() }
func (h *HoltWinters) FittedValues() ([]float64, error)       { return h.model.FittedValues() }
