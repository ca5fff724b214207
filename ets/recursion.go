package ets

import (
	"errors"
	"math"
)

// ErrNumericDivergence marks a one-step update whose forecast or error term
// left the safe numeric range (e.g. a near-zero denominator in a
// multiplicative component). Callers fitting a single config should treat
// this as a failed fit; AutoETS treats it as one failed candidate.
var ErrNumericDivergence = errors.New("ets: numeric divergence in state update")

// State is the mutable level/trend/seasonal state evolved by the recursion.
type State struct {
	Level    float64
	Trend    float64
	Seasonal *SeasonalBuffer
}

// Clone returns a deep copy of the state, used before trial updates during
// gradient computation and multi-step forecasting.
func (s *State) Clone() *State {
	var sb *SeasonalBuffer
	if s.Seasonal != nil {
		sb = FromSnapshot(s.Seasonal.Snapshot())
	}
	return &State{Level: s.Level, Trend: s.Trend, Seasonal: sb}
}

func effectivePhi(cfg Config) float64 {
	if cfg.Damped() {
		return cfg.Phi
	}
	return 1.0
}

// growth returns the deterministic (pre-innovation) level contribution,
// "q" in the recursion literature: l + phi*b for additive trend,
// l*b^phi for multiplicative trend, l for no trend.
func growth(cfg Config, level, trend float64) float64 {
	phi := effectivePhi(cfg)
	switch {
	case cfg.Trend.none():
		return level
	case cfg.Trend.multiplicative():
		return level * math.Pow(trend, phi)
	default:
		return level + phi*trend
	}
}

func oldest(s *State) float64 {
	if s.Seasonal == nil {
		return 0
	}
	return s.Seasonal.At(0)
}

// oneStepForecast returns the deterministic forecast f for the next
// observation given the current state, before any innovation is applied.
func oneStepForecast(cfg Config, s *State) float64 {
	q := growth(cfg, s.Level, s.Trend)
	olds := oldest(s)
	switch cfg.Season {
	case SeasonNone:
		return q
	case SeasonAdditive:
		return q + olds
	default: // SeasonMultiplicative
		return q * clampAwayFromZero(olds)
	}
}

func clampAwayFromZero(v float64) float64 {
	if v < 0.01 {
		return 0.01
	}
	return v
}

// Update advances the state by one observation y, returning the one-step
// forecast f and the raw residual (y-f). It mutates s in place.
func Update(cfg Config, s *State, y float64) (f, resid float64, err error) {
	q := growth(cfg, s.Level, s.Trend)
	olds := oldest(s)

	switch cfg.Season {
	case SeasonNone:
		f = q
	case SeasonAdditive:
		f = q + olds
	default:
		f = q * clampAwayFromZero(olds)
	}

	var e float64 // normalized innovation
	if cfg.Error == ErrorAdditive {
		resid = y - f
		e = resid
	} else {
		if math.Abs(f) < Tol {
			return 0, 0, ErrNumericDivergence
		}
		resid = y - f
		e = resid / f
	}

	phi := effectivePhi(cfg)
	phib := phi * s.Trend

	var newLevel, newTrend float64
	switch cfg.Error {
	case ErrorAdditive:
		switch cfg.Season {
		case SeasonNone:
			newLevel = q + cfg.Alpha*e
		case SeasonAdditive:
			newLevel = q + cfg.Alpha*e
		default:
			denom := clampAwayFromZero(olds)
			newLevel = q + cfg.Alpha*e/denom
		}
	default: // multiplicative error
		switch cfg.Season {
		case SeasonNone:
			newLevel = q * (1 + cfg.Alpha*e)
		case SeasonAdditive:
			newLevel = q + cfg.Alpha*f*e
		default:
			newLevel = q * (1 + cfg.Alpha*e)
		}
	}

	if cfg.HasTrend() {
		switch cfg.Error {
		case ErrorAdditive:
			switch cfg.Season {
			case SeasonMultiplicative:
				denom := clampAwayFromZero(olds)
				if cfg.Trend.multiplicative() {
					newTrend = math.Pow(s.Trend, phi) + cfg.Beta*e/(denom*clampAwayFromZero(s.Level))
				} else {
					newTrend = phib + cfg.Beta*e/denom
				}
			default:
				if cfg.Trend.multiplicative() {
					newTrend = math.Pow(s.Trend, phi) + cfg.Beta*e/clampAwayFromZero(s.Level)
				} else {
					newTrend = phib + cfg.Beta*e
				}
			}
		default: // multiplicative error
			if cfg.Trend.multiplicative() {
				newTrend = math.Pow(s.Trend, phi) * (1 + cfg.Beta*e)
			} else {
				newTrend = phib + cfg.Beta*f*e
			}
		}
	}

	if cfg.HasSeason() {
		var newSeas float64
		switch cfg.Error {
		case ErrorAdditive:
			if cfg.Season == SeasonMultiplicative {
				newSeas = olds + cfg.Gamma*e/clampAwayFromZero(q)
			} else {
				newSeas = olds + cfg.Gamma*e
			}
		default:
			if cfg.Season == SeasonMultiplicative {
				newSeas = olds * (1 + cfg.Gamma*e)
			} else {
				newSeas = olds + cfg.Gamma*f*e
			}
		}
		s.Seasonal.RotateWith(newSeas)
	}

	s.Level = newLevel
	if cfg.HasTrend() {
		s.Trend = newTrend
	}

	if math.IsNaN(s.Level) || math.IsInf(s.Level, 0) {
		return 0, 0, ErrNumericDivergence
	}
	return f, resid, nil
}

// Forecast returns the deterministic h-step-ahead point forecast from the
// given state without mutating it.
func Forecast(cfg Config, s *State, h int) float64 {
	phi := effectivePhi(cfg)
	var q float64
	switch {
	case cfg.Trend.none():
		q = s.Level
	case cfg.Trend.multiplicative():
		q = s.Level * math.Pow(s.Trend, phiStarSum(phi, h))
	default:
		q = s.Level + phiStarSum(phi, h)*s.Trend
	}

	if !cfg.HasSeason() {
		return q
	}
	seasonVal := s.Seasonal.At(h - 1)
	if cfg.Season == SeasonAdditive {
		return q + seasonVal
	}
	return q * clampAwayFromZero(seasonVal)
}

// ForecastHorizon returns point forecasts for h=1..horizon.
func ForecastHorizon(cfg Config, s *State, horizon int) []float64 {
	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		out[h-1] = Forecast(cfg, s, h)
	}
	return out
}

func phiStarSum(phi float64, h int) float64 {
	var sum, p float64
	p = phi
	for i := 1; i <= h; i++ {
		sum += p
		p *= phi
	}
	return sum
}
