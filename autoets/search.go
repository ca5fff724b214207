package autoets

import (
	"math"

	"github.com/anofox/go-forecast/ets"
	"github.com/anofox/go-forecast/optimize"
)

// paramLayout records which smoothing parameters are free for cfg, in a
// fixed order: alpha, [beta], [phi], [gamma].
type paramLayout struct {
	hasBeta, hasPhi, hasGamma bool
}

func layoutFor(cfg ets.Config) paramLayout {
	return paramLayout{hasBeta: cfg.HasTrend(), hasPhi: cfg.Damped(), hasGamma: cfg.HasSeason()}
}

func (l paramLayout) pack(cfg ets.Config) []float64 {
	v := []float64{cfg.Alpha}
	if l.hasBeta {
		v = append(v, cfg.Beta)
	}
	if l.hasPhi {
		v = append(v, cfg.Phi)
	}
	if l.hasGamma {
		v = append(v, cfg.Gamma)
	}
	return v
}

func (l paramLayout) unpack(v []float64, cfg ets.Config) ets.Config {
	i := 0
	cfg.Alpha = v[i]
	i++
	if l.hasBeta {
		cfg.Beta = v[i]
		i++
	} else {
		cfg.Beta = 0
	}
	if l.hasPhi {
		cfg.Phi = v[i]
		i++
	} else if cfg.Damped() {
		cfg.Phi = 0.98
	}
	if l.hasGamma {
		cfg.Gamma = v[i]
	} else {
		cfg.Gamma = 0
	}
	return cfg
}

func (l paramLayout) bounds(phiForGamma float64) optimize.Bounds {
	var lower, upper []float64
	lower = append(lower, alphaLower)
	upper = append(upper, alphaUpper)
	if l.hasBeta {
		lower = append(lower, betaLower)
		upper = append(upper, betaUpper)
	}
	if l.hasPhi {
		lower = append(lower, 0.80)
		upper = append(upper, 0.98)
	}
	if l.hasGamma {
		gl, gu := gammaBounds(phiForGamma, alphaLower)
		lower = append(lower, gl)
		upper = append(upper, gu)
	}
	return optimize.Bounds{Lower: lower, Upper: upper}
}

// coarseSearch performs the sparse nested grid search over admissible
// smoothing parameters, returning the best-scoring seed.
func coarseSearch(cfg ets.Config, y []float64) (best ets.Config, bestObj float64) {
	bestObj = math.Inf(1)
	best = cfg

	for _, a := range alphaGrid() {
		for _, b := range betaGrid(a, cfg.HasTrend()) {
			for _, phi := range phiGrid(cfg.Damped()) {
				gl, gu := gammaBounds(phi, a)
				for _, g := range gammaGrid(cfg.Season) {
					if cfg.HasSeason() {
						g = clamp(g, gl, gu)
					}
					trial := cfg
					trial.Alpha = a
					trial.Beta = b
					trial.Phi = phi
					trial.Gamma = g

					obj := evaluate(trial, y)
					if obj < bestObj {
						bestObj = obj
						best = trial
					}
				}
			}
		}
	}
	return best, bestObj
}

// evaluate fits cfg against y and returns the negative log-likelihood, or
// +Inf if the fit diverges numerically.
func evaluate(cfg ets.Config, y []float64) float64 {
	level, trend, seasonal := ets.InitialStates(cfg, y)
	negLL, _, err := ets.ComputeNegLogLikelihoodWithGradients(cfg, y, level, trend, seasonal)
	if err != nil || math.IsNaN(negLL) || math.IsInf(negLL, 0) {
		return math.Inf(1)
	}
	return negLL
}

// useLBFGS mirrors auto_ets.cpp's optimizer dispatch heuristic.
func useLBFGS(cfg ets.Config) bool {
	if cfg.Season == ets.SeasonMultiplicative {
		return true
	}
	if cfg.Damped() && cfg.HasSeason() && cfg.Season != ets.SeasonMultiplicative {
		return true
	}
	return false
}

// refine runs the bounded optimizer over the seeded config's free
// smoothing parameters and returns the refined config.
func refine(cfg ets.Config, y []float64) ets.Config {
	layout := layoutFor(cfg)
	x0 := layout.pack(cfg)
	bounds := layout.bounds(cfg.Phi)

	if useLBFGS(cfg) {
		level, trend, seasonal := ets.InitialStates(cfg, y)
		fg := func(x []float64) (float64, []float64) {
			trial := layout.unpack(x, cfg)
			negLL, grad, err := ets.ComputeNegLogLikelihoodWithGradients(trial, y, level, trend, seasonal)
			if err != nil || math.IsNaN(negLL) {
				return math.Inf(1), make([]float64, len(x))
			}
			g := packGrad(layout, grad)
			return negLL, g
		}
		res := optimize.LBFGS(fg, x0, bounds, optimize.DefaultLBFGSOptions())
		return layout.unpack(res.X, cfg)
	}

	f := func(x []float64) float64 {
		trial := layout.unpack(x, cfg)
		return evaluate(trial, y)
	}
	opt := optimize.DefaultNelderMeadOptions()
	res := optimize.NelderMead(f, x0, bounds, opt)
	return layout.unpack(res.X, cfg)
}

func packGrad(l paramLayout, g ets.GradientComponents) []float64 {
	v := []float64{g.DAlpha}
	if l.hasBeta {
		v = append(v, g.DBeta)
	}
	if l.hasPhi {
		v = append(v, g.DPhi)
	}
	if l.hasGamma {
		v = append(v, g.DGamma)
	}
	return v
}
