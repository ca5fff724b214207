package ets

import "math"

// GradientComponents holds the partial derivatives of the negative
// log-likelihood with respect to the smoothing parameters and the initial
// level/trend state. AutoETS's L-BFGS stage uses only the smoothing-parameter
// components; DLevel and DTrend are reported but not optimized. Seasonal
// initial states are not part of the optimized parameter vector (matching
// the grid-seeded, non-gradient-optimized treatment AutoETS gives them),
// so there is no DSeasonal component.
type GradientComponents struct {
	DAlpha float64
	DBeta  float64
	DGamma float64
	DPhi   float64
	DLevel float64
	DTrend float64
}

// dual is a forward-mode automatic-differentiation number: a value paired
// with its partial derivatives against a fixed ordered set of parameters.
// Reimplementing the recursion's arithmetic with dual values in place of
// float64 yields exact analytical derivatives of every branch of Update
// by construction, which is how ComputeNegLogLikelihoodWithGradients
// avoids hand-deriving a separate closed-form gradient per ETS family
// (additive/multiplicative error, trend, season, damped or not): there is
// no reference implementation of this step in the source this package is
// ported from, so the gradient is derived directly from the forward
// recursion rather than transcribed from one.
type dual struct {
	v float64
	d [6]float64 // order: alpha, beta, phi, gamma, level0, trend0
}

func constD(v float64) dual { return dual{v: v} }

func seed(v float64, idx int) dual {
	d := dual{v: v}
	d.d[idx] = 1
	return d
}

func (a dual) add(b dual) dual {
	var out dual
	out.v = a.v + b.v
	for i := range out.d {
		out.d[i] = a.d[i] + b.d[i]
	}
	return out
}

func (a dual) sub(b dual) dual {
	var out dual
	out.v = a.v - b.v
	for i := range out.d {
		out.d[i] = a.d[i] - b.d[i]
	}
	return out
}

func (a dual) mul(b dual) dual {
	var out dual
	out.v = a.v * b.v
	for i := range out.d {
		out.d[i] = a.d[i]*b.v + a.v*b.d[i]
	}
	return out
}

func (a dual) mulC(c float64) dual {
	var out dual
	out.v = a.v * c
	for i := range out.d {
		out.d[i] = a.d[i] * c
	}
	return out
}

func (a dual) div(b dual) dual {
	var out dual
	out.v = a.v / b.v
	for i := range out.d {
		out.d[i] = (a.d[i]*b.v - a.v*b.d[i]) / (b.v * b.v)
	}
	return out
}

// pow implements a^b for a>0, including dependence on both operands, via
// a^b = exp(b*ln(a)).
func (a dual) pow(b dual) dual {
	if a.v <= 0 {
		return constD(math.Pow(a.v, b.v))
	}
	lnA := math.Log(a.v)
	av := math.Pow(a.v, b.v)
	var out dual
	out.v = av
	for i := range out.d {
		out.d[i] = av * (b.d[i]*lnA + b.v*a.d[i]/a.v)
	}
	return out
}

const (
	idxAlpha = 0
	idxBeta  = 1
	idxPhi   = 2
	idxGamma = 3
	idxLevel = 4
	idxTrend = 5
)

// ComputeNegLogLikelihoodWithGradients runs the ETS recursion over y using
// dual-number arithmetic to obtain the negative log-likelihood and its
// exact gradient with respect to alpha, beta, phi, gamma (whichever apply
// to cfg) and the initial level/trend, in one forward pass.
func ComputeNegLogLikelihoodWithGradients(cfg Config, y []float64, level, trend float64, seasonal []float64) (negLL float64, grad GradientComponents, err error) {
	alpha := seed(cfg.Alpha, idxAlpha)
	var beta dual
	if cfg.HasTrend() {
		beta = seed(cfg.Beta, idxBeta)
	} else {
		beta = constD(0)
	}
	var phi dual
	if cfg.Damped() {
		phi = seed(cfg.Phi, idxPhi)
	} else {
		phi = constD(1.0)
	}
	var gamma dual
	if cfg.HasSeason() {
		gamma = seed(cfg.Gamma, idxGamma)
	} else {
		gamma = constD(0)
	}

	l := seed(level, idxLevel)
	var b dual
	if cfg.HasTrend() {
		b = seed(trend, idxTrend)
	} else {
		b = constD(0)
	}

	var s []dual
	if cfg.HasSeason() {
		m := len(seasonal)
		s = make([]dual, m)
		for j, v := range seasonal {
			s[j] = constD(v)
		}
	}

	n := len(y)
	var sse dual
	sse = constD(0)
	var sumLogF dual
	sumLogF = constD(0)

	for _, yt := range y {
		var q dual
		switch {
		case cfg.Trend.none():
			q = l
		case cfg.Trend.multiplicative():
			q = l.mul(b.pow(phi))
		default:
			q = l.add(phi.mul(b))
		}

		var olds dual
		if cfg.HasSeason() {
			olds = s[len(s)-1]
		} else {
			olds = constD(0)
		}

		var f dual
		switch cfg.Season {
		case SeasonNone:
			f = q
		case SeasonAdditive:
			f = q.add(olds)
		default:
			clamped := olds
			if clamped.v < 0.01 {
				clamped = constD(0.01)
			}
			f = q.mul(clamped)
		}

		yd := constD(yt)
		resid := yd.sub(f)

		var e dual
		if cfg.Error == ErrorAdditive {
			e = resid
		} else {
			if math.Abs(f.v) < Tol {
				return 0, GradientComponents{}, ErrNumericDivergence
			}
			e = resid.div(f)
		}

		sse = sse.add(resid.mul(resid))
		if cfg.Error == ErrorMultiplicative {
			if f.v <= 0 {
				return 0, GradientComponents{}, ErrNumericDivergence
			}
			sumLogF = sumLogF.add(dualLog(f))
		}

		// level/trend/seasonal updates mirror Update()'s branches exactly,
		// expressed in dual arithmetic.
		var newLevel, newTrend dual
		switch cfg.Error {
		case ErrorAdditive:
			switch cfg.Season {
			case SeasonMultiplicative:
				denom := olds
				if denom.v < 0.01 {
					denom = constD(0.01)
				}
				newLevel = q.add(alpha.mul(e).div(denom))
			default:
				newLevel = q.add(alpha.mul(e))
			}
		default:
			switch cfg.Season {
			case SeasonAdditive:
				newLevel = q.add(alpha.mul(f).mul(e))
			default:
				newLevel = q.mul(constD(1).add(alpha.mul(e)))
			}
		}

		if cfg.HasTrend() {
			switch cfg.Error {
			case ErrorAdditive:
				denom := constD(1)
				if cfg.Season == SeasonMultiplicative {
					denom = olds
					if denom.v < 0.01 {
						denom = constD(0.01)
					}
				}
				if cfg.Trend.multiplicative() {
					lClamped := l
					if lClamped.v < 0.01 {
						lClamped = constD(0.01)
					}
					newTrend = b.pow(phi).add(beta.mul(e).div(denom.mul(lClamped)))
				} else {
					newTrend = phi.mul(b).add(beta.mul(e).div(denom))
				}
			default:
				if cfg.Trend.multiplicative() {
					newTrend = b.pow(phi).mul(constD(1).add(beta.mul(e)))
				} else {
					newTrend = phi.mul(b).add(beta.mul(f).mul(e))
				}
			}
		}

		if cfg.HasSeason() {
			var newSeas dual
			switch cfg.Error {
			case ErrorAdditive:
				if cfg.Season == SeasonMultiplicative {
					qClamped := q
					if qClamped.v < 0.01 {
						qClamped = constD(0.01)
					}
					newSeas = olds.add(gamma.mul(e).div(qClamped))
				} else {
					newSeas = olds.add(gamma.mul(e))
				}
			default:
				if cfg.Season == SeasonMultiplicative {
					newSeas = olds.mul(constD(1).add(gamma.mul(e)))
				} else {
					newSeas = olds.add(gamma.mul(f).mul(e))
				}
			}
			copy(s[1:], s[:len(s)-1])
			s[0] = newSeas
		}

		l = newLevel
		if cfg.HasTrend() {
			b = newTrend
		}
	}

	if sse.v <= 0 || n == 0 {
		return math.Inf(1), GradientComponents{}, ErrNumericDivergence
	}

	nf := float64(n)
	// ll = -0.5*(n*ln(sse/n)) [- sumLogF for mult. error]; negLL = -ll
	logSSE := dualLog(sse.mulC(1.0 / nf))
	ll := logSSE.mulC(-0.5 * nf)
	if cfg.Error == ErrorMultiplicative {
		ll = ll.sub(sumLogF)
	}
	negLLDual := ll.mulC(-1)

	grad = GradientComponents{
		DAlpha: negLLDual.d[idxAlpha],
		DBeta:  negLLDual.d[idxBeta],
		DGamma: negLLDual.d[idxGamma],
		DPhi:   negLLDual.d[idxPhi],
		DLevel: negLLDual.d[idxLevel],
		DTrend: negLLDual.d[idxTrend],
	}
	return negLLDual.v, grad, nil
}

func dualLog(a dual) dual {
	var out dual
	out.v = math.Log(a.v)
	for i := range out.d {
		out.d[i] = a.d[i] / a.v
	}
	return out
}
