// Package bocpd implements Bayesian Online Change-Point Detection: a
// Normal-Gamma conjugate run-length model updated one observation at a
// time in log-space, with either a constant or logistic hazard function
// governing the prior probability that any given run ends.
package bocpd

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// NormalGammaPrior parameterizes the conjugate Normal-Gamma prior over
// each run's unknown mean and precision.
type NormalGammaPrior struct {
	Mu0    float64
	Kappa0 float64
	Alpha0 float64
	Beta0  float64
}

// DefaultPrior is a weakly informative Normal-Gamma prior centered at
// zero.
func DefaultPrior() NormalGammaPrior {
	return NormalGammaPrior{Mu0: 0, Kappa0: 1, Alpha0: 1, Beta0: 1}
}

type hazardModel int

const (
	hazardConstant hazardModel = iota
	hazardLogistic
)

type logisticParams struct {
	h, a, b float64
}

// sufficientStats holds one run's posterior Normal-Gamma parameters.
type sufficientStats struct {
	mu, kappa, alpha, beta float64
}

func updateStats(s sufficientStats, x float64) sufficientStats {
	kappaNew := s.kappa + 1
	muNew := (s.kappa*s.mu + x) / kappaNew
	alphaNew := s.alpha + 0.5
	betaNew := s.beta + 0.5*s.kappa*(x-s.mu)*(x-s.mu)/kappaNew
	return sufficientStats{mu: muNew, kappa: kappaNew, alpha: alphaNew, beta: betaNew}
}

// logStudentT evaluates the log posterior predictive density of x under
// a run with the given sufficient statistics: a Student's t distribution
// with 2*alpha degrees of freedom, per the Normal-Gamma conjugacy.
func logStudentT(x float64, s sufficientStats) float64 {
	nu := 2 * s.alpha
	scaleSq := s.beta * (s.kappa + 1) / (s.alpha * s.kappa)
	scale := math.Sqrt(scaleSq)
	diff := (x - s.mu) / scale
	term := 1 + (diff*diff)/nu

	lg1, _ := math.Lgamma((nu + 1) / 2)
	lg2, _ := math.Lgamma(nu / 2)
	return lg1 - lg2 - 0.5*math.Log(nu*math.Pi) - math.Log(scale) - ((nu+1)/2)*math.Log(term)
}

func logSumExp2(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// logSumExp computes log(sum(exp(values))) in a numerically stable way
// using gonum/floats to find the running max.
func logSumExp(values []float64) float64 {
	maxVal := floats.Max(values)
	if !isFinite(maxVal) {
		return maxVal
	}
	var sum float64
	for _, v := range values {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}

func isFinite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// Detector runs online change-point detection over a stream of scalar
// observations using a Normal-Gamma conjugate run-length model.
type Detector struct {
	hazardLambda   float64
	prior          NormalGammaPrior
	maxRunLength   int
	traceEnabled   bool
	hazard         hazardModel
	logisticParams logisticParams
}

// Builder constructs a Detector with a fluent API mirroring the
// reference implementation's builder surface.
type Builder struct {
	hazardLambda   float64
	prior          NormalGammaPrior
	maxRunLength   int
	traceEnabled   bool
	hazard         hazardModel
	logisticParams logisticParams
}

// NewBuilder returns a builder seeded with the reference defaults: a
// constant hazard with lambda=250, a weakly informative prior, and a
// run-length cap of 1024.
func NewBuilder() *Builder {
	return &Builder{
		hazardLambda: 250,
		prior:        DefaultPrior(),
		maxRunLength: 1024,
		hazard:       hazardConstant,
	}
}

// HazardLambda sets a constant hazard rate: every run ends with
// probability 1/lambda regardless of its current length.
func (b *Builder) HazardLambda(value float64) *Builder {
	b.hazardLambda = value
	b.hazard = hazardConstant
	return b
}

// LogisticHazard sets a run-length-dependent hazard: P(end) =
// sigmoid(h + a*(runLength-b)).
func (b *Builder) LogisticHazard(h, a, bb float64) *Builder {
	b.hazard = hazardLogistic
	b.logisticParams = logisticParams{h: h, a: a, b: bb}
	return b
}

// NormalGammaPrior sets the conjugate prior over each run's mean and
// precision.
func (b *Builder) NormalGammaPrior(prior NormalGammaPrior) *Builder {
	b.prior = prior
	return b
}

// MaxRunLength bounds the run-length distribution's support.
func (b *Builder) MaxRunLength(value int) *Builder {
	b.maxRunLength = value
	return b
}

// EnableTracing is accepted for interface parity with the reference
// implementation's trace logging; this port has no log sink to trace
// into and the flag is a no-op.
func (b *Builder) EnableTracing(value bool) *Builder {
	b.traceEnabled = value
	return b
}

// Build finalizes the detector.
func (b *Builder) Build() *Detector {
	maxRun := b.maxRunLength
	if maxRun < 1 {
		maxRun = 1
	}
	return &Detector{
		hazardLambda:   b.hazardLambda,
		prior:          b.prior,
		maxRunLength:   maxRun,
		traceEnabled:   b.traceEnabled,
		hazard:         b.hazard,
		logisticParams: b.logisticParams,
	}
}

func (d *Detector) hazardProb(runLength int) float64 {
	var p float64
	if d.hazard == hazardConstant {
		p = 1.0 / d.hazardLambda
	} else {
		h := d.logisticParams.h + d.logisticParams.a*(float64(runLength)-d.logisticParams.b)
		p = 1.0 / (1.0 + math.Exp(-h))
	}
	return clamp(p, 1e-6, 0.999)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DetectionResult reports the MAP changepoint indices alongside the
// per-timestep probability that a changepoint occurred there.
type DetectionResult struct {
	ChangepointIndices      []int
	ChangepointProbabilities []float64
}

// Detect returns the MAP changepoint indices for data.
func (d *Detector) Detect(data []float64) []int {
	return d.run(data, false).ChangepointIndices
}

// DetectWithProbabilities returns both the MAP changepoints and, at
// every index, the posterior probability that a new run started there
// (run length 0).
func (d *Detector) DetectWithProbabilities(data []float64) DetectionResult {
	return d.run(data, true)
}

func (d *Detector) run(data []float64, withProbabilities bool) DetectionResult {
	n := len(data)
	result := DetectionResult{}
	if withProbabilities {
		result.ChangepointProbabilities = make([]float64, n)
	}
	if n == 0 {
		return result
	}

	result.ChangepointIndices = append(result.ChangepointIndices, 0)
	if withProbabilities {
		result.ChangepointProbabilities[0] = 1.0
	}
	if n == 1 {
		return result
	}

	maxR := d.maxRunLength
	logRunProbs := make([]float64, maxR+1)
	stats := make([]sufficientStats, maxR+1)
	for i := range logRunProbs {
		logRunProbs[i] = math.Inf(-1)
	}
	stats[0] = sufficientStats{mu: d.prior.Mu0, kappa: d.prior.Kappa0, alpha: d.prior.Alpha0, beta: d.prior.Beta0}
	logRunProbs[0] = 0

	prevMapRun := 0

	for t := 0; t < n; t++ {
		x := data[t]

		logPred := make([]float64, maxR+1)
		for r := range logPred {
			logPred[r] = math.Inf(-1)
		}
		for r := 0; r <= maxR; r++ {
			if !isFinite(logRunProbs[r]) {
				continue
			}
			logPred[r] = logStudentT(x, stats[r])
		}

		newLogProbs := make([]float64, maxR+1)
		newStats := make([]sufficientStats, maxR+1)
		for r := range newLogProbs {
			newLogProbs[r] = math.Inf(-1)
		}

		logCP := math.Inf(-1)
		for r := 0; r <= maxR; r++ {
			if !isFinite(logRunProbs[r]) {
				continue
			}
			lp := logRunProbs[r] + logPred[r]

			hazardProb := d.hazardProb(r)
			logH := math.Log(hazardProb)
			log1mH := math.Log(1 - hazardProb)

			logCP = logSumExp2(logCP, lp+logH)

			if r+1 <= maxR {
				growth := lp + log1mH
				newLogProbs[r+1] = logSumExp2(newLogProbs[r+1], growth)
				newStats[r+1] = updateStats(stats[r], x)
			}
		}

		newLogProbs[0] = logCP
		newStats[0] = updateStats(sufficientStats{mu: d.prior.Mu0, kappa: d.prior.Kappa0, alpha: d.prior.Alpha0, beta: d.prior.Beta0}, x)

		logNorm := logSumExp(newLogProbs)
		for i := range newLogProbs {
			newLogProbs[i] -= logNorm
		}

		if withProbabilities && t > 0 {
			result.ChangepointProbabilities[t] = math.Exp(newLogProbs[0])
		}

		logRunProbs, stats = newLogProbs, newStats

		mapRun := 0
		best := math.Inf(-1)
		for r := 0; r <= maxR; r++ {
			if logRunProbs[r] > best {
				best = logRunProbs[r]
				mapRun = r
			}
		}

		if mapRun < prevMapRun && t > 0 {
			cpIndex := 0
			if t > mapRun {
				cpIndex = t - mapRun
			}
			last := result.ChangepointIndices[len(result.ChangepointIndices)-1]
			if last != cpIndex {
				result.ChangepointIndices = append(result.ChangepointIndices, cpIndex)
			}
		}
		prevMapRun = mapRun
	}

	last := result.ChangepointIndices[len(result.ChangepointIndices)-1]
	if last != n-1 {
		result.ChangepointIndices = append(result.ChangepointIndices, n-1)
	}

	sort.Ints(result.ChangepointIndices)
	result.ChangepointIndices = dedupeSorted(result.ChangepointIndices)
	return result
}

func dedupeSorted(v []int) []int {
	if len(v) == 0 {
		return v
	}
	out := v[:1]
	for _, x := range v[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
