package mfles

import (
	"errors"
	"fmt"
	"math"

	"github.com/anofox/go-forecast/timeseries"
)

var (
	ErrNotFitted     = errors.New("mfles: forecaster has not been fit")
	ErrTooFewPoints  = errors.New("mfles: need at least 3 observations")
	ErrInvalidParams = errors.New("mfles: invalid parameters")
)

// Decomposition exposes the additive components MFLES accumulated
// during boosting, in the space the model actually fit in (log space
// when the model is running multiplicative).
type Decomposition struct {
	Trend     []float64
	Seasonal  map[int][]float64
	Level     []float64
	Residuals []float64
}

// seasonalState is the accumulated Fourier fit for one period.
type seasonalState struct {
	k     int
	coefs fourierCoeffs
}

// MFLES is a gradient-boosted decomposition forecaster. The zero value
// is unusable; call New then Fit.
type MFLES struct {
	params Params

	n              int
	isMultiplicative bool
	shift          float64

	trendSlope     float64
	trendIntercept float64
	seasonal       map[int]seasonalState
	level          float64

	trendComponent    []float64
	seasonalComponent map[int][]float64
	levelComponent    []float64
	fitted            []float64
	residuals         []float64

	actualRounds int
	fittedFlag   bool
}

// New returns an unfitted MFLES forecaster for the given parameters.
func New(params Params) *MFLES {
	return &MFLES{params: params}
}

func (m *MFLES) validate() error {
	if m.params.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be >= 1: %w", ErrInvalidParams)
	}
	for _, lr := range []float64{m.params.LRTrend, m.params.LRSeason, m.params.LRRS} {
		if lr < 0 || lr > 1 {
			return fmt.Errorf("learning rates must be in [0,1]: %w", ErrInvalidParams)
		}
	}
	for _, p := range m.params.SeasonalPeriods {
		if p < 1 {
			return fmt.Errorf("seasonal periods must be >= 1: %w", ErrInvalidParams)
		}
	}
	return nil
}

// Fit runs the boosting loop against ts.
func (m *MFLES) Fit(ts *timeseries.TimeSeries) error {
	if err := m.validate(); err != nil {
		return err
	}
	data := ts.Values()
	n := len(data)
	if n < 3 {
		return ErrTooFewPoints
	}
	m.n = n

	m.isMultiplicative = m.shouldUseMultiplicative(data)
	preprocessed := m.preprocess(data)

	trend := make([]float64, n)
	level := make([]float64, n)
	seasonalComp := make(map[int][]float64, len(m.params.SeasonalPeriods))
	for _, p := range m.params.SeasonalPeriods {
		seasonalComp[p] = make([]float64, n)
	}
	seasonalAccum := make(map[int]seasonalState, len(m.params.SeasonalPeriods))

	residual := append([]float64(nil), preprocessed...)

	var accumSlope, accumIntercept, accumLevel float64
	dataMax, dataMin := preprocessed[0], preprocessed[0]
	for _, v := range preprocessed {
		if v > dataMax {
			dataMax = v
		}
		if v < dataMin {
			dataMin = v
		}
	}
	dataRange := dataMax - dataMin

	var weights []float64
	if m.params.SeasonalityWeights {
		weights = seasonalityWeights(n)
	}

	round := 0
	for ; round < m.params.MaxRounds; round++ {
		if m.params.LRTrend > 0 {
			var tr []float64
			var slope, intercept float64
			switch m.params.TrendMethod {
			case TrendSiegelRobust:
				tr, slope, intercept = fitSiegelTrend(residual)
			default:
				tr, slope, intercept = fitLinearTrend(residual)
			}
			accumSlope += m.params.LRTrend * slope
			accumIntercept += m.params.LRTrend * intercept
			for i := range trend {
				trend[i] += m.params.LRTrend * tr[i]
				residual[i] -= m.params.LRTrend * tr[i]
			}
		}

		if m.params.LRSeason > 0 {
			for _, p := range m.params.SeasonalPeriods {
				if n < 2*p {
					continue
				}
				k := adaptiveK(p, m.params.FourierOrder)
				seasonal, coefs := fitFourierSeason(residual, p, k, weights)
				prev, ok := seasonalAccum[p]
				if !ok {
					scaled := fourierCoeffs{sin: scaleVec(coefs.sin, m.params.LRSeason), cos: scaleVec(coefs.cos, m.params.LRSeason), k: coefs.k}
					seasonalAccum[p] = seasonalState{k: k, coefs: scaled}
				} else {
					addScaled(prev.coefs.sin, coefs.sin, m.params.LRSeason)
					addScaled(prev.coefs.cos, coefs.cos, m.params.LRSeason)
				}
				for i := range seasonalComp[p] {
					seasonalComp[p][i] += m.params.LRSeason * seasonal[i]
					residual[i] -= m.params.LRSeason * seasonal[i]
				}
			}
		}

		if m.params.LRRS > 0 {
			var smoothed []float64
			if m.params.Smoother {
				smoothed = fitMovingAverage(residual, m.params.MAWindow)
			} else {
				smoothed, _ = fitESEnsemble(residual, m.params.MinAlpha, m.params.MaxAlpha, m.params.ESEnsembleSteps)
			}
			if len(smoothed) > 0 {
				accumLevel += m.params.LRRS * smoothed[len(smoothed)-1]
			}
			for i := range level {
				level[i] += m.params.LRRS * smoothed[i]
				residual[i] -= m.params.LRRS * smoothed[i]
			}
		}

		if m.params.CapOutliers && round >= m.params.OutlierCapStartRound {
			capOutliers(residual, m.params.OutlierSigma)
		}

		residualStd := stdOf(residual)
		if residualStd < m.params.ConvergenceThreshold*dataRange && round >= 5 {
			round++
			break
		}
	}

	m.trendSlope = accumSlope
	m.trendIntercept = accumIntercept
	m.seasonal = seasonalAccum
	m.level = accumLevel

	m.trendComponent = trend
	m.seasonalComponent = seasonalComp
	m.levelComponent = level
	m.actualRounds = round

	m.fitted = make([]float64, n)
	m.residuals = make([]float64, n)
	for i := 0; i < n; i++ {
		fv := trend[i] + level[i]
		for _, p := range m.params.SeasonalPeriods {
			fv += seasonalComp[p][i]
		}
		m.fitted[i] = m.postprocessValue(fv)
		m.residuals[i] = data[i] - m.fitted[i]
	}

	m.fittedFlag = true
	return nil
}

func (m *MFLES) shouldUseMultiplicative(data []float64) bool {
	if m.params.MultiplicativeOverride != nil {
		return *m.params.MultiplicativeOverride
	}
	if !allPositive(data) {
		return false
	}
	return computeCoV(data) > m.params.CoVThreshold
}

func (m *MFLES) preprocess(data []float64) []float64 {
	if !m.isMultiplicative {
		m.shift = 0
		return append([]float64(nil), data...)
	}
	minV := data[0]
	for _, v := range data {
		if v < minV {
			minV = v
		}
	}
	m.shift = 0
	if minV <= 0 {
		m.shift = -minV + 1
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = math.Log(v + m.shift)
	}
	return out
}

func (m *MFLES) postprocessValue(v float64) float64 {
	if !m.isMultiplicative {
		return v
	}
	return math.Exp(v) - m.shift
}

// Predict returns the h-step-ahead forecast.
func (m *MFLES) Predict(h int) ([]float64, error) {
	if !m.fittedFlag {
		return nil, ErrNotFitted
	}
	if h <= 0 {
		return nil, fmt.Errorf("horizon must be positive: %w", ErrInvalidParams)
	}

	out := make([]float64, h)
	for i := 0; i < h; i++ {
		t := float64(m.n + i)
		out[i] = m.trendIntercept + m.trendSlope*t + m.level
	}
	for _, p := range m.params.SeasonalPeriods {
		st, ok := m.seasonal[p]
		if !ok {
			continue
		}
		proj := projectFourier(st.coefs, p, m.n, 0, h)
		for i := range out {
			out[i] += proj[i]
		}
	}

	for i := range out {
		out[i] = m.postprocessValue(out[i])
	}
	return out, nil
}

// FittedValues returns the in-sample fitted values.
func (m *MFLES) FittedValues() ([]float64, error) {
	if !m.fittedFlag {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), m.fitted...), nil
}

// Residuals returns the in-sample residuals (original-scale observed
// minus fitted).
func (m *MFLES) Residuals() ([]float64, error) {
	if !m.fittedFlag {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), m.residuals...), nil
}

// IsMultiplicative reports whether the fit ran in log space.
func (m *MFLES) IsMultiplicative() bool { return m.isMultiplicative }

// ActualRoundsUsed reports how many boosting rounds ran before
// converging or exhausting MaxRounds.
func (m *MFLES) ActualRoundsUsed() int { return m.actualRounds }

// SeasonalDecompose returns the fitted trend/seasonal/level/residual
// components in the space the model fit in.
func (m *MFLES) SeasonalDecompose() (Decomposition, error) {
	if !m.fittedFlag {
		return Decomposition{}, ErrNotFitted
	}
	seasonal := make(map[int][]float64, len(m.seasonalComponent))
	for p, v := range m.seasonalComponent {
		seasonal[p] = append([]float64(nil), v...)
	}
	return Decomposition{
		Trend:     append([]float64(nil), m.trendComponent...),
		Seasonal:  seasonal,
		Level:     append([]float64(nil), m.levelComponent...),
		Residuals: append([]float64(nil), m.residuals...),
	}, nil
}

func allPositive(v []float64) bool {
	for _, x := range v {
		if x <= 0 {
			return false
		}
	}
	return true
}

func stdOf(v []float64) float64 {
	_, std := meanStdDev(v)
	return std
}

func scaleVec(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func addScaled(dst, src []float64, s float64) {
	for i := range dst {
		dst[i] += src[i] * s
	}
}
