// Package mfles implements MFLES: a gradient-boosted time series
// decomposition forecaster that accumulates a linear or robust trend,
// per-period Fourier seasonality, and a residual smoother over up to
// MaxRounds boosting rounds (stopping early once the residual spread
// converges), each scaled by its own learning rate and subtracted from the
// running residual before the next round begins. No median baseline is
// fit: LRMedian is not read by the boosting loop.
package mfles

// TrendMethod selects how each boosting round's trend component is
// fit against the current residual.
type TrendMethod int

const (
	TrendOLS TrendMethod = iota
	TrendSiegelRobust
	TrendPiecewise
)

// Params configures an MFLES forecaster. The zero value is not usable;
// start from NewDefaultParams or one of the named presets.
type Params struct {
	SeasonalPeriods []int

	MaxRounds            int
	ConvergenceThreshold float64

	LRMedian float64
	LRTrend  float64
	LRSeason float64
	LRRS     float64

	Multiplicative         bool
	MultiplicativeOverride *bool
	CoVThreshold           float64

	TrendMethod     TrendMethod
	TrendPenalty    bool
	Changepoints    bool
	ChangepointsPct float64
	LassoAlpha      float64

	FourierOrder        int // -1 = adaptive
	SeasonalityWeights  bool

	Smoother    bool // false = ES ensemble, true = moving average
	MAWindow    int
	MinAlpha    float64
	MaxAlpha    float64
	ESEnsembleSteps int

	MovingMedians bool

	CapOutliers        bool
	OutlierSigma       float64
	OutlierCapStartRound int

	RoundPenalty float64
}

// NewDefaultParams mirrors the reference implementation's Params zero
// value: OLS trend, non-multiplicative, ES ensemble residual smoothing,
// no outlier capping suppressed.
func NewDefaultParams() Params {
	return Params{
		SeasonalPeriods:      []int{12},
		MaxRounds:            50,
		ConvergenceThreshold: 0.01,
		LRMedian:             1.0,
		LRTrend:              0.9,
		LRSeason:             0.9,
		LRRS:                 1.0,
		CoVThreshold:         0.7,
		TrendMethod:          TrendOLS,
		TrendPenalty:         true,
		Changepoints:         true,
		ChangepointsPct:      0.25,
		LassoAlpha:           1.0,
		FourierOrder:         -1,
		Smoother:             false,
		MAWindow:             5,
		MinAlpha:             0.05,
		MaxAlpha:             1.0,
		ESEnsembleSteps:      20,
		CapOutliers:          true,
		OutlierSigma:         3.0,
		OutlierCapStartRound: 5,
		RoundPenalty:         0.0001,
	}
}

// FastPreset trades accuracy for a handful of boosting rounds and a
// small Fourier order.
func FastPreset() Params {
	p := NewDefaultParams()
	p.MaxRounds = 3
	p.FourierOrder = 3
	p.TrendMethod = TrendOLS
	p.ESEnsembleSteps = 10
	p.CapOutliers = false
	return p
}

// BalancedPreset is the recommended default configuration.
func BalancedPreset() Params {
	p := NewDefaultParams()
	p.MaxRounds = 5
	p.FourierOrder = 5
	p.TrendMethod = TrendOLS
	p.ESEnsembleSteps = 20
	p.CapOutliers = true
	return p
}

// AccuratePreset spends more boosting rounds and a robust trend fit for
// higher accuracy at greater computational cost.
func AccuratePreset() Params {
	p := NewDefaultParams()
	p.MaxRounds = 10
	p.FourierOrder = 7
	p.TrendMethod = TrendSiegelRobust
	p.ESEnsembleSteps = 30
	p.SeasonalityWeights = true
	p.CapOutliers = true
	return p
}

// RobustPreset maximizes resistance to outliers via Siegel repeated
// medians and a tighter outlier sigma.
func RobustPreset() Params {
	p := NewDefaultParams()
	p.MaxRounds = 7
	p.FourierOrder = 5
	p.TrendMethod = TrendSiegelRobust
	p.ESEnsembleSteps = 20
	p.SeasonalityWeights = true
	p.CapOutliers = true
	p.OutlierSigma = 2.5
	return p
}

// Builder provides a fluent API for constructing Params, mirroring the
// reference implementation's builder surface.
type Builder struct {
	p Params
}

// NewBuilder starts from NewDefaultParams.
func NewBuilder() *Builder {
	return &Builder{p: NewDefaultParams()}
}

func (b *Builder) WithSeasonalPeriods(periods []int) *Builder {
	b.p.SeasonalPeriods = periods
	return b
}

func (b *Builder) WithMaxRounds(rounds int) *Builder {
	b.p.MaxRounds = rounds
	return b
}

func (b *Builder) WithLearningRates(trend, season, rs float64) *Builder {
	b.p.LRTrend = trend
	b.p.LRSeason = season
	b.p.LRRS = rs
	return b
}

func (b *Builder) WithMultiplicative(enable bool) *Builder {
	b.p.MultiplicativeOverride = &enable
	return b
}

func (b *Builder) WithTrendMethod(method TrendMethod) *Builder {
	b.p.TrendMethod = method
	return b
}

func (b *Builder) WithChangepoints(enable bool, pct float64) *Builder {
	b.p.Changepoints = enable
	b.p.ChangepointsPct = pct
	return b
}

func (b *Builder) WithSeasonalityWeights(enable bool) *Builder {
	b.p.SeasonalityWeights = enable
	return b
}

func (b *Builder) WithESEnsemble(minAlpha, maxAlpha float64, steps int) *Builder {
	b.p.Smoother = false
	b.p.MinAlpha = minAlpha
	b.p.MaxAlpha = maxAlpha
	b.p.ESEnsembleSteps = steps
	return b
}

func (b *Builder) WithMovingAverage(window int) *Builder {
	b.p.Smoother = true
	b.p.MAWindow = window
	return b
}

func (b *Builder) WithFourierOrder(order int) *Builder {
	b.p.FourierOrder = order
	return b
}

func (b *Builder) WithOutlierCapping(enable bool, sigma float64) *Builder {
	b.p.CapOutliers = enable
	b.p.OutlierSigma = sigma
	return b
}

func (b *Builder) Build() Params { return b.p }
