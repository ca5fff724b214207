package forecaster

import (
	"github.com/anofox/go-forecast/autoets"
	"github.com/anofox/go-forecast/mfles"
	"github.com/anofox/go-forecast/mstl"
)

// OutlierOptions configures the outlier removal pre-process using the Tukey method. The outlier
// removal process is done by multiple iterations of fitting the training data to a model and each step
// removing outliers. For IQR set UpperPercentile to 0.75, LowerPercentile to 0.25, and TukeyFactor to 1.5.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

// NewOutlierOptions generates a default set of outlier options.
func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// SeriesOptions selects and configures the engine used to fit the series itself.
type SeriesOptions struct {
	Method Method `json:"method"`

	AutoETSOptions *autoets.Options         `json:"-"`
	MSTLOptions    *mstl.ForecasterOptions  `json:"-"`
	MFLESParams    *mfles.Params            `json:"-"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
}

// NewSeriesOptions generates AutoETS-backed series options, the default
// engine when the data's seasonal structure is unknown ahead of time.
func NewSeriesOptions() *SeriesOptions {
	return &SeriesOptions{
		Method:         MethodAutoETS,
		AutoETSOptions: autoets.NewDefaultOptions(),
		OutlierOptions: NewOutlierOptions(),
	}
}

// NewMSTLSeriesOptions generates MSTL-backed series options decomposing
// the given seasonal periods (e.g. []int{7, 365} for daily data with
// weekly and yearly seasonality).
func NewMSTLSeriesOptions(periods []int) *SeriesOptions {
	opt := mstl.NewDefaultForecasterOptions(periods)
	return &SeriesOptions{
		Method:         MethodMSTL,
		MSTLOptions:    &opt,
		OutlierOptions: NewOutlierOptions(),
	}
}

// NewMFLESSeriesOptions generates MFLES-backed series options using the
// given preset (e.g. mfles.BalancedPreset()).
func NewMFLESSeriesOptions(params mfles.Params) *SeriesOptions {
	return &SeriesOptions{
		Method:         MethodMFLES,
		MFLESParams:    &params,
		OutlierOptions: NewOutlierOptions(),
	}
}

// UncertaintyOptions selects and configures the engine used to forecast the
// rolling residual standard deviation that drives the upper/lower bounds.
type UncertaintyOptions struct {
	AutoETSOptions *autoets.Options `json:"-"`
	ResidualWindow int              `json:"residual_window"`
	ResidualZscore float64          `json:"residual_zscore"`
}

// NewUncertaintyOptions generates a default set of uncertainty options. The
// uncertainty series (a rolling standard deviation) is rarely seasonal, so
// it defaults to a non-seasonal AutoETS search.
func NewUncertaintyOptions() *UncertaintyOptions {
	return &UncertaintyOptions{
		AutoETSOptions: &autoets.Options{Spec: "ZZN", M: 1, Parallelization: 4, EarlyStopAfter: 8},
		ResidualWindow: 100,
		ResidualZscore: 4.0,
	}
}

// Options represents all forecaster options for outlier removal, series fit, and uncertainty fit.
type Options struct {
	SeriesOptions      *SeriesOptions      `json:"series_options"`
	UncertaintyOptions *UncertaintyOptions `json:"uncertainty_options"`

	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
}

// NewDefaultOptions generates a default set of options for a forecaster: AutoETS for both the
// series and the uncertainty band, with Tukey-based outlier removal enabled.
func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:      NewSeriesOptions(),
		UncertaintyOptions: NewUncertaintyOptions(),
	}
}

// SetMinValue clamps all forecast, upper, and lower values to be no lower than v.
func (o *Options) SetMinValue(v float64) { o.MinValue = &v }

// SetMaxValue clamps all forecast, upper, and lower values to be no higher than v.
func (o *Options) SetMaxValue(v float64) { o.MaxValue = &v }
