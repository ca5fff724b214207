// Package forecaster is the high level forecasting package for fitting and predicting
// future time points given a single univariate time series. It generates a model for
// both the forecast values and an uncertainty band, where uncertainty represents the
// lower and upper bounds expected around the forecast. Three interchangeable engines
// back the series fit: AutoETS (automatic exponential smoothing model selection), MSTL
// (multi-seasonal decomposition with per-component extrapolation), and MFLES (gradient
// boosted trend/seasonality/level decomposition).
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/anofox/go-forecast/bocpd"
	"github.com/anofox/go-forecast/ets"
	"github.com/anofox/go-forecast/timedataset"
	"github.com/anofox/go-forecast/timeseries"
	"github.com/go-echarts/go-echarts/v2/components"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInsufficientResidual         = errors.New("insufficient samples from residual after outlier removal")
	ErrNoSeriesOrUncertaintyOptions = errors.New("no series or uncertainty options provided")
	ErrNotFitted                    = errors.New("forecaster: has not been fit")
)

const (
	MinResidualWindow       = 2
	MinResidualSize         = 2
	MinResidualWindowFactor = 4
)

// Forecaster fits a forecast model and can be used to generate forecasts.
type Forecaster struct {
	opt *Options

	seriesEngine      engine
	uncertaintyEngine engine

	fitTrainingData      *timedataset.TimeDataset
	uncertaintyTrainingT []time.Time
	fitResults           *Results
	residual             []float64
	uncertainty          []float64
}

// New creates a new instance of a Forecaster using the provided options. If no options are
// provided a default is used (AutoETS for both the series and uncertainty bands).
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.SeriesOptions == nil || opt.UncertaintyOptions == nil {
		return nil, ErrNoSeriesOrUncertaintyOptions
	}

	seriesEngine, err := newEngine(opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize series engine, %w", err)
	}
	uncertaintyEngine, err := newEngine(&SeriesOptions{Method: MethodAutoETS, AutoETSOptions: opt.UncertaintyOptions.AutoETSOptions})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize uncertainty engine, %w", err)
	}

	return &Forecaster{
		opt:               opt,
		seriesEngine:      seriesEngine,
		uncertaintyEngine: uncertaintyEngine,
	}, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. When the
// series or uncertainty engine is AutoETS and its fitted state was persisted, this skips
// refitting; otherwise (MSTL, MFLES) it re-fits from the model's stored training data.
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoSeriesOrUncertaintyOptions
	}

	f := &Forecaster{opt: model.Options}

	if model.Options.SeriesOptions.Method == MethodAutoETS && model.SeriesETSModel != nil {
		m, err := ets.NewFromModel(model.SeriesETSModel)
		if err != nil {
			return nil, fmt.Errorf("unable to load series model, %w", err)
		}
		f.seriesEngine = &restoredETSEngine{ETS: m}
	}
	if model.UncertaintyETSModel != nil {
		m, err := ets.NewFromModel(model.UncertaintyETSModel)
		if err != nil {
			return nil, fmt.Errorf("unable to load uncertainty model, %w", err)
		}
		f.uncertaintyEngine = &restoredETSEngine{ETS: m}
	}

	if f.seriesEngine == nil || f.uncertaintyEngine == nil {
		refit, err := New(model.Options)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize engines for re-fit, %w", err)
		}
		if err := refit.Fit(model.TrainingT, model.TrainingY); err != nil {
			return nil, fmt.Errorf("unable to re-fit from persisted training data, %w", err)
		}
		return refit, nil
	}

	td, err := timedataset.NewUnivariateDataset(model.TrainingT, model.TrainingY)
	if err != nil {
		return nil, fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.fitTrainingData = td
	f.fitResults, err = f.Predict(model.TrainingT)
	if err != nil {
		return nil, fmt.Errorf("unable to get predicted values from training set, %w", err)
	}
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model.
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.fitTrainingData = td.Copy()

	residual, err := f.fitSeriesWithOutliers(td)
	if err != nil {
		return err
	}

	// create residual to align with original time window since td.T may have changed
	// after outlier removal
	f.residual = make([]float64, len(t))
	var j int
	for i := range len(t) {
		if j < len(td.T) && t[i].Equal(td.T[j]) {
			f.residual[i] = residual[j]
			j++
		} else {
			f.residual[i] = math.NaN()
		}
	}

	uncertaintySeries, err := f.generateUncertaintySeries(residual)
	if err != nil {
		return fmt.Errorf("unable to generate uncertainty series, %w", err)
	}

	// shifting time by half the residual window since computing the uncertainty series is similar to a
	// finite impulse response filtering having a group delay of window/2.
	start := f.opt.UncertaintyOptions.ResidualWindow / 2
	end := len(td.T) - f.opt.UncertaintyOptions.ResidualWindow/2 - f.opt.UncertaintyOptions.ResidualWindow%2 + 1
	if end < start {
		end = start
	}

	// create uncertainty to align with original time window since td.T may have changed
	// after outlier removal
	f.uncertainty = make([]float64, len(t))
	var k int
	for i := range len(t) {
		if start+k < len(td.T) && k < len(uncertaintySeries) && t[i].Equal(td.T[start+k]) {
			f.uncertainty[i] = uncertaintySeries[k]
			k++
		} else {
			f.uncertainty[i] = math.NaN()
		}
	}

	if err := f.fitUncertainty(td.T[start:end], uncertaintySeries); err != nil {
		return err
	}

	f.fitResults, err = f.Predict(t)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}

	return nil
}

// fitSeriesWithOutliers iteratively fits the series engine and removes Tukey-detected
// outliers from the residual between passes, as configured by the series' OutlierOptions.
// Points marked as outliers are dropped from td before the next pass.
func (f *Forecaster) fitSeriesWithOutliers(td *timedataset.TimeDataset) ([]float64, error) {
	outlierOpt := f.opt.SeriesOptions.OutlierOptions

	numPasses := 0
	if outlierOpt != nil {
		numPasses = outlierOpt.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		*td = *td.DropNan()
		ts, err := timeseries.New(td.T, td.Y)
		if err != nil {
			return nil, fmt.Errorf("unable to build series for fit, %w", err)
		}
		if err := f.seriesEngine.Fit(ts); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}

		residual, err = f.seriesEngine.Residuals()
		if err != nil {
			return nil, fmt.Errorf("unable to fetch series residuals, %w", err)
		}

		if outlierOpt == nil {
			break
		}

		if removed := autoRemoveOutliers(td.Y, residual, outlierOpt); removed == 0 {
			break
		}
	}
	return residual, nil
}

// generateUncertaintySeries creates the uncertainty series by computing the rolling standard deviation
// of the residual scaled by the configured z-score.
func (f *Forecaster) generateUncertaintySeries(residual []float64) ([]float64, error) {
	if len(residual) < MinResidualSize {
		return nil, ErrInsufficientResidual
	}
	// compute rolling window standard deviation of residual for uncertainty bands
	// the window is not necessarily a block of continuous time but could jump across
	// outlier points

	// limit residual window to some factor of the resulting residual output
	resWindow := f.opt.UncertaintyOptions.ResidualWindow
	resWindow = min(len(residual)/MinResidualWindowFactor, resWindow)
	resWindow = max(MinResidualWindow, resWindow)
	f.opt.UncertaintyOptions.ResidualWindow = resWindow

	numWindows := len(residual) - resWindow + 1
	stddevSeries := make([]float64, numWindows)

	for i := range numWindows {
		window := residual[i : i+resWindow]

		// move all nans to the front so we only compute standard deviation off of non-nan values
		var ptr int
		for j := range len(window) {
			if math.IsNaN(window[j]) {
				window[ptr], window[j] = window[j], window[ptr]
				ptr++
			}
		}
		_, stddev := stat.MeanStdDev(window[ptr:], nil)
		stddevSeries[i] = f.opt.UncertaintyOptions.ResidualZscore * stddev
	}
	return stddevSeries, nil
}

func (f *Forecaster) fitUncertainty(t []time.Time, uncertaintySeries []float64) error {
	ts, err := timeseries.New(t, uncertaintySeries)
	if err != nil {
		return fmt.Errorf("unable to create series for uncertainty, %w", err)
	}
	if err := f.uncertaintyEngine.Fit(ts); err != nil {
		return fmt.Errorf("unable to forecast uncertainty, %w", err)
	}
	f.uncertaintyTrainingT = t
	return nil
}

// predictWithEngine splits t into a leading run that matches trainingT exactly, which is
// answered from the engine's in-sample fitted values, and a trailing run beyond the
// training window, which is answered from the engine's h-step-ahead forecast. ETS, MSTL,
// and MFLES all forecast in terms of steps past the end of their fitted series rather than
// as a continuous function of absolute time, so arbitrary time points are not supported;
// this matches the two call patterns the facade itself uses (in-sample re-evaluation during
// Fit, and a contiguous future horizon from PlotFit/callers).
func (f *Forecaster) predictWithEngine(eng engine, trainingT, t []time.Time) ([]float64, error) {
	matched := 0
	for matched < len(t) && matched < len(trainingT) && t[matched].Equal(trainingT[matched]) {
		matched++
	}

	out := make([]float64, 0, len(t))
	if matched > 0 {
		fitted, err := eng.FittedValues()
		if err != nil {
			return nil, err
		}
		if matched > len(fitted) {
			matched = len(fitted)
		}
		out = append(out, fitted[:matched]...)
	}

	if remaining := len(t) - matched; remaining > 0 {
		horizon, err := eng.Predict(remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, horizon...)
	}
	return out, nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point.
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if f.seriesEngine == nil || f.uncertaintyEngine == nil {
		return nil, ErrNotFitted
	}

	var trainingT []time.Time
	if f.fitTrainingData != nil {
		trainingT = f.fitTrainingData.T
	}
	seriesRes, err := f.predictWithEngine(f.seriesEngine, trainingT, t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecast, %w", err)
	}
	uncertaintyRes, err := f.predictWithEngine(f.uncertaintyEngine, f.uncertaintyTrainingT, t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict uncertainty forecast, %w", err)
	}

	// cap uncertainty predictions to be greater than or equal to 0
	for i := range len(uncertaintyRes) {
		if uncertaintyRes[i] < 0.0 {
			uncertaintyRes[i] = 0.0
		}
	}

	r := &Results{
		T:        t,
		Forecast: seriesRes,
	}
	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))

	copy(upper, seriesRes)
	copy(lower, seriesRes)

	floats.Add(upper, uncertaintyRes)
	floats.Sub(lower, uncertaintyRes)

	f.clip(r.Forecast)
	f.clip(upper)
	f.clip(lower)

	r.Upper = upper
	r.Lower = lower

	if d, ok := f.seriesEngine.(decomposedEngine); ok {
		r.Trend = d.TrendComponent()
		r.Seasonal = d.SeasonalComponent()
		r.Remainder = d.RemainderComponent()
	}

	return r, nil
}

// Score computes the coefficient of determination of the prediction.
func (f *Forecaster) Score(t []time.Time, y []float64) (float64, error) {
	if t == nil {
		return 0.0, fmt.Errorf("no time slice for inference")
	}
	if y == nil {
		return 0.0, fmt.Errorf("no expected values for inference")
	}
	if len(t) != len(y) {
		return 0.0, fmt.Errorf("time slice has %d entries and target has %d entries", len(t), len(y))
	}

	res, err := f.Predict(t)
	if err != nil {
		return 0.0, err
	}

	return stat.RSquaredFrom(res.Forecast, y, nil), nil
}

// Residuals returns the difference between the final series fit and the training data.
func (f *Forecaster) Residuals() []float64 { return f.residual }

// Uncertainty returns the uncertainty series used to forecast the upper/lower bounds.
func (f *Forecaster) Uncertainty() []float64 { return f.uncertainty }

// TrendComponent returns the series engine's trend component, or nil if the configured
// engine (AutoETS) does not expose a separate trend.
func (f *Forecaster) TrendComponent() []float64 {
	if d, ok := f.seriesEngine.(decomposedEngine); ok {
		return d.TrendComponent()
	}
	return nil
}

// SeasonalityComponent returns the series engine's combined seasonal component, or nil if
// the configured engine does not expose one.
func (f *Forecaster) SeasonalityComponent() []float64 {
	if d, ok := f.seriesEngine.(decomposedEngine); ok {
		return d.SeasonalComponent()
	}
	return nil
}

// RemainderComponent returns the series engine's remainder/residual decomposition
// component, or nil if the configured engine does not expose one.
func (f *Forecaster) RemainderComponent() []float64 {
	if d, ok := f.seriesEngine.(decomposedEngine); ok {
		return d.RemainderComponent()
	}
	return nil
}

// DetectChangepoints runs Bayesian online changepoint detection over the fitted residuals,
// flagging points where the series' underlying generative parameters appear to have shifted.
func (f *Forecaster) DetectChangepoints(detector *bocpd.Detector) (*bocpd.DetectionResult, error) {
	if detector == nil {
		detector = bocpd.NewBuilder().Build()
	}
	if f.residual == nil {
		return nil, ErrNotFitted
	}

	clean := make([]float64, 0, len(f.residual))
	for _, v := range f.residual {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	res := detector.DetectWithProbabilities(clean)
	return &res, nil
}

// Model generates a serializable representation of the fit options and, where the series
// or uncertainty engine is AutoETS, its fitted state. This can be used to initialize a new
// Forecaster for immediate predictions, skipping the training step where possible.
func (f *Forecaster) Model() (Model, error) {
	if f.fitTrainingData == nil {
		return Model{}, ErrNotFitted
	}
	m := Model{
		Options:   f.opt,
		TrainingT: f.fitTrainingData.T,
		TrainingY: f.fitTrainingData.Y,
	}
	if e, ok := f.seriesEngine.(etsBacked); ok {
		fitted, err := e.ETSModel()
		if err != nil {
			return Model{}, fmt.Errorf("unable to snapshot series model, %w", err)
		}
		sm, err := fitted.ToModel()
		if err != nil {
			return Model{}, fmt.Errorf("unable to snapshot series model, %w", err)
		}
		m.SeriesETSModel = sm
	}
	if e, ok := f.uncertaintyEngine.(etsBacked); ok {
		fitted, err := e.ETSModel()
		if err != nil {
			return Model{}, fmt.Errorf("unable to snapshot uncertainty model, %w", err)
		}
		um, err := fitted.ToModel()
		if err != nil {
			return Model{}, fmt.Errorf("unable to snapshot uncertainty model, %w", err)
		}
		m.UncertaintyETSModel = um
	}
	return m, nil
}

// TrainingData returns the training data used to fit the current forecaster model.
func (f *Forecaster) TrainingData() *timedataset.TimeDataset { return f.fitTrainingData }

// FitResults returns the results of the fit, which includes the forecast, upper, and lower values.
func (f *Forecaster) FitResults() *Results { return f.fitResults }

// MakeFuturePeriods generates a slice of time after the last point in the training data. By default
// a zero freq will infer the interval from the training data.
func (f *Forecaster) MakeFuturePeriods(periods int, freq time.Duration) ([]time.Time, error) {
	td := f.TrainingData()
	t := timedataset.TimeSlice(td.T)
	lastTime := t.EndTime()

	if freq == 0 {
		var err error
		freq, err = t.EstimateFreq()
		if err != nil {
			return nil, err
		}
	}
	horizon := make([]time.Time, 0, periods)
	for i := range periods {
		horizon = append(horizon, lastTime.Add(time.Duration(i+1)*freq))
	}
	return horizon, nil
}

// PlotOpts sets the horizon to forecast out. By default it uses 10% of the training size, assuming
// even intervals between points with the interval inferred from the training data.
type PlotOpts struct {
	HorizonCnt      int
	HorizonInterval time.Duration
}

// PlotFit uses the Apache ECharts library to generate an HTML page showing the resulting fit,
// decomposition components, and fit residual.
func (f *Forecaster) PlotFit(w io.Writer, opt *PlotOpts) error {
	td := f.TrainingData()

	horizonCnt := len(td.T) / 10
	var horizonInterval time.Duration
	if opt != nil {
		horizonCnt = opt.HorizonCnt
		horizonInterval = opt.HorizonInterval
	}
	if horizonCnt < 1 {
		horizonCnt = 1
	}
	horizon, err := f.MakeFuturePeriods(horizonCnt, horizonInterval)
	if err != nil {
		return err
	}

	t := make([]time.Time, len(td.T), len(td.T)+horizonCnt)
	copy(t, td.T)
	t = append(t, horizon...)

	zpad := make([]float64, horizonCnt)
	for i := range zpad {
		zpad[i] = math.NaN()
	}

	forecastRes, err := f.Predict(horizon)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	residuals := append(append([]float64(nil), f.Residuals()...), zpad...)
	uncertainty := append(append([]float64(nil), f.Uncertainty()...), zpad...)

	page := components.NewPage()
	page.AddCharts(
		LineForecaster(td, f.fitResults, forecastRes),
		LineTSeries(
			"Forecast Residual",
			[]string{"Residual", "Uncertainty"},
			t,
			[][]float64{residuals, uncertainty},
			len(td.T),
		),
	)

	if f.fitResults.Trend != nil {
		trendComp := append(append([]float64(nil), f.fitResults.Trend...), forecastRes.Trend...)
		seasonComp := append(append([]float64(nil), f.fitResults.Seasonal...), forecastRes.Seasonal...)
		remainderComp := append(append([]float64(nil), f.fitResults.Remainder...), forecastRes.Remainder...)
		page.AddCharts(
			LineTSeries(
				"Forecast Components",
				[]string{"Trend", "Seasonal", "Remainder"},
				t,
				[][]float64{trendComp, seasonComp, remainderComp},
				len(td.T),
			),
		)
	}

	return page.Render(w)
}

func (f *Forecaster) clip(series []float64) {
	var clipMin, clipMax bool
	var minVal, maxVal float64
	if f.opt.MinValue != nil {
		clipMin = true
		minVal = *f.opt.MinValue
	}
	if f.opt.MaxValue != nil {
		clipMax = true
		maxVal = *f.opt.MaxValue
	}
	if !clipMin && !clipMax {
		return
	}

	for i := range len(series) {
		if clipMin && series[i] < minVal {
			series[i] = minVal
			continue
		}
		if clipMax && series[i] > maxVal {
			series[i] = maxVal
			continue
		}
	}
}
