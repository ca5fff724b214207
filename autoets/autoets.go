package autoets

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/anofox/go-forecast/ets"
	"github.com/anofox/go-forecast/timeseries"
)

// Options configures an AutoETS search.
type Options struct {
	// Spec is the ETS spec string, e.g. "ZZZ" for fully automatic search.
	Spec string
	// M is the seasonal period used for any candidate with a seasonal
	// component; ignored for non-seasonal candidates.
	M int
	// Parallelization bounds the number of candidates evaluated
	// concurrently; values <= 0 evaluate candidates one at a time.
	Parallelization int
	// EarlyStopAfter stops the candidate funnel after this many
	// consecutive non-improving candidates (AICc).
	EarlyStopAfter int
}

// NewDefaultOptions returns the default fully-automatic search.
func NewDefaultOptions() *Options {
	return &Options{Spec: "ZZZ", M: 1, Parallelization: 4, EarlyStopAfter: 8}
}

// candidateResult is the outcome of fitting and scoring one ETS candidate.
type candidateResult struct {
	model *ets.ETS
	aicc  float64
	err   error
}

// AutoETS is the model-selection driver. The zero value is unusable; call
// New to obtain an unfitted instance, then Fit.
type AutoETS struct {
	opt *Options

	fitted   bool
	best     *ets.ETS
	bestAICc float64

	candidatesEvaluated int
}

// New returns an unfitted AutoETS driver configured with opt (nil for
// defaults).
func New(opt *Options) *AutoETS {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &AutoETS{opt: opt}
}

// Fit enumerates admissible candidates for the configured spec, seeds and
// refines each, and keeps the AICc-best fit.
func (a *AutoETS) Fit(ts *timeseries.TimeSeries) error {
	y := ts.Values()
	candidates, err := Candidates(a.opt.Spec, a.opt.M, ts.AllPositive())
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w: spec %q produced no admissible candidates", ErrNoValidCandidate, a.opt.Spec)
	}

	parallelism := a.opt.Parallelization
	if parallelism <= 0 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	results := make([]candidateResult, len(candidates))

	for i, cfg := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, cfg ets.Config) {
			defer wg.Done()
			defer func() { <-sem }()
			m, aicc, err := fitOneCandidate(cfg, ts, y)
			if err != nil {
				slog.Error("autoets: candidate fit failed", "spec", cfg.String(), "error", err.Error())
			}
			results[i] = candidateResult{model: m, aicc: aicc, err: err}
		}(i, cfg)
	}
	wg.Wait()

	// AICc-ranked selection with early stop after a configurable run of
	// non-improving candidates, evaluated in the order the candidates were
	// enumerated so the stop is deterministic across runs.
	bestAICc := math.Inf(1)
	var best, firstFitted *ets.ETS
	noImprove := 0
	earlyStop := a.opt.EarlyStopAfter
	if earlyStop <= 0 {
		earlyStop = 8
	}

	for _, r := range results {
		a.candidatesEvaluated++
		if r.err != nil || r.model == nil {
			continue
		}
		if firstFitted == nil {
			firstFitted = r.model
		}
		if betterAICc(r.aicc, bestAICc) {
			bestAICc = r.aicc
			best = r.model
			noImprove = 0
		} else {
			noImprove++
			if noImprove >= earlyStop {
				break
			}
		}
	}

	if best == nil {
		// Every successful fit scored +Inf AICc (e.g. a zero-SSE fit of a
		// constant series); keep the first one in enumeration order.
		best = firstFitted
	}
	if best == nil {
		return ErrNoValidCandidate
	}

	a.best = best
	a.bestAICc = bestAICc
	a.fitted = true
	return nil
}

func betterAICc(candidate, best float64) bool {
	if math.IsInf(best, 1) {
		return !math.IsInf(candidate, 1)
	}
	return candidate < best
}

func fitOneCandidate(cfg ets.Config, ts *timeseries.TimeSeries, y []float64) (*ets.ETS, float64, error) {
	seed, _ := coarseSearch(cfg, y)
	refined := refine(seed, y)
	if err := refined.Validate(); err != nil {
		return nil, math.Inf(1), err
	}

	m := ets.New(refined)
	if err := m.Fit(ts); err != nil {
		return nil, math.Inf(1), err
	}
	return m, m.AICc(), nil
}

// Predict returns the h-step-ahead forecasts from the selected model.
func (a *AutoETS) Predict(h int) ([]float64, error) {
	if !a.fitted {
		return nil, ErrNotFitted
	}
	return a.best.Predict(h)
}

// SelectedConfig returns the winning candidate's configuration.
func (a *AutoETS) SelectedConfig() (ets.Config, error) {
	if !a.fitted {
		return ets.Config{}, ErrNotFitted
	}
	return a.best.Config(), nil
}

// Model returns the underlying fitted ETS model selected by the search.
func (a *AutoETS) Model() (*ets.ETS, error) {
	if !a.fitted {
		return nil, ErrNotFitted
	}
	return a.best, nil
}

// AICc returns the winning candidate's bias-corrected AIC.
func (a *AutoETS) AICc() (float64, error) {
	if !a.fitted {
		return 0, ErrNotFitted
	}
	return a.bestAICc, nil
}

// CandidatesEvaluated reports how many candidates the funnel scored before
// stopping (either exhausting the enumeration or hitting the early-stop
// threshold).
func (a *AutoETS) CandidatesEvaluated() int { return a.candidatesEvaluated }
