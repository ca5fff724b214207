package ets

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
)

// Model is the JSON-serializable snapshot of a fitted ETS model, used for
// persistence and round-tripping without replaying the fit.
type Model struct {
	Error  string  `json:"error"`
	Trend  string  `json:"trend"`
	Season string  `json:"season"`
	M      int     `json:"m"`
	Alpha  float64 `json:"alpha"`
	Beta   float64 `json:"beta,omitempty"`
	Gamma  float64 `json:"gamma,omitempty"`
	Phi    float64 `json:"phi,omitempty"`

	Level       float64   `json:"level"`
	Trend0      float64   `json:"trend_state,omitempty"`
	SeasonState []float64 `json:"season_state,omitempty"`

	N             int     `json:"n"`
	InnovationSSE float64 `json:"innovation_sse"`
	SumLogForecast float64 `json:"sum_log_forecast,omitempty"`
}

// ToModel snapshots a fitted ETS into its persistable form.
func (e *ETS) ToModel() (*Model, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	m := &Model{
		Error:          errorName(e.cfg.Error),
		Trend:          trendName(e.cfg.Trend),
		Season:         seasonName(e.cfg.Season),
		M:              e.cfg.M,
		Alpha:          e.cfg.Alpha,
		Beta:           e.cfg.Beta,
		Gamma:          e.cfg.Gamma,
		Phi:            e.cfg.Phi,
		Level:          e.state.Level,
		Trend0:         e.state.Trend,
		N:              e.n,
		InnovationSSE:  e.innovationSSE,
		SumLogForecast: e.sumLogForecast,
	}
	if e.state.Seasonal != nil {
		m.SeasonState = e.state.Seasonal.Snapshot()
	}
	return m, nil
}

// NewFromModel reconstructs a fitted ETS from a persisted Model, without
// needing access to the original training series.
func NewFromModel(m *Model) (*ETS, error) {
	cfg := Config{
		Error:  parseError(m.Error),
		Trend:  parseTrend(m.Trend),
		Season: parseSeason(m.Season),
		M:      m.M,
		Alpha:  m.Alpha,
		Beta:   m.Beta,
		Gamma:  m.Gamma,
		Phi:    m.Phi,
	}
	e := &ETS{cfg: cfg}
	var sb *SeasonalBuffer
	if len(m.SeasonState) > 0 {
		sb = FromSnapshot(m.SeasonState)
	}
	e.state = &State{Level: m.Level, Trend: m.Trend0, Seasonal: sb}
	e.n = m.N
	e.innovationSSE = m.InnovationSSE
	e.sumLogForecast = m.SumLogForecast
	e.fitted = true
	return e, nil
}

// MarshalJSON and UnmarshalJSON route through goccy/go-json for faster
// encode/decode than the standard library, matching the teacher's model
// persistence dependency.
func (m *Model) MarshalJSON() ([]byte, error) {
	type alias Model
	return json.Marshal((*alias)(m))
}

func (m *Model) UnmarshalJSON(data []byte) error {
	type alias Model
	return json.Unmarshal(data, (*alias)(m))
}

// TablePrint renders a human-readable summary of the model's configuration
// and fitted diagnostics via text/tabwriter, matching the teacher's
// options table-printing idiom.
func (e *ETS) TablePrint(w io.Writer, prefix, indent string) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbl, "%s%sSpec\t%s\t\n", prefix, indent, e.cfg.String())
	fmt.Fprintf(tbl, "%s%sM\t%d\t\n", prefix, indent, e.cfg.M)
	fmt.Fprintf(tbl, "%s%sAlpha\t%.4f\t\n", prefix, indent, e.cfg.Alpha)
	if e.cfg.HasTrend() {
		fmt.Fprintf(tbl, "%s%sBeta\t%.4f\t\n", prefix, indent, e.cfg.Beta)
	}
	if e.cfg.HasSeason() {
		fmt.Fprintf(tbl, "%s%sGamma\t%.4f\t\n", prefix, indent, e.cfg.Gamma)
	}
	if e.cfg.Damped() {
		fmt.Fprintf(tbl, "%s%sPhi\t%.4f\t\n", prefix, indent, e.cfg.Phi)
	}
	if e.fitted {
		fmt.Fprintf(tbl, "%s%sAICc\t%.4f\t\n", prefix, indent, e.AICc())
		fmt.Fprintf(tbl, "%s%sSigma\t%.4f\t\n", prefix, indent, e.Sigma())
	}
	return tbl.Flush()
}

func errorName(e Error) string {
	if e == ErrorMultiplicative {
		return "M"
	}
	return "A"
}

func parseError(s string) Error {
	if s == "M" {
		return ErrorMultiplicative
	}
	return ErrorAdditive
}

func trendName(t Trend) string {
	switch t {
	case TrendAdditive:
		return "A"
	case TrendMultiplicative:
		return "M"
	case TrendDampedAdditive:
		return "Ad"
	case TrendDampedMultiplicative:
		return "Md"
	default:
		return "N"
	}
}

func parseTrend(s string) Trend {
	switch s {
	case "A":
		return TrendAdditive
	case "M":
		return TrendMultiplicative
	case "Ad":
		return TrendDampedAdditive
	case "Md":
		return TrendDampedMultiplicative
	default:
		return TrendNone
	}
}

func seasonName(s Season) string {
	switch s {
	case SeasonAdditive:
		return "A"
	case SeasonMultiplicative:
		return "M"
	default:
		return "N"
	}
}

func parseSeason(s string) Season {
	switch s {
	case "A":
		return SeasonAdditive
	case "M":
		return SeasonMultiplicative
	default:
		return SeasonNone
	}
}
