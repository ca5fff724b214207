package forecaster

import (
	"time"

	"github.com/anofox/go-forecast/ets"
)

// Model is a serializable representation of a fitted Forecaster: its options, the
// original training data, and (when the series or uncertainty engine is AutoETS) the
// fitted ETS state needed to resume prediction without replaying the fit. MSTL and
// MFLES do not yet support instant reload; NewFromModel re-fits them from the stored
// training data instead.
type Model struct {
	Options *Options `json:"options"`

	TrainingT []time.Time `json:"training_t"`
	TrainingY []float64   `json:"training_y"`

	SeriesETSModel      *ets.Model `json:"series_ets_model,omitempty"`
	UncertaintyETSModel *ets.Model `json:"uncertainty_ets_model,omitempty"`
}
