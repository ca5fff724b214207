package forecaster

import "time"

// Results returns the input time points with their predicted forecast, upper, and lower values. Slices
// will be of the same length. Trend, Seasonal, and Remainder are populated only when the underlying
// series model exposes a decomposition (MSTL, MFLES); they are nil otherwise.
type Results struct {
	T         []time.Time `json:"time"`
	Forecast  []float64   `json:"forecast"`
	Upper     []float64   `json:"upper"`
	Lower     []float64   `json:"lower"`
	Trend     []float64   `json:"trend,omitempty"`
	Seasonal  []float64   `json:"seasonal,omitempty"`
	Remainder []float64   `json:"remainder,omitempty"`
}
