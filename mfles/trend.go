package mfles

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/anofox/go-forecast/linearmodel"
)

// fitLinearTrend fits an OLS line against data indexed 0..n-1 via QR
// factorization and returns the fitted trend plus its slope/intercept.
func fitLinearTrend(data []float64) (trend []float64, slope, intercept float64) {
	n := len(data)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	xMat := mat.NewDense(n, 1, x)
	yMat := mat.NewDense(n, 1, append([]float64(nil), data...))

	model, err := linearmodel.NewOLSRegression(linearmodel.NewDefaultOLSOptions())
	if err != nil {
		return fitLinearTrendFallback(data)
	}
	if err := model.Fit(xMat, yMat); err != nil {
		return fitLinearTrendFallback(data)
	}
	coef := model.Coef()
	if len(coef) != 1 {
		return fitLinearTrendFallback(data)
	}
	slope = coef[0]
	intercept = model.Intercept()

	trend = make([]float64, n)
	for i := range trend {
		trend[i] = intercept + slope*float64(i)
	}
	return trend, slope, intercept
}

// fitLinearTrendFallback is the closed-form two-point-moment OLS solution,
// used if the QR-based regression above ever fails to fit (e.g. a
// degenerate single-observation residual).
func fitLinearTrendFallback(data []float64) (trend []float64, slope, intercept float64) {
	n := len(data)
	meanX := float64(n-1) / 2.0
	var meanY float64
	for _, v := range data {
		meanY += v
	}
	meanY /= float64(n)

	var num, den float64
	for i, v := range data {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den > 1e-10 {
		slope = num / den
	}
	intercept = meanY - slope*meanX

	trend = make([]float64, n)
	for i := range trend {
		trend[i] = intercept + slope*float64(i)
	}
	return trend, slope, intercept
}

// fitSiegelTrend fits a repeated-medians line: for every point i, the
// median slope to all other points is taken, then the overall slope is
// the median of those per-point medians. This is substantially more
// resistant to outliers than OLS since each contaminated point can only
// dominate its own per-point median, not the global sum of squares.
func fitSiegelTrend(data []float64) (trend []float64, slope, intercept float64) {
	n := len(data)
	if n < 2 {
		return append([]float64(nil), data...), 0, data[0]
	}

	pointMedians := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		slopes := make([]float64, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dx := float64(i - j)
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (data[i]-data[j])/dx)
		}
		if len(slopes) > 0 {
			pointMedians = append(pointMedians, median(slopes))
		}
	}
	slope = median(pointMedians)

	intercepts := make([]float64, n)
	for i, v := range data {
		intercepts[i] = v - slope*float64(i)
	}
	intercept = median(intercepts)

	trend = make([]float64, n)
	for i := range trend {
		trend[i] = intercept + slope*float64(i)
	}
	return trend, slope, intercept
}

func median(v []float64) float64 {
	n := len(v)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
