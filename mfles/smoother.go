package mfles

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// fitESEnsemble tries ensembleSteps evenly spaced smoothing constants
// between minAlpha and maxAlpha, keeps the one with the lowest in-sample
// sum of squared one-step residuals, and returns its smoothed series
// alongside the chosen alpha.
func fitESEnsemble(data []float64, minAlpha, maxAlpha float64, steps int) ([]float64, float64) {
	if steps < 1 {
		steps = 1
	}
	bestSSE := math.Inf(1)
	var best []float64
	var bestAlpha float64

	for s := 0; s < steps; s++ {
		alpha := minAlpha
		if steps > 1 {
			alpha = minAlpha + (maxAlpha-minAlpha)*float64(s)/float64(steps-1)
		}
		smoothed := exponentialSmooth(data, alpha)
		sse := sumSquaredResidual(data, smoothed)
		if sse < bestSSE {
			bestSSE = sse
			best = smoothed
			bestAlpha = alpha
		}
	}
	return best, bestAlpha
}

func exponentialSmooth(data []float64, alpha float64) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	initWindow := 5
	if initWindow > n {
		initWindow = n
	}
	var level float64
	for i := 0; i < initWindow; i++ {
		level += data[i]
	}
	level /= float64(initWindow)

	for i, v := range data {
		out[i] = level
		level = alpha*v + (1-alpha)*level
	}
	return out
}

func sumSquaredResidual(data, fitted []float64) float64 {
	var sse float64
	for i := range data {
		d := data[i] - fitted[i]
		sse += d * d
	}
	return sse
}

// fitMovingAverage is the non-ES alternative residual smoother: a
// centered window average.
func fitMovingAverage(data []float64, window int) []float64 {
	n := len(data)
	out := make([]float64, n)
	if window < 1 {
		window = 1
	}
	half := window / 2
	for i := 0; i < n; i++ {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half
		if end > n-1 {
			end = n - 1
		}
		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			sum += data[j]
			count++
		}
		out[i] = sum / float64(count)
	}
	return out
}

// meanStdDev is a thin wrapper over gonum/stat used by outlier capping.
func meanStdDev(data []float64) (mean, std float64) {
	mean = stat.Mean(data, nil)
	std = stat.StdDev(data, nil)
	return mean, std
}
