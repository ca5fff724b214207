// Package optimize implements the bounded nonlinear optimizers AutoETS
// refines candidates with: a box-constrained Nelder-Mead simplex search for
// the common case, and an L-BFGS with analytical gradients and a strong
// Wolfe line search for the harder damped/multiplicative-seasonal cases.
package optimize

import (
	"errors"
	"math"
	"sort"
)

var ErrDidNotConverge = errors.New("optimize: did not converge within the iteration budget")

// Bounds gives a per-dimension [Lower,Upper] box constraint.
type Bounds struct {
	Lower []float64
	Upper []float64
}

func (b Bounds) clamp(x []float64) {
	for i := range x {
		if i < len(b.Lower) && x[i] < b.Lower[i] {
			x[i] = b.Lower[i]
		}
		if i < len(b.Upper) && x[i] > b.Upper[i] {
			x[i] = b.Upper[i]
		}
	}
}

// NelderMeadOptions configures the simplex search.
type NelderMeadOptions struct {
	Step          float64
	MaxIterations int
	Tolerance     float64
}

// DefaultNelderMeadOptions returns the step size and iteration budget the
// AutoETS refinement stage uses for its non-gradient candidates.
func DefaultNelderMeadOptions() NelderMeadOptions {
	return NelderMeadOptions{Step: 0.1, MaxIterations: 500, Tolerance: 1e-8}
}

// Result is the outcome of a bounded optimization run.
type Result struct {
	X         []float64
	Value     float64
	Converged bool
	Iterations int
}

// NelderMead minimizes f over a box-constrained domain starting at x0,
// using the standard reflect/expand/contract/shrink simplex update with
// bound clamping applied to every trial point.
func NelderMead(f func([]float64) float64, x0 []float64, bounds Bounds, opt NelderMeadOptions) Result {
	n := len(x0)
	if opt.Step == 0 {
		opt.Step = 0.1
	}
	if opt.MaxIterations == 0 {
		opt.MaxIterations = 500
	}
	if opt.Tolerance == 0 {
		opt.Tolerance = 1e-8
	}

	simplex := make([][]float64, n+1)
	values := make([]float64, n+1)
	simplex[0] = append([]float64(nil), x0...)
	bounds.clamp(simplex[0])
	values[0] = f(simplex[0])
	for i := 0; i < n; i++ {
		p := append([]float64(nil), x0...)
		if p[i] != 0 {
			p[i] *= 1 + opt.Step
		} else {
			p[i] = opt.Step
		}
		bounds.clamp(p)
		simplex[i+1] = p
		values[i+1] = f(p)
	}

	const (
		alpha = 1.0
		gamma = 2.0
		rho   = 0.5
		sigma = 0.5
	)

	iter := 0
	for ; iter < opt.MaxIterations; iter++ {
		order := sortIndices(values)
		sortByOrder(simplex, values, order)

		spread := math.Abs(values[n] - values[0])
		if spread < opt.Tolerance {
			break
		}

		centroid := make([]float64, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				centroid[j] += simplex[i][j]
			}
		}
		for j := range centroid {
			centroid[j] /= float64(n)
		}

		worst := simplex[n]
		reflected := reflectPoint(centroid, worst, alpha)
		bounds.clamp(reflected)
		fReflected := f(reflected)

		switch {
		case fReflected < values[0]:
			expanded := reflectPoint(centroid, worst, gamma)
			bounds.clamp(expanded)
			fExpanded := f(expanded)
			if fExpanded < fReflected {
				simplex[n], values[n] = expanded, fExpanded
			} else {
				simplex[n], values[n] = reflected, fReflected
			}
		case fReflected < values[n-1]:
			simplex[n], values[n] = reflected, fReflected
		default:
			contracted := reflectPoint(centroid, worst, -rho)
			bounds.clamp(contracted)
			fContracted := f(contracted)
			if fContracted < values[n] {
				simplex[n], values[n] = contracted, fContracted
			} else {
				for i := 1; i <= n; i++ {
					for j := 0; j < n; j++ {
						simplex[i][j] = simplex[0][j] + sigma*(simplex[i][j]-simplex[0][j])
					}
					bounds.clamp(simplex[i])
					values[i] = f(simplex[i])
				}
			}
		}
	}

	order := sortIndices(values)
	sortByOrder(simplex, values, order)
	return Result{X: simplex[0], Value: values[0], Converged: iter < opt.MaxIterations, Iterations: iter}
}

func reflectPoint(centroid, worst []float64, coeff float64) []float64 {
	out := make([]float64, len(centroid))
	for i := range out {
		out[i] = centroid[i] + coeff*(centroid[i]-worst[i])
	}
	return out
}

func sortIndices(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	return idx
}

func sortByOrder(simplex [][]float64, values []float64, order []int) {
	newSimplex := make([][]float64, len(simplex))
	newValues := make([]float64, len(values))
	for i, o := range order {
		newSimplex[i] = simplex[o]
		newValues[i] = values[o]
	}
	copy(simplex, newSimplex)
	copy(values, newValues)
}
