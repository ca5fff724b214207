package optimize

import "math"

// LBFGSOptions configures the limited-memory BFGS search used for the
// damped/multiplicative-seasonal ETS candidates that AutoETS refines with
// analytical gradients.
type LBFGSOptions struct {
	Memory        int
	MaxIterations int
	GradTolerance float64
}

// DefaultLBFGSOptions mirrors the memory depth (m=10) AutoETS uses.
func DefaultLBFGSOptions() LBFGSOptions {
	return LBFGSOptions{Memory: 10, MaxIterations: 200, GradTolerance: 1e-6}
}

// FuncGrad evaluates both the objective and its gradient at x.
type FuncGrad func(x []float64) (value float64, grad []float64)

// LBFGS minimizes a differentiable objective over a box-constrained domain
// using the two-loop recursion for the inverse Hessian approximation and a
// strong-Wolfe line search, clamping every trial point to bounds.
func LBFGS(fg FuncGrad, x0 []float64, bounds Bounds, opt LBFGSOptions) Result {
	if opt.Memory == 0 {
		opt.Memory = 10
	}
	if opt.MaxIterations == 0 {
		opt.MaxIterations = 200
	}
	if opt.GradTolerance == 0 {
		opt.GradTolerance = 1e-6
	}

	n := len(x0)
	x := append([]float64(nil), x0...)
	bounds.clamp(x)
	f, g := fg(x)

	var sHist, yHist [][]float64
	rhoHist := []float64{}

	iter := 0
	for ; iter < opt.MaxIterations; iter++ {
		if norm(g) < opt.GradTolerance {
			break
		}

		dir := twoLoopRecursion(g, sHist, yHist, rhoHist)

		step, xNew, fNew, gNew, ok := strongWolfeLineSearch(fg, x, f, g, dir, bounds)
		if !ok || step == 0 {
			break
		}

		s := subVec(xNew, x)
		y := subVec(gNew, g)
		sy := dot(s, y)
		if sy > 1e-12 {
			sHist = append(sHist, s)
			yHist = append(yHist, y)
			rhoHist = append(rhoHist, 1/sy)
			if len(sHist) > opt.Memory {
				sHist = sHist[1:]
				yHist = yHist[1:]
				rhoHist = rhoHist[1:]
			}
		}

		x, f, g = xNew, fNew, gNew
	}

	return Result{X: x, Value: f, Converged: norm(g) < opt.GradTolerance, Iterations: iter}
}

func twoLoopRecursion(g []float64, sHist, yHist [][]float64, rho []float64) []float64 {
	q := append([]float64(nil), g...)
	m := len(sHist)
	alpha := make([]float64, m)

	for i := m - 1; i >= 0; i-- {
		alpha[i] = rho[i] * dot(sHist[i], q)
		q = subVec(q, scaleVec(yHist[i], alpha[i]))
	}

	gamma := 1.0
	if m > 0 {
		last := m - 1
		sy := dot(sHist[last], yHist[last])
		yy := dot(yHist[last], yHist[last])
		if yy > 1e-12 {
			gamma = sy / yy
		}
	}
	z := scaleVec(q, gamma)

	for i := 0; i < m; i++ {
		beta := rho[i] * dot(yHist[i], z)
		z = addVec(z, scaleVec(sHist[i], alpha[i]-beta))
	}

	return scaleVec(z, -1)
}

func strongWolfeLineSearch(fg FuncGrad, x []float64, f0 float64, g0, dir []float64, bounds Bounds) (step float64, xNew []float64, fNew float64, gNew []float64, ok bool) {
	const c1, c2 = 1e-4, 0.9
	alpha := 1.0
	d0 := dot(g0, dir)
	if d0 >= 0 {
		return 0, x, f0, g0, false
	}

	for iter := 0; iter < 20; iter++ {
		trial := addVec(x, scaleVec(dir, alpha))
		bounds.clamp(trial)
		fTrial, gTrial := fg(trial)

		if fTrial > f0+c1*alpha*d0 {
			alpha *= 0.5
			continue
		}
		dTrial := dot(gTrial, dir)
		if math.Abs(dTrial) > -c2*d0 {
			alpha *= 0.5
			continue
		}
		return alpha, trial, fTrial, gTrial, true
	}
	return 0, x, f0, g0, false
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func scaleVec(a []float64, c float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v * c
	}
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func subVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
