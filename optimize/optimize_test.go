package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNelderMeadQuadratic(t *testing.T) {
	f := func(x []float64) float64 {
		return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
	}
	res := NelderMead(f, []float64{0, 0}, Bounds{Lower: []float64{-10, -10}, Upper: []float64{10, 10}}, DefaultNelderMeadOptions())
	assert.InDelta(t, 3.0, res.X[0], 0.1)
	assert.InDelta(t, -1.0, res.X[1], 0.1)
}

func TestLBFGSQuadratic(t *testing.T) {
	fg := func(x []float64) (float64, []float64) {
		v := (x[0]-2)*(x[0]-2) + (x[1]-5)*(x[1]-5)
		g := []float64{2 * (x[0] - 2), 2 * (x[1] - 5)}
		return v, g
	}
	res := LBFGS(fg, []float64{0, 0}, Bounds{Lower: []float64{-10, -10}, Upper: []float64{10, 10}}, DefaultLBFGSOptions())
	assert.InDelta(t, 2.0, res.X[0], 0.05)
	assert.InDelta(t, 5.0, res.X[1], 0.05)
}

func TestNelderMeadRespectsBounds(t *testing.T) {
	f := func(x []float64) float64 { return -x[0] }
	res := NelderMead(f, []float64{0}, Bounds{Lower: []float64{-1}, Upper: []float64{1}}, DefaultNelderMeadOptions())
	assert.LessOrEqual(t, res.X[0], 1.0+1e-6)
}
