package forecaster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleNaN(t *testing.T) {
	assert.Equal(t, "-", handleNaN(math.NaN()))
	assert.Equal(t, 1.5, handleNaN(1.5))
}

func TestAutoRemoveOutliersNoOptions(t *testing.T) {
	y := []float64{1, 2, 3}
	residual := []float64{0, 0, 0}
	assert.Equal(t, 0, autoRemoveOutliers(y, residual, nil))
}

func TestAutoRemoveOutliersDetectsSpike(t *testing.T) {
	y := make([]float64, 20)
	residual := make([]float64, 20)
	for i := range y {
		y[i] = 10.0
		residual[i] = 0.0
	}
	y[10] = 500.0
	residual[10] = 490.0

	opt := NewOutlierOptions()
	removed := autoRemoveOutliers(y, residual, opt)
	assert.Greater(t, removed, 0)
	assert.True(t, math.IsNaN(y[10]))
}
