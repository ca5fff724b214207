package bocpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEmptySeries(t *testing.T) {
	d := NewBuilder().Build()
	assert.Empty(t, d.Detect(nil))
}

func TestDetectSinglePoint(t *testing.T) {
	d := NewBuilder().Build()
	cps := d.Detect([]float64{1})
	assert.Equal(t, []int{0}, cps)
}

func TestDetectFlagsObviousMeanShift(t *testing.T) {
	data := make([]float64, 60)
	for i := 0; i < 30; i++ {
		data[i] = 0
	}
	for i := 30; i < 60; i++ {
		data[i] = 50
	}

	d := NewBuilder().HazardLambda(100).MaxRunLength(64).Build()
	cps := d.Detect(data)

	require.NotEmpty(t, cps)
	assert.Equal(t, 0, cps[0])
	assert.Equal(t, len(data)-1, cps[len(cps)-1])

	found := false
	for _, idx := range cps {
		if idx >= 25 && idx <= 35 {
			found = true
		}
	}
	assert.True(t, found, "expected a changepoint near the mean shift, got %v", cps)
}

func TestDetectWithProbabilitiesMatchesIndices(t *testing.T) {
	data := make([]float64, 40)
	for i := range data {
		if i < 20 {
			data[i] = 1
		} else {
			data[i] = 1000
		}
	}

	d := NewBuilder().HazardLambda(200).MaxRunLength(64).Build()
	res := d.DetectWithProbabilities(data)

	require.Len(t, res.ChangepointProbabilities, len(data))
	assert.Equal(t, 1.0, res.ChangepointProbabilities[0])
	assert.NotEmpty(t, res.ChangepointIndices)
}

func TestLogisticHazardBuilds(t *testing.T) {
	d := NewBuilder().LogisticHazard(-5, 1, 1).MaxRunLength(32).Build()
	cps := d.Detect([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	assert.NotEmpty(t, cps)
}

func TestCustomPrior(t *testing.T) {
	prior := NormalGammaPrior{Mu0: 10, Kappa0: 2, Alpha0: 2, Beta0: 2}
	d := NewBuilder().NormalGammaPrior(prior).Build()
	cps := d.Detect([]float64{10, 10, 10, 10, 10})
	assert.Equal(t, []int{0, 4}, cps)
}
