package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitStandardScaler(t *testing.T) {
	samples := [][]float64{
		{1, 100, 5},
		{2, 200, 5},
		{3, 300, 5},
	}

	scaler, err := FitStandardScaler(samples)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, scaler.Means[0], 1e-9)
	assert.InDelta(t, 200.0, scaler.Means[1], 1e-9)

	// The constant third dimension keeps unit scale.
	assert.Equal(t, 1.0, scaler.Scales[2])

	scaled, err := scaler.TransformAll(samples)
	require.NoError(t, err)

	// Means shift to zero.
	for d := 0; d < 3; d++ {
		var mean float64
		for _, row := range scaled {
			mean += row[d]
		}
		assert.InDelta(t, 0.0, mean/float64(len(scaled)), 1e-9)
	}
}

func TestStandardScaler_DimensionMismatch(t *testing.T) {
	scaler := &StandardScaler{Means: []float64{0, 0}, Scales: []float64{1, 1}}
	_, err := scaler.Transform([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestFitStandardScaler_Errors(t *testing.T) {
	_, err := FitStandardScaler(nil)
	assert.Error(t, err)

	_, err = FitStandardScaler([][]float64{{1, 2}, {1}})
	assert.Error(t, err)
}
