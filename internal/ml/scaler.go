package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler shifts every feature dimension to zero mean and unit
// variance. Constant dimensions keep a scale of 1 so transforms never
// divide by zero.
type StandardScaler struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// FitStandardScaler computes per-dimension moments over the sample set.
func FitStandardScaler(samples [][]float64) (*StandardScaler, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("scaler: no samples")
	}

	dims := len(samples[0])
	column := make([]float64, len(samples))
	scaler := &StandardScaler{
		Means:  make([]float64, dims),
		Scales: make([]float64, dims),
	}

	for d := 0; d < dims; d++ {
		for i, s := range samples {
			if len(s) != dims {
				return nil, fmt.Errorf("scaler: ragged sample at row %d", i)
			}
			column[i] = s[d]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || len(samples) < 2 {
			std = 1
		}
		scaler.Means[d] = mean
		scaler.Scales[d] = std
	}

	return scaler, nil
}

// Transform scales a single feature vector in place-free fashion.
func (s *StandardScaler) Transform(vec []float64) ([]float64, error) {
	if len(vec) != len(s.Means) {
		return nil, fmt.Errorf("scaler: expected %d dimensions, got %d", len(s.Means), len(vec))
	}
	out := make([]float64, len(vec))
	for d, v := range vec {
		out[d] = (v - s.Means[d]) / s.Scales[d]
	}
	return out, nil
}

// TransformAll scales a batch of feature vectors.
func (s *StandardScaler) TransformAll(samples [][]float64) ([][]float64, error) {
	out := make([][]float64, len(samples))
	for i, sample := range samples {
		scaled, err := s.Transform(sample)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
