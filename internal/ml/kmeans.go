package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// KMeans holds fitted centroids. Assignment is nearest-centroid by
// Euclidean distance.
type KMeans struct {
	K         int         `json:"k"`
	Centroids [][]float64 `json:"centroids"`
	Inertia   float64     `json:"inertia"`
}

const defaultMaxIterations = 100

// FitKMeans runs Lloyd's algorithm with k-means++ seeding. The rng is
// injected so trainings are reproducible under a fixed seed.
func FitKMeans(samples [][]float64, k int, maxIterations int, rng *rand.Rand) (*KMeans, error) {
	if k < 1 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	if len(samples) < k {
		return nil, fmt.Errorf("kmeans: %d samples cannot support k=%d", len(samples), k)
	}
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	dims := len(samples[0])
	centroids := seedPlusPlus(samples, k, rng)
	assignments := make([]int, len(samples))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, sample := range samples {
			best := nearestCentroid(sample, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, sample := range samples {
			c := assignments[i]
			floats.Add(next[c], sample)
			counts[c]++
		}
		for c := range next {
			if counts[c] == 0 {
				// Re-seed an emptied cluster with a random sample.
				copy(next[c], samples[rng.Intn(len(samples))])
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}
		centroids = next
	}

	var inertia float64
	for i, sample := range samples {
		inertia += squaredDistance(sample, centroids[assignments[i]])
	}

	return &KMeans{K: k, Centroids: centroids, Inertia: inertia}, nil
}

// Predict returns the index of the nearest centroid.
func (m *KMeans) Predict(vec []float64) (int, error) {
	if len(m.Centroids) == 0 {
		return 0, fmt.Errorf("kmeans: model has no centroids")
	}
	if len(vec) != len(m.Centroids[0]) {
		return 0, fmt.Errorf("kmeans: expected %d dimensions, got %d", len(m.Centroids[0]), len(vec))
	}
	return nearestCentroid(vec, m.Centroids), nil
}

// Assignments labels every sample with its nearest centroid.
func (m *KMeans) Assignments(samples [][]float64) ([]int, error) {
	labels := make([]int, len(samples))
	for i, sample := range samples {
		label, err := m.Predict(sample)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

func seedPlusPlus(samples [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := append([]float64(nil), samples[rng.Intn(len(samples))]...)
	centroids = append(centroids, first)

	distances := make([]float64, len(samples))
	for len(centroids) < k {
		var total float64
		for i, sample := range samples {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := squaredDistance(sample, c); sd < d {
					d = sd
				}
			}
			distances[i] = d
			total += d
		}

		var next int
		if total == 0 {
			next = rng.Intn(len(samples))
		} else {
			target := rng.Float64() * total
			var cumulative float64
			for i, d := range distances {
				cumulative += d
				if cumulative >= target {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), samples[next]...))
	}

	return centroids
}

func nearestCentroid(vec []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(vec, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
