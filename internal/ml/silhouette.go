package ml

import "math"

// SilhouetteScore computes the mean silhouette coefficient of a labeled
// sample set. Samples in singleton clusters contribute 0, matching the
// usual convention. Returns 0 when fewer than 2 clusters are populated.
func SilhouetteScore(samples [][]float64, labels []int) float64 {
	if len(samples) < 2 || len(samples) != len(labels) {
		return 0
	}

	clusterSizes := make(map[int]int)
	for _, l := range labels {
		clusterSizes[l]++
	}
	if len(clusterSizes) < 2 {
		return 0
	}

	var total float64
	for i, sample := range samples {
		own := labels[i]
		if clusterSizes[own] <= 1 {
			continue
		}

		// Mean distance to each cluster.
		sums := make(map[int]float64)
		for j, other := range samples {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(squaredDistance(sample, other))
		}

		a := sums[own] / float64(clusterSizes[own]-1)
		b := math.Inf(1)
		for cluster, sum := range sums {
			if cluster == own {
				continue
			}
			if mean := sum / float64(clusterSizes[cluster]); mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}

	return total / float64(len(samples))
}
