package services

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/voltmatch/voltmatch/pkg/models"
)

// randomIndex is the standard AHP random consistency index by matrix
// order (Saaty). Index 7 applies to the seven-criterion matrix.
var randomIndex = []float64{0, 0, 0, 0.58, 0.90, 1.12, 1.24, 1.32, 1.41, 1.45, 1.49}

// AHPWeightDeriver turns a raw importance vector into normalized AHP
// priorities via the pairwise comparison matrix, gating acceptance on
// the consistency ratio.
type AHPWeightDeriver struct {
	threshold float64
	logger    *logrus.Logger
}

func NewAHPWeightDeriver(threshold float64, logger *logrus.Logger) *AHPWeightDeriver {
	if threshold <= 0 {
		threshold = 0.10
	}
	return &AHPWeightDeriver{threshold: threshold, logger: logger}
}

// Derive builds the pairwise ratio matrix from the raw weights, computes
// priorities by the row geometric mean and validates the consistency
// ratio. Returns ErrInsufficientCriteria when any of the seven criteria
// is missing or non-positive, ErrInconsistentComparisons when CR reaches
// the threshold. The returned priorities sum to 1.
func (d *AHPWeightDeriver) Derive(raw models.CriterionWeight) (models.CriterionWeight, error) {
	if !raw.Complete() {
		return nil, fmt.Errorf("ahp: %w: need %d positive finite weights", ErrInsufficientCriteria, models.CriterionCount)
	}

	n := models.CriterionCount
	values := raw.Vector()

	comparisons := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			comparisons.Set(i, j, values[i]/values[j])
		}
	}

	priorities := geometricMeanPriorities(comparisons)
	ratio := consistencyRatio(comparisons, priorities)
	if ratio >= d.threshold {
		d.logger.WithFields(logrus.Fields{
			"consistency_ratio": ratio,
			"threshold":         d.threshold,
		}).Warn("Pairwise comparisons rejected as inconsistent")
		return nil, fmt.Errorf("ahp: %w: ratio %.4f", ErrInconsistentComparisons, ratio)
	}

	derived := make(models.CriterionWeight, n)
	for i, criterion := range models.Criteria {
		derived[criterion] = priorities[i]
	}

	return derived, nil
}

// ConsistencyRatio exposes the raw ratio for a weight vector without
// gating, for diagnostics.
func (d *AHPWeightDeriver) ConsistencyRatio(raw models.CriterionWeight) (float64, error) {
	if !raw.Complete() {
		return 0, fmt.Errorf("ahp: %w", ErrInsufficientCriteria)
	}

	n := models.CriterionCount
	values := raw.Vector()
	comparisons := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			comparisons.Set(i, j, values[i]/values[j])
		}
	}

	return consistencyRatio(comparisons, geometricMeanPriorities(comparisons)), nil
}

// geometricMeanPriorities approximates the principal eigenvector by the
// normalized row geometric means. For ratio-derived matrices this is
// exact.
func geometricMeanPriorities(comparisons *mat.Dense) []float64 {
	n, _ := comparisons.Dims()
	priorities := make([]float64, n)

	var total float64
	for i := 0; i < n; i++ {
		logSum := 0.0
		for j := 0; j < n; j++ {
			logSum += math.Log(comparisons.At(i, j))
		}
		priorities[i] = math.Exp(logSum / float64(n))
		total += priorities[i]
	}
	for i := range priorities {
		priorities[i] /= total
	}

	return priorities
}

// consistencyRatio computes lambda-max from A*p, then CI/RI per the
// standard AHP definition. Orders of 2 or less are consistent by
// construction.
func consistencyRatio(comparisons *mat.Dense, priorities []float64) float64 {
	n, _ := comparisons.Dims()
	if n <= 2 {
		return 0
	}

	p := mat.NewVecDense(n, priorities)
	var product mat.VecDense
	product.MulVec(comparisons, p)

	lambdaMax := 0.0
	for i := 0; i < n; i++ {
		lambdaMax += product.AtVec(i) / priorities[i]
	}
	lambdaMax /= float64(n)

	ci := (lambdaMax - float64(n)) / float64(n-1)
	ri := randomIndex[len(randomIndex)-1]
	if n < len(randomIndex) {
		ri = randomIndex[n]
	}

	ratio := ci / ri
	if math.Abs(ratio) < 1e-12 {
		return 0
	}
	return ratio
}
