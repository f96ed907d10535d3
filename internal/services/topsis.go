package services

import (
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/pkg/models"
)

// TOPSISRanker scores candidates by similarity to the ideal solution.
// The whole catalog is scored before filtering, so the ideal-best/worst
// envelope is catalog-wide rather than filter-scoped.
type TOPSISRanker struct {
	ahp    *AHPWeightDeriver
	config *config.RankingConfig
	logger *logrus.Logger
}

func NewTOPSISRanker(ahp *AHPWeightDeriver, cfg *config.RankingConfig, logger *logrus.Logger) *TOPSISRanker {
	return &TOPSISRanker{ahp: ahp, config: cfg, logger: logger}
}

// Rank derives AHP priorities from the hybrid vector, scores every
// candidate, applies the seat/drivetrain filter and returns at most
// MaxResults entries sorted by non-increasing score. Weight-derivation
// failures propagate so the orchestrator can report the reason; callers
// treat them as "no ranking available", not a crash.
func (r *TOPSISRanker) Rank(
	candidates []models.Candidate,
	hybridWeights models.CriterionWeight,
	seatFilter int,
	drivetrainFilter string,
) ([]models.RankedResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	weights, err := r.ahp.Derive(hybridWeights)
	if err != nil {
		return nil, err
	}

	scores := r.score(candidates, weights)

	filtered := r.filterStrict(candidates, scores, seatFilter, drivetrainFilter)
	if len(filtered) < r.config.MinStrictMatches {
		switch r.config.FilterFallback {
		case "none":
			filtered = r.collect(candidates, scores, func(*models.Candidate) bool { return true })
		default: // union
			filtered = r.filterUnion(candidates, scores, seatFilter, drivetrainFilter)
		}
	}

	// Stable sort keeps the original catalog order among equal scores.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})

	if max := r.config.MaxResults; max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}
	for i := range filtered {
		filtered[i].Position = i + 1
	}

	r.logger.WithFields(logrus.Fields{
		"catalog_size": len(candidates),
		"results":      len(filtered),
		"seat_filter":  seatFilter,
		"drivetrain":   drivetrainFilter,
	}).Debug("TOPSIS ranking completed")

	return filtered, nil
}

// score computes every candidate's similarity to the ideal solution over
// the full catalog.
func (r *TOPSISRanker) score(candidates []models.Candidate, weights models.CriterionWeight) []float64 {
	rows := len(candidates)
	cols := models.CriterionCount

	decision := mat.NewDense(rows, cols, nil)
	for i := range candidates {
		decision.SetRow(i, candidates[i].AttributeRow())
	}

	// Vector normalization: each column divided by its Euclidean norm,
	// then scaled by the AHP-derived weight.
	weightVec := weights.Vector()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, decision)
		norm := floats.Norm(col, 2)
		if norm == 0 {
			norm = 1
		}
		for i := 0; i < rows; i++ {
			decision.Set(i, j, decision.At(i, j)/norm*weightVec[j])
		}
	}

	idealBest := make([]float64, cols)
	idealWorst := make([]float64, cols)
	for j, criterion := range models.Criteria {
		col := mat.Col(nil, j, decision)
		min, max := col[0], col[0]
		for _, v := range col[1:] {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
		if criterion.Maximize() {
			idealBest[j], idealWorst[j] = max, min
		} else {
			idealBest[j], idealWorst[j] = min, max
		}
	}

	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var distBest, distWorst float64
		for j := 0; j < cols; j++ {
			v := decision.At(i, j)
			distBest += (v - idealBest[j]) * (v - idealBest[j])
			distWorst += (v - idealWorst[j]) * (v - idealWorst[j])
		}
		distBest = math.Sqrt(distBest)
		distWorst = math.Sqrt(distWorst)

		if distBest+distWorst == 0 {
			// All rows identical along every criterion.
			scores[i] = 0.5
			continue
		}
		scores[i] = distWorst / (distBest + distWorst)
	}

	return scores
}

func (r *TOPSISRanker) filterStrict(candidates []models.Candidate, scores []float64, seats int, drivetrain string) []models.RankedResult {
	return r.collect(candidates, scores, func(c *models.Candidate) bool {
		return c.Seats == seats && strings.EqualFold(c.DriveConfiguration, drivetrain)
	})
}

func (r *TOPSISRanker) filterUnion(candidates []models.Candidate, scores []float64, seats int, drivetrain string) []models.RankedResult {
	return r.collect(candidates, scores, func(c *models.Candidate) bool {
		return c.Seats == seats || strings.EqualFold(c.DriveConfiguration, drivetrain)
	})
}

func (r *TOPSISRanker) collect(candidates []models.Candidate, scores []float64, match func(*models.Candidate) bool) []models.RankedResult {
	var results []models.RankedResult
	for i := range candidates {
		if !match(&candidates[i]) {
			continue
		}
		item := candidates[i]
		results = append(results, models.RankedResult{
			Model: item.Model,
			Score: scores[i],
			Item:  &item,
		})
	}
	return results
}
