package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/pkg/models"
)

// SegmentWeightSource supplies a segment's historical average weight
// vector, typically backed by the user profile store.
type SegmentWeightSource interface {
	FetchSegmentAverageWeights(ctx context.Context, clusterID int) (models.CriterionWeight, error)
}

// WeightBlender combines a user's raw weight vector with their segment's
// historical average into one hybrid vector normalized to sum 100.
type WeightBlender struct {
	weights SegmentWeightSource
	config  *config.RankingConfig
	logger  *logrus.Logger
}

func NewWeightBlender(weights SegmentWeightSource, cfg *config.RankingConfig, logger *logrus.Logger) *WeightBlender {
	return &WeightBlender{weights: weights, config: cfg, logger: logger}
}

// Blend computes hybrid[k] = user[k]*userWeight + segment[k]*segmentWeight
// and rescales the result to sum exactly 100. A segment with no recorded
// history falls back to the neutral even split; a store failure does the
// same, since segment history only refines the user's own vector. A zero
// raw sum is a hard failure for the request.
func (b *WeightBlender) Blend(ctx context.Context, userWeights models.CriterionWeight, clusterID int) (models.CriterionWeight, error) {
	segmentAvg, err := b.weights.FetchSegmentAverageWeights(ctx, clusterID)
	if err != nil {
		b.logger.WithError(err).WithField("cluster_id", clusterID).
			Warn("Segment average weights unavailable, using neutral defaults")
		segmentAvg = nil
	}
	if !segmentAvg.Complete() {
		segmentAvg = models.NeutralWeights()
	}

	hybrid := make(models.CriterionWeight, models.CriterionCount)
	for _, criterion := range models.Criteria {
		hybrid[criterion] = userWeights[criterion]*b.config.UserWeight +
			segmentAvg[criterion]*b.config.SegmentWeight
	}

	total := hybrid.Sum()
	if total == 0 {
		return nil, fmt.Errorf("blend: %w", ErrDegenerateWeights)
	}
	for criterion, v := range hybrid {
		hybrid[criterion] = v / total * 100
	}

	return hybrid, nil
}
