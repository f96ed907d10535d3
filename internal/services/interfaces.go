package services

import (
	"context"

	"github.com/voltmatch/voltmatch/pkg/models"
)

// SegmentClassifierInterface assigns a profile to a behavioral segment.
type SegmentClassifierInterface interface {
	Classify(ctx context.Context, profile *models.UserProfile) int
}

// WeightBlenderInterface produces the hybrid weight vector for a
// user/segment pair.
type WeightBlenderInterface interface {
	Blend(ctx context.Context, userWeights models.CriterionWeight, clusterID int) (models.CriterionWeight, error)
}

// RankerInterface scores and orders catalog candidates.
type RankerInterface interface {
	Rank(candidates []models.Candidate, hybridWeights models.CriterionWeight, seatFilter int, drivetrainFilter string) ([]models.RankedResult, error)
}

// CandidateSource supplies the cleaned catalog.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) ([]models.Candidate, error)
}

// UserRecordSink appends finished ranking outcomes to storage.
type UserRecordSink interface {
	AppendUserRecord(ctx context.Context, record *models.UserRecord) error
}

// UserRecordPublisher streams finished ranking outcomes to the
// analytics bus.
type UserRecordPublisher interface {
	PublishUserRecord(ctx context.Context, record *models.UserRecord) error
}

// RecommendationOrchestratorInterface is the ranking entry point
// consumed by the HTTP layer.
type RecommendationOrchestratorInterface interface {
	Recommend(ctx context.Context, req *models.RecommendationRequest) (*RankingOutcome, error)
}
