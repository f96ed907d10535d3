package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/pkg/models"
)

// persistedShortlist caps how many model names go into the stored
// record, matching the historical table shape.
const persistedShortlist = 3

// RankingOutcome is the result of one ranking request. Recommendations
// is empty exactly when Reason is not OutcomeRanked; a partially
// computed list is never returned.
type RankingOutcome struct {
	RequestID       uuid.UUID              `json:"request_id"`
	Recommendations []models.RankedResult  `json:"recommendations"`
	ClusterID       int                    `json:"cluster_id"`
	HybridWeights   models.CriterionWeight `json:"hybrid_weights"`
	Reason          OutcomeReason          `json:"reason"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// RecommendationOrchestrator sequences the ranking pipeline:
// classify -> blend -> fetch catalog -> rank -> truncate -> persist.
// Persistence is fire-and-forget; classification failures degrade to
// segment 0 inside the classifier.
type RecommendationOrchestrator struct {
	classifier SegmentClassifierInterface
	blender    WeightBlenderInterface
	ranker     RankerInterface
	catalog    CandidateSource
	records    UserRecordSink
	publisher  UserRecordPublisher
	metrics    *MetricsCollector
	config     *config.RankingConfig
	logger     *logrus.Logger
}

func NewRecommendationOrchestrator(
	classifier SegmentClassifierInterface,
	blender WeightBlenderInterface,
	ranker RankerInterface,
	catalog CandidateSource,
	records UserRecordSink,
	publisher UserRecordPublisher,
	metrics *MetricsCollector,
	cfg *config.RankingConfig,
	logger *logrus.Logger,
) *RecommendationOrchestrator {
	return &RecommendationOrchestrator{
		classifier: classifier,
		blender:    blender,
		ranker:     ranker,
		catalog:    catalog,
		records:    records,
		publisher:  publisher,
		metrics:    metrics,
		config:     cfg,
		logger:     logger,
	}
}

// Recommend runs the full pipeline for one request. It returns an error
// only for catalog unavailability; every weight-level failure becomes an
// empty outcome with its reason.
func (o *RecommendationOrchestrator) Recommend(ctx context.Context, req *models.RecommendationRequest) (*RankingOutcome, error) {
	start := time.Now()

	outcome := &RankingOutcome{
		RequestID:   uuid.New(),
		Reason:      OutcomeRanked,
		GeneratedAt: start.UTC(),
	}

	// The catalog filters are also segmentation features.
	profile := req.Profile
	profile.DriveConfig = req.Drivetrain
	profile.Seats = req.Seats
	profile.Normalize()

	userWeights := req.CriterionWeights()
	if !userWeights.Complete() {
		outcome.Reason = OutcomeInsufficientCriteria
		o.finish(outcome, start)
		return outcome, nil
	}

	outcome.ClusterID = o.classifier.Classify(ctx, &profile)

	hybrid, err := o.blender.Blend(ctx, userWeights, outcome.ClusterID)
	if err != nil {
		if errors.Is(err, ErrDegenerateWeights) {
			outcome.Reason = OutcomeDegenerateWeights
			o.finish(outcome, start)
			o.persist(req, &profile, userWeights, outcome)
			return outcome, nil
		}
		return nil, err
	}
	outcome.HybridWeights = hybrid

	candidates, err := o.catalog.FetchCandidates(ctx)
	if err != nil {
		return nil, err
	}

	ranked, err := o.ranker.Rank(candidates, hybrid, req.Seats, req.Drivetrain)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientCriteria):
			outcome.Reason = OutcomeInsufficientCriteria
		case errors.Is(err, ErrInconsistentComparisons):
			outcome.Reason = OutcomeInconsistentComparison
		default:
			return nil, err
		}
		o.finish(outcome, start)
		o.persist(req, &profile, userWeights, outcome)
		return outcome, nil
	}
	if len(ranked) == 0 {
		outcome.Reason = OutcomeNoCandidates
		o.finish(outcome, start)
		o.persist(req, &profile, userWeights, outcome)
		return outcome, nil
	}

	// The ranker caps at its own maximum; the public shortlist is
	// smaller still.
	topN := req.ResultCount
	if topN <= 0 || topN > o.config.TopN {
		topN = o.config.TopN
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	outcome.Recommendations = ranked

	o.finish(outcome, start)
	o.persist(req, &profile, userWeights, outcome)

	return outcome, nil
}

func (o *RecommendationOrchestrator) finish(outcome *RankingOutcome, start time.Time) {
	o.metrics.ObserveRanking(outcome.Reason, time.Since(start))
	o.logger.WithFields(logrus.Fields{
		"request_id": outcome.RequestID,
		"cluster_id": outcome.ClusterID,
		"outcome":    outcome.Reason,
		"results":    len(outcome.Recommendations),
		"latency":    time.Since(start),
	}).Info("Ranking request completed")
}

// persist appends the outcome asynchronously. The returned ranking is
// never affected: failures are logged and counted, nothing more.
func (o *RecommendationOrchestrator) persist(req *models.RecommendationRequest, profile *models.UserProfile, rawWeights models.CriterionWeight, outcome *RankingOutcome) {
	record := &models.UserRecord{
		RecordID:      outcome.RequestID,
		UserID:        req.UserID,
		Profile:       *profile,
		RawWeights:    rawWeights.Clone(),
		HybridWeights: outcome.HybridWeights.Clone(),
		ClusterID:     outcome.ClusterID,
		Seats:         req.Seats,
		Drivetrain:    req.Drivetrain,
		Timestamp:     outcome.GeneratedAt,
	}
	if record.UserID == "" {
		record.UserID = "anonymous"
	}
	for i, r := range outcome.Recommendations {
		if i >= persistedShortlist {
			break
		}
		record.RecommendedModels = append(record.RecommendedModels, r.Model)
	}
	if len(outcome.Recommendations) > 0 {
		record.SelectedModel = outcome.Recommendations[0].Model
		record.SatisfactionScore = outcome.Recommendations[0].Score
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if o.records != nil {
			if err := o.records.AppendUserRecord(ctx, record); err != nil {
				o.metrics.PersistFailure()
				o.logger.WithError(err).WithField("record_id", record.RecordID).
					Error("Failed to persist user record")
			}
		}
		if o.publisher != nil {
			if err := o.publisher.PublishUserRecord(ctx, record); err != nil {
				o.logger.WithError(err).WithField("record_id", record.RecordID).
					Warn("Failed to publish user record event")
			}
		}
	}()
}
