package services

import (
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/internal/database"
	"github.com/voltmatch/voltmatch/internal/messaging"
)

type Services struct {
	Health     *HealthService
	RateLimit  *RateLimitService
	MessageBus *messaging.MessageBus

	Catalog      *CatalogStore
	Profiles     *UserProfileStore
	ModelStore   *SegmentModelStore
	Classifier   *SegmentClassifier
	WeightDerive *AHPWeightDeriver
	Blender      *WeightBlender
	Ranker       *TOPSISRanker
	Metrics      *MetricsCollector

	RecommendationOrchestrator *RecommendationOrchestrator
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	healthService := NewHealthService(cfg, logger, db)
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis)

	messageBus, err := messaging.NewMessageBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics := NewMetricsCollector()

	catalogStore := NewCatalogStore(db.PG, db.Redis, &cfg.Ranking, cfg.Database.QueryTimeout, metrics, logger)
	profileStore := NewUserProfileStore(db.PG, db.Redis, &cfg.Ranking, cfg.Database.QueryTimeout, logger)
	modelStore := NewSegmentModelStore(db.PG, cfg.Database.QueryTimeout, logger)

	classifier := NewSegmentClassifier(profileStore, modelStore, &cfg.Segmentation, metrics, logger)
	weightDeriver := NewAHPWeightDeriver(cfg.Ranking.ConsistencyThreshold, logger)
	blender := NewWeightBlender(profileStore, &cfg.Ranking, logger)
	ranker := NewTOPSISRanker(weightDeriver, &cfg.Ranking, logger)

	orchestrator := NewRecommendationOrchestrator(
		classifier, blender, ranker, catalogStore, profileStore,
		messageBus, metrics, &cfg.Ranking, logger,
	)

	return &Services{
		Health:                     healthService,
		RateLimit:                  rateLimitService,
		MessageBus:                 messageBus,
		Catalog:                    catalogStore,
		Profiles:                   profileStore,
		ModelStore:                 modelStore,
		Classifier:                 classifier,
		WeightDerive:               weightDeriver,
		Blender:                    blender,
		Ranker:                     ranker,
		Metrics:                    metrics,
		RecommendationOrchestrator: orchestrator,
	}, nil
}
