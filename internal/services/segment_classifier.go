package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/internal/ml"
	"github.com/voltmatch/voltmatch/pkg/models"
)

// ErrModelNotFound is returned by artifact stores when no persisted
// segment model exists yet.
var ErrModelNotFound = errors.New("segment model not found")

// HistoricalProfileSource supplies the batch training input.
type HistoricalProfileSource interface {
	FetchHistoricalProfiles(ctx context.Context) ([]models.UserProfile, error)
}

// ModelArtifactStore persists and reloads the clustering artifact as a
// single unit.
type ModelArtifactStore interface {
	LoadSegmentModel(ctx context.Context) (*ml.SegmentModel, error)
	SaveSegmentModel(ctx context.Context, model *ml.SegmentModel) error
}

// SegmentClassifier assigns user profiles to behavioral segments. The
// trained model is process-wide shared state with a lazy lifecycle:
// absent, training, trained-and-persisted, reloaded. At most one
// training run is ever in flight; concurrent requesters fall back to
// segment 0 instead of double-training.
type SegmentClassifier struct {
	profiles  HistoricalProfileSource
	artifacts ModelArtifactStore
	config    *config.SegmentationConfig
	metrics   *MetricsCollector
	logger    *logrus.Logger

	mu       sync.Mutex
	model    *ml.SegmentModel
	training bool
}

func NewSegmentClassifier(
	profiles HistoricalProfileSource,
	artifacts ModelArtifactStore,
	cfg *config.SegmentationConfig,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *SegmentClassifier {
	return &SegmentClassifier{
		profiles:  profiles,
		artifacts: artifacts,
		config:    cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// Classify returns the profile's segment id. Segment assignment is a
// refinement, not a hard dependency: any failure (model unavailable, in
// training, transform error) degrades to segment 0 so the ranking
// pipeline keeps going.
func (c *SegmentClassifier) Classify(ctx context.Context, profile *models.UserProfile) int {
	model, err := c.ActiveModel(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Segment classification unavailable, falling back to segment 0")
		return 0
	}

	cluster, err := model.Assign(profile)
	if err != nil {
		c.logger.WithError(err).Warn("Profile transform failed, falling back to segment 0")
		return 0
	}

	return cluster
}

// ActiveModel returns the in-memory model, reloading the persisted
// artifact or training a fresh one when absent. Only one caller trains;
// the rest observe ErrModelTraining and fall back.
func (c *SegmentClassifier) ActiveModel(ctx context.Context) (*ml.SegmentModel, error) {
	c.mu.Lock()
	if c.model != nil {
		model := c.model
		c.mu.Unlock()
		return model, nil
	}
	if c.training {
		c.mu.Unlock()
		return nil, ErrModelTraining
	}
	c.training = true
	c.mu.Unlock()

	model, err := c.loadOrTrain(ctx)

	c.mu.Lock()
	c.training = false
	if err == nil {
		c.model = model
	}
	c.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return model, nil
}

// Retrain forces a fresh training run and atomically replaces both the
// persisted artifact and the in-memory model. Used by the admin surface.
func (c *SegmentClassifier) Retrain(ctx context.Context) (*ml.SegmentModel, error) {
	c.mu.Lock()
	if c.training {
		c.mu.Unlock()
		return nil, ErrModelTraining
	}
	c.training = true
	c.mu.Unlock()

	model, err := c.train(ctx)

	c.mu.Lock()
	c.training = false
	if err == nil {
		c.model = model
	}
	c.mu.Unlock()

	return model, err
}

func (c *SegmentClassifier) loadOrTrain(ctx context.Context) (*ml.SegmentModel, error) {
	model, err := c.artifacts.LoadSegmentModel(ctx)
	if err == nil {
		c.logger.WithFields(logrus.Fields{
			"version": model.Version,
			"k":       model.K(),
		}).Info("Segment model reloaded from store")
		return model, nil
	}
	if !errors.Is(err, ErrModelNotFound) {
		return nil, fmt.Errorf("load segment model: %w", err)
	}

	return c.train(ctx)
}

func (c *SegmentClassifier) train(ctx context.Context) (*ml.SegmentModel, error) {
	profiles, err := c.profiles.FetchHistoricalProfiles(ctx)
	if err != nil {
		c.metrics.ModelTraining("failure")
		return nil, fmt.Errorf("fetch historical profiles: %w", err)
	}

	model, err := ml.TrainSegmentModel(profiles, ml.TrainingConfig{
		MinRows:           c.config.MinTrainingRows,
		SilhouetteMinRows: c.config.SilhouetteMinRows,
		MaxClusters:       c.config.MaxClusters,
		DefaultClusters:   c.config.DefaultClusters,
		SyntheticRows:     c.config.SyntheticRows,
		MaxIterations:     c.config.MaxIterations,
		Seed:              c.config.Seed,
	})
	if err != nil {
		c.metrics.ModelTraining("failure")
		return nil, fmt.Errorf("train segment model: %w", err)
	}

	if err := c.artifacts.SaveSegmentModel(ctx, model); err != nil {
		c.metrics.ModelTraining("failure")
		return nil, fmt.Errorf("persist segment model: %w", err)
	}

	c.metrics.ModelTraining("success")
	c.logger.WithFields(logrus.Fields{
		"version":       model.Version,
		"k":             model.K(),
		"training_rows": model.TrainingRows,
		"synthetic":     model.Synthetic,
		"silhouette":    model.Silhouette,
	}).Info("Segment model trained and persisted")

	return model, nil
}
