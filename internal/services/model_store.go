package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/ml"
)

// SegmentModelStore persists clustering artifacts in Postgres. Encoder,
// scaler and centroids travel inside one jsonb document per version, so
// a reader can never observe a partially updated triple.
type SegmentModelStore struct {
	db           DatabaseExecutor
	queryTimeout time.Duration
	logger       *logrus.Logger
}

func NewSegmentModelStore(db DatabaseExecutor, queryTimeout time.Duration, logger *logrus.Logger) *SegmentModelStore {
	return &SegmentModelStore{db: db, queryTimeout: queryTimeout, logger: logger}
}

func (s *SegmentModelStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

// LoadSegmentModel reloads the most recent artifact. Returns
// ErrModelNotFound when none has been persisted yet.
func (s *SegmentModelStore) LoadSegmentModel(ctx context.Context) (*ml.SegmentModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var artifact []byte
	err := s.db.QueryRow(ctx, `
		SELECT artifact FROM segment_models
		ORDER BY trained_at DESC
		LIMIT 1`).Scan(&artifact)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load segment model: %w", err)
	}

	return ml.UnmarshalSegmentModel(artifact)
}

// SaveSegmentModel appends a new artifact version. Old versions are kept
// for audit; readers always take the latest.
func (s *SegmentModelStore) SaveSegmentModel(ctx context.Context, model *ml.SegmentModel) error {
	artifact, err := model.Marshal()
	if err != nil {
		return fmt.Errorf("save segment model: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.db.Exec(ctx, `
		INSERT INTO segment_models (version, artifact, trained_at)
		VALUES ($1, $2, $3)`,
		model.Version, artifact, model.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("save segment model: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"version": model.Version,
		"k":       model.K(),
	}).Info("Segment model artifact persisted")

	return nil
}
