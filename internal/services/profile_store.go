package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/pkg/models"
)

// DatabaseExecutor extends the read surface with writes, matching both
// pgxpool.Pool and the pgxmock pool.
type DatabaseExecutor interface {
	DatabaseQuerier
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserProfileStore owns the historical profile/weight table: training
// input, per-segment average weights and the append of finished ranking
// outcomes.
type UserProfileStore struct {
	db           DatabaseExecutor
	redis        *redis.Client
	config       *config.RankingConfig
	queryTimeout time.Duration
	logger       *logrus.Logger
}

func NewUserProfileStore(db DatabaseExecutor, redisClient *redis.Client, cfg *config.RankingConfig, queryTimeout time.Duration, logger *logrus.Logger) *UserProfileStore {
	return &UserProfileStore{db: db, redis: redisClient, config: cfg, queryTimeout: queryTimeout, logger: logger}
}

// withTimeout bounds a store operation by the configured query timeout.
func (s *UserProfileStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

// FetchHistoricalProfiles returns every recorded profile, the batch
// input of segment model training.
func (s *UserProfileStore) FetchHistoricalProfiles(ctx context.Context) ([]models.UserProfile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT gender, age_range, occupation, marital_status,
			family_status, income_range, vehicle_status, drive_config, seats
		FROM user_profiles`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch historical profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.Gender, &p.AgeRange, &p.Occupation, &p.MaritalStatus,
			&p.FamilyStatus, &p.IncomeRange, &p.VehicleStatus, &p.DriveConfig, &p.Seats); err != nil {
			s.logger.WithError(err).Warn("Failed to scan historical profile row")
			continue
		}
		p.Normalize()
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch historical profiles: %w", err)
	}

	return profiles, nil
}

// FetchSegmentAverageWeights returns the average recorded weight vector
// of a segment. A segment with no rows yields an incomplete vector; the
// blender substitutes the neutral default in that case.
func (s *UserProfileStore) FetchSegmentAverageWeights(ctx context.Context, clusterID int) (models.CriterionWeight, error) {
	cacheKey := fmt.Sprintf("segment:avg_weights:%d", clusterID)
	if cached := s.cachedWeights(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT
			AVG(battery_weight), AVG(range_weight), AVG(accelarate_weight),
			AVG(topspeed_weight), AVG(efficiency_weight), AVG(fastcharge_weight),
			AVG(price_weight)
		FROM user_profiles
		WHERE cluster_id = $1`

	averages := make([]sql.NullFloat64, models.CriterionCount)
	dest := make([]interface{}, models.CriterionCount)
	for i := range averages {
		dest[i] = &averages[i]
	}
	if err := s.db.QueryRow(ctx, query, clusterID).Scan(dest...); err != nil {
		return nil, fmt.Errorf("fetch segment average weights: %w", err)
	}

	weights := make(models.CriterionWeight, models.CriterionCount)
	for i, criterion := range models.Criteria {
		if averages[i].Valid {
			weights[criterion] = averages[i].Float64
		}
	}

	s.cacheWeights(ctx, cacheKey, weights)

	return weights, nil
}

// AppendUserRecord persists the outcome of a ranking request: one
// immutable log row plus the profile/weight row that feeds training and
// segment averages. The two writes commit as one transaction so the log
// never carries a record without its training-corpus companion. Callers
// treat failures as log-and-forget.
func (s *UserProfileStore) AppendUserRecord(ctx context.Context, record *models.UserRecord) error {
	recommended, err := json.Marshal(record.RecommendedModels)
	if err != nil {
		return fmt.Errorf("append user record: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("append user record: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO user_records (
			record_id, user_id, cluster_id, seats, drivetrain,
			recommended_models, selected_model, satisfaction_score,
			raw_weights, hybrid_weights, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.RecordID, record.UserID, record.ClusterID, record.Seats, record.Drivetrain,
		recommended, record.SelectedModel, record.SatisfactionScore,
		mustJSON(record.RawWeights), mustJSON(record.HybridWeights), record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append user record: %w", err)
	}

	p := record.Profile
	_, err = tx.Exec(ctx, `
		INSERT INTO user_profiles (
			user_id, gender, age_range, occupation, marital_status,
			family_status, income_range, vehicle_status, drive_config, seats,
			cluster_id,
			battery_weight, range_weight, accelarate_weight, topspeed_weight,
			efficiency_weight, fastcharge_weight, price_weight,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19)`,
		record.UserID, p.Gender, p.AgeRange, p.Occupation, p.MaritalStatus,
		p.FamilyStatus, p.IncomeRange, p.VehicleStatus, p.DriveConfig, p.Seats,
		record.ClusterID,
		record.RawWeights[models.CriterionBattery], record.RawWeights[models.CriterionRange],
		record.RawWeights[models.CriterionAccelerate], record.RawWeights[models.CriterionTopSpeed],
		record.RawWeights[models.CriterionEfficiency], record.RawWeights[models.CriterionFastCharge],
		record.RawWeights[models.CriterionEstimatedTHB],
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append user profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("append user record: %w", err)
	}

	// The segment average changed; let the cache repopulate.
	s.invalidateWeights(ctx, record.ClusterID)

	return nil
}

func (s *UserProfileStore) cachedWeights(ctx context.Context, key string) models.CriterionWeight {
	if s.redis == nil {
		return nil
	}
	cached, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var weights models.CriterionWeight
	if err := json.Unmarshal([]byte(cached), &weights); err != nil {
		return nil
	}
	return weights
}

func (s *UserProfileStore) cacheWeights(ctx context.Context, key string, weights models.CriterionWeight) {
	if s.redis == nil {
		return
	}
	ttl := s.config.SegmentWeightCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if data, err := json.Marshal(weights); err == nil {
		if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to cache segment weights")
		}
	}
}

func (s *UserProfileStore) invalidateWeights(ctx context.Context, clusterID int) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf("segment:avg_weights:%d", clusterID)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate segment weight cache")
	}
}

func mustJSON(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}
