package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/pkg/models"
)

const catalogCacheKey = "catalog:candidates"

// DatabaseQuerier is the read surface of the Postgres pool, narrow
// enough to mock in tests.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// CatalogStore loads candidate rows from the catalog table, cleaning
// numeric attributes on the way: thousands separators are stripped and
// rows with any non-numeric attribute are dropped from ranking. Results
// are read through an optional Redis cache.
type CatalogStore struct {
	db           DatabaseQuerier
	redis        *redis.Client
	config       *config.RankingConfig
	metrics      *MetricsCollector
	queryTimeout time.Duration
	logger       *logrus.Logger
}

func NewCatalogStore(db DatabaseQuerier, redisClient *redis.Client, cfg *config.RankingConfig, queryTimeout time.Duration, metrics *MetricsCollector, logger *logrus.Logger) *CatalogStore {
	return &CatalogStore{db: db, redis: redisClient, config: cfg, metrics: metrics, queryTimeout: queryTimeout, logger: logger}
}

// FetchCandidates returns the cleaned catalog. An upstream failure wraps
// ErrCatalogUnavailable; an empty catalog is a valid (empty) result.
func (s *CatalogStore) FetchCandidates(ctx context.Context) ([]models.Candidate, error) {
	if cached := s.cachedCandidates(ctx); cached != nil {
		return cached, nil
	}

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	query := `
		SELECT model, battery, "range", accelarate, topspeed,
			efficiency, fastcharge, estimatedthbvalue,
			seats, driveconfiguration
		FROM ev_models`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	scanned, dropped := 0, 0
	for rows.Next() {
		var (
			model, drive                  string
			battery, rng, accel, topspeed string
			efficiency, fastcharge, price string
			seats                         int
		)
		if err := rows.Scan(&model, &battery, &rng, &accel, &topspeed,
			&efficiency, &fastcharge, &price, &seats, &drive); err != nil {
			s.logger.WithError(err).Warn("Failed to scan catalog row")
			dropped++
			continue
		}
		scanned++

		candidate := models.Candidate{
			Model:              strings.TrimSpace(model),
			Seats:              seats,
			DriveConfiguration: cleanCategory(drive),
		}
		ok := true
		for i, raw := range []string{battery, rng, accel, topspeed, efficiency, fastcharge, price} {
			value, err := cleanNumeric(raw)
			if err != nil {
				ok = false
				break
			}
			switch models.Criteria[i] {
			case models.CriterionBattery:
				candidate.Battery = value
			case models.CriterionRange:
				candidate.Range = value
			case models.CriterionAccelerate:
				candidate.Accelerate = value
			case models.CriterionTopSpeed:
				candidate.TopSpeed = value
			case models.CriterionEfficiency:
				candidate.Efficiency = value
			case models.CriterionFastCharge:
				candidate.FastCharge = value
			case models.CriterionEstimatedTHB:
				candidate.EstimatedTHBValue = value
			}
		}
		if !ok {
			dropped++
			continue
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	if dropped > 0 {
		s.metrics.CatalogRowsDropped(dropped)
		s.logger.WithFields(logrus.Fields{
			"scanned": scanned,
			"dropped": dropped,
		}).Warn("Catalog rows dropped during numeric cleaning")
	}
	// An all-dropped catalog and a truly empty table look the same to
	// callers; keep them apart in the logs.
	if scanned > 0 && len(candidates) == 0 {
		s.logger.Error("Every catalog row failed numeric cleaning")
	}

	s.cacheCandidates(ctx, candidates)

	return candidates, nil
}

func (s *CatalogStore) cachedCandidates(ctx context.Context) []models.Candidate {
	if s.redis == nil {
		return nil
	}
	cached, err := s.redis.Get(ctx, catalogCacheKey).Result()
	if err != nil {
		return nil
	}
	var candidates []models.Candidate
	if err := json.Unmarshal([]byte(cached), &candidates); err != nil {
		return nil
	}
	return candidates
}

func (s *CatalogStore) cacheCandidates(ctx context.Context, candidates []models.Candidate) {
	if s.redis == nil || len(candidates) == 0 {
		return
	}
	ttl := s.config.CatalogCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if data, err := json.Marshal(candidates); err == nil {
		if err := s.redis.Set(ctx, catalogCacheKey, data, ttl).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to cache catalog")
		}
	}
}

// cleanNumeric strips thousands separators and surrounding space before
// parsing. Non-numeric or non-finite values are rejected so the row can
// be dropped.
func cleanNumeric(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("non-finite numeric field")
	}
	return value, nil
}

// cleanCategory normalizes a categorical field to NFC and trims space so
// filter comparisons are not tripped by encoding variants.
func cleanCategory(raw string) string {
	return strings.TrimSpace(norm.NFC.String(raw))
}
