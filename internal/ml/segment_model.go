package ml

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/voltmatch/voltmatch/pkg/models"
)

// SegmentModel is the versioned clustering artifact: encoder, scaler and
// partitioning model trained together and only ever replaced as a unit.
type SegmentModel struct {
	Version      string          `json:"version"`
	TrainedAt    time.Time       `json:"trained_at"`
	TrainingRows int             `json:"training_rows"`
	Synthetic    bool            `json:"synthetic"`
	Silhouette   float64         `json:"silhouette"`
	Encoder      *ProfileEncoder `json:"encoder"`
	Scaler       *StandardScaler `json:"scaler"`
	KMeans       *KMeans         `json:"kmeans"`
}

// TrainingConfig tunes the batch training procedure.
type TrainingConfig struct {
	MinRows           int   // below this the synthetic fallback set is used
	SilhouetteMinRows int   // below this the silhouette search is skipped
	MaxClusters       int   // upper bound of the candidate K range
	DefaultClusters   int   // K used when the search is skipped
	SyntheticRows     int   // size of the synthetic fallback set
	MaxIterations     int   // Lloyd iteration cap
	Seed              int64 // rng seed, fixed for reproducible artifacts
}

// withDefaults fills zero values with the conventional settings.
func (c TrainingConfig) withDefaults() TrainingConfig {
	if c.MinRows <= 0 {
		c.MinRows = 5
	}
	if c.SilhouetteMinRows <= 0 {
		c.SilhouetteMinRows = 10
	}
	if c.MaxClusters <= 0 {
		c.MaxClusters = 10
	}
	if c.DefaultClusters <= 0 {
		c.DefaultClusters = 2
	}
	if c.SyntheticRows <= 0 {
		c.SyntheticRows = 24
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	return c
}

// TrainSegmentModel fits the full artifact from historical profiles.
// With fewer than MinRows profiles a synthetic set spanning the category
// vocabularies is generated so a model can still be produced. K is
// chosen by maximizing silhouette over 2..min(MaxClusters, rows/2) when
// enough rows exist, otherwise DefaultClusters is used.
func TrainSegmentModel(profiles []models.UserProfile, cfg TrainingConfig) (*SegmentModel, error) {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	synthetic := false
	if len(profiles) < cfg.MinRows {
		profiles = SyntheticProfiles(cfg.SyntheticRows, rng)
		synthetic = true
	}

	encoder := NewProfileEncoder()
	encoded := make([][]float64, len(profiles))
	for i := range profiles {
		vec, err := encoder.Transform(&profiles[i])
		if err != nil {
			return nil, fmt.Errorf("encode training row %d: %w", i, err)
		}
		encoded[i] = vec
	}

	scaler, err := FitStandardScaler(encoded)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.TransformAll(encoded)
	if err != nil {
		return nil, fmt.Errorf("scale training rows: %w", err)
	}

	bestK := cfg.DefaultClusters
	bestScore := 0.0
	if len(scaled) >= cfg.SilhouetteMinRows {
		maxK := cfg.MaxClusters
		if half := len(scaled) / 2; half < maxK {
			maxK = half
		}
		for k := 2; k <= maxK; k++ {
			candidate, err := FitKMeans(scaled, k, cfg.MaxIterations, rng)
			if err != nil {
				continue
			}
			labels, err := candidate.Assignments(scaled)
			if err != nil {
				continue
			}
			if score := SilhouetteScore(scaled, labels); k == 2 || score > bestScore {
				bestScore = score
				bestK = k
			}
		}
	}

	kmeans, err := FitKMeans(scaled, bestK, cfg.MaxIterations, rng)
	if err != nil {
		return nil, fmt.Errorf("fit kmeans: %w", err)
	}

	model := &SegmentModel{
		TrainedAt:    time.Now().UTC(),
		TrainingRows: len(profiles),
		Synthetic:    synthetic,
		Silhouette:   bestScore,
		Encoder:      encoder,
		Scaler:       scaler,
		KMeans:       kmeans,
	}
	model.Version = model.hash()

	return model, nil
}

// Assign classifies a profile by transforming it through the artifact's
// own encoder and scaler and evaluating nearest-centroid assignment.
func (m *SegmentModel) Assign(profile *models.UserProfile) (int, error) {
	if m == nil || m.Encoder == nil || m.Scaler == nil || m.KMeans == nil {
		return 0, fmt.Errorf("segment model: incomplete artifact")
	}
	encoded, err := m.Encoder.Transform(profile)
	if err != nil {
		return 0, err
	}
	scaled, err := m.Scaler.Transform(encoded)
	if err != nil {
		return 0, err
	}
	return m.KMeans.Predict(scaled)
}

// K is the number of learned segments.
func (m *SegmentModel) K() int {
	if m == nil || m.KMeans == nil {
		return 0
	}
	return m.KMeans.K
}

// Marshal serializes the complete artifact as one document, so encoder,
// scaler and centroids always persist and load together.
func (m *SegmentModel) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalSegmentModel restores a persisted artifact and rebuilds the
// encoder's internal index.
func UnmarshalSegmentModel(data []byte) (*SegmentModel, error) {
	var m SegmentModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("segment model: decode artifact: %w", err)
	}
	if m.Encoder == nil || m.Scaler == nil || m.KMeans == nil {
		return nil, fmt.Errorf("segment model: artifact missing components")
	}
	m.Encoder.index()
	return &m, nil
}

func (m *SegmentModel) hash() string {
	payload, _ := json.Marshal(struct {
		Rows      int         `json:"rows"`
		K         int         `json:"k"`
		Centroids [][]float64 `json:"centroids"`
		TrainedAt time.Time   `json:"trained_at"`
	}{m.TrainingRows, m.KMeans.K, m.KMeans.Centroids, m.TrainedAt})
	return fmt.Sprintf("%x", sha256.Sum256(payload))[:16]
}

// SyntheticProfiles generates a randomized profile set spanning every
// category vocabulary, used to bootstrap a model before real history
// accumulates.
func SyntheticProfiles(n int, rng *rand.Rand) []models.UserProfile {
	profiles := make([]models.UserProfile, n)
	for i := range profiles {
		pick := func(field int) string {
			values := models.ProfileFields[field].Values
			return values[rng.Intn(len(values))]
		}
		profiles[i] = models.UserProfile{
			Gender:        pick(0),
			AgeRange:      pick(1),
			Occupation:    pick(2),
			MaritalStatus: pick(3),
			FamilyStatus:  pick(4),
			IncomeRange:   pick(5),
			VehicleStatus: pick(6),
			DriveConfig:   pick(7),
			Seats:         2 + rng.Intn(6),
		}
	}
	return profiles
}
