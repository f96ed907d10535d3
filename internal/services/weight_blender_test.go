package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmatch/voltmatch/pkg/models"
)

type stubWeightSource struct {
	weights models.CriterionWeight
	err     error
}

func (s *stubWeightSource) FetchSegmentAverageWeights(context.Context, int) (models.CriterionWeight, error) {
	return s.weights, s.err
}

func TestWeightBlender_Blend(t *testing.T) {
	cfg := testRankingConfig()

	t.Run("convex blend normalized to 100", func(t *testing.T) {
		segment := models.CriterionWeight{
			models.CriterionBattery:      30,
			models.CriterionRange:        10,
			models.CriterionAccelerate:   10,
			models.CriterionTopSpeed:     10,
			models.CriterionEfficiency:   10,
			models.CriterionFastCharge:   10,
			models.CriterionEstimatedTHB: 20,
		}
		blender := NewWeightBlender(&stubWeightSource{weights: segment}, cfg, testLogger())

		user := models.CriterionWeight{
			models.CriterionBattery:      10,
			models.CriterionRange:        30,
			models.CriterionAccelerate:   10,
			models.CriterionTopSpeed:     10,
			models.CriterionEfficiency:   10,
			models.CriterionFastCharge:   10,
			models.CriterionEstimatedTHB: 20,
		}

		hybrid, err := blender.Blend(context.Background(), user, 1)
		require.NoError(t, err)

		assert.InDelta(t, 100.0, hybrid.Sum(), 1e-9)
		// 10*0.7 + 30*0.3 = 16 for battery; both vectors sum to 100 so
		// normalization is a no-op.
		assert.InDelta(t, 16.0, hybrid[models.CriterionBattery], 1e-9)
		assert.InDelta(t, 24.0, hybrid[models.CriterionRange], 1e-9)
	})

	t.Run("empty segment history falls back to neutral", func(t *testing.T) {
		blender := NewWeightBlender(&stubWeightSource{weights: models.CriterionWeight{}}, cfg, testLogger())

		hybrid, err := blender.Blend(context.Background(), models.NeutralWeights(), 0)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, hybrid.Sum(), 1e-9)
	})

	t.Run("store failure falls back to neutral", func(t *testing.T) {
		blender := NewWeightBlender(&stubWeightSource{err: fmt.Errorf("connection refused")}, cfg, testLogger())

		hybrid, err := blender.Blend(context.Background(), models.NeutralWeights(), 2)
		require.NoError(t, err)
		assert.True(t, hybrid.Complete())
	})

	t.Run("zero mass is a degenerate vector", func(t *testing.T) {
		zeroCfg := testRankingConfig()
		zeroCfg.UserWeight = 0
		zeroCfg.SegmentWeight = 0
		blender := NewWeightBlender(&stubWeightSource{weights: models.NeutralWeights()}, zeroCfg, testLogger())

		_, err := blender.Blend(context.Background(), models.NeutralWeights(), 0)
		assert.ErrorIs(t, err, ErrDegenerateWeights)
	})

	t.Run("legacy blend split is configurable", func(t *testing.T) {
		legacyCfg := testRankingConfig()
		legacyCfg.UserWeight = 0.8
		legacyCfg.SegmentWeight = 0.2
		blender := NewWeightBlender(&stubWeightSource{weights: models.NeutralWeights()}, legacyCfg, testLogger())

		user := models.NeutralWeights()
		user[models.CriterionBattery] = 50
		user[models.CriterionRange] = 7.14

		hybrid, err := blender.Blend(context.Background(), user, 0)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, hybrid.Sum(), 1e-9)
		assert.Greater(t, hybrid[models.CriterionBattery], hybrid[models.CriterionRange])
	})
}
