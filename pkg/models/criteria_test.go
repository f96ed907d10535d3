package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriterionMaximize(t *testing.T) {
	assert.True(t, CriterionBattery.Maximize())
	assert.True(t, CriterionRange.Maximize())
	assert.True(t, CriterionTopSpeed.Maximize())
	assert.True(t, CriterionFastCharge.Maximize())

	// Time to 100, energy consumption and price are cost criteria.
	assert.False(t, CriterionAccelerate.Maximize())
	assert.False(t, CriterionEfficiency.Maximize())
	assert.False(t, CriterionEstimatedTHB.Maximize())
}

func TestCriterionWeight_Complete(t *testing.T) {
	w := NeutralWeights()
	assert.True(t, w.Complete())

	delete(w, CriterionRange)
	assert.False(t, w.Complete())

	w = NeutralWeights()
	w[CriterionBattery] = 0
	assert.False(t, w.Complete())

	w = NeutralWeights()
	w[CriterionBattery] = math.NaN()
	assert.False(t, w.Complete())
}

func TestNeutralWeights_SumTo100(t *testing.T) {
	assert.InDelta(t, 100.0, NeutralWeights().Sum(), 1e-9)
}

func TestRecommendationRequest_CriterionWeights(t *testing.T) {
	req := &RecommendationRequest{
		Weights: map[string]float64{
			"battery":             10,
			"range":               20,
			"accelarate":          10,
			"top_speed":           15,
			"efficiency":          10,
			"fastcharge":          15,
			"estimated_thb_value": 20,
		},
	}

	w := req.CriterionWeights()
	assert.True(t, w.Complete())
	assert.Equal(t, 15.0, w[CriterionTopSpeed])
	assert.Equal(t, 20.0, w[CriterionEstimatedTHB])
}

func TestUserProfile_Normalize(t *testing.T) {
	p := &UserProfile{Gender: "male"}
	p.Normalize()

	assert.Equal(t, "male", p.Gender)
	assert.Equal(t, CategoryUnknown, p.AgeRange)
	assert.Equal(t, CategoryUnknown, p.DriveConfig)
	assert.Equal(t, DefaultSeats, p.Seats)
}
