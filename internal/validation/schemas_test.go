package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": "u-1",
		"user_profile": map[string]interface{}{
			"gender":    "male",
			"age_range": "36-45",
		},
		"weights": map[string]float64{
			"battery": 15, "range": 15, "accelarate": 14, "top_speed": 14,
			"efficiency": 14, "fastcharge": 14, "estimated_thb_value": 14,
		},
		"seats":      5,
		"drivetrain": "FWD",
	}
}

func TestSchemaValidator_RecommendationRequest(t *testing.T) {
	sv, err := NewSchemaValidator()
	require.NoError(t, err)

	t.Run("valid payload passes", func(t *testing.T) {
		result := sv.ValidateRecommendationRequest(validPayload())
		assert.True(t, result.Valid, "errors: %v", result.Errors)
	})

	t.Run("missing required fields fail", func(t *testing.T) {
		payload := validPayload()
		delete(payload, "seats")

		result := sv.ValidateRecommendationRequest(payload)
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("out of range seats fail", func(t *testing.T) {
		payload := validPayload()
		payload["seats"] = 12

		result := sv.ValidateRecommendationRequest(payload)
		assert.False(t, result.Valid)
	})

	t.Run("negative weight fails", func(t *testing.T) {
		payload := validPayload()
		payload["weights"].(map[string]float64)["battery"] = -5

		result := sv.ValidateRecommendationRequest(payload)
		assert.False(t, result.Valid)
	})

	t.Run("unknown drivetrain fails", func(t *testing.T) {
		payload := validPayload()
		payload["drivetrain"] = "hover"

		result := sv.ValidateRecommendationRequest(payload)
		assert.False(t, result.Valid)
	})

	t.Run("raw JSON bytes accepted", func(t *testing.T) {
		result := sv.ValidateRecommendationRequest([]byte(`{"weights":{"battery":10,"range":10,"accelarate":10,"top_speed":10,"efficiency":10,"fastcharge":10,"estimated_thb_value":10},"seats":4,"drivetrain":"AWD"}`))
		assert.True(t, result.Valid, "errors: %v", result.Errors)
	})

	t.Run("error envelope carries field errors", func(t *testing.T) {
		payload := validPayload()
		delete(payload, "drivetrain")

		result := sv.ValidateRecommendationRequest(payload)
		require.False(t, result.Valid)

		envelope := result.ToAPIError()
		require.NotNil(t, envelope)
		errObj := envelope["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	})
}
