package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/services"
	"github.com/voltmatch/voltmatch/internal/validation"
	"github.com/voltmatch/voltmatch/pkg/models"
)

type RecommendationHandler struct {
	orchestrator services.RecommendationOrchestratorInterface
	validator    *validation.SchemaValidator
	logger       *logrus.Logger
}

func NewRecommendationHandler(
	orchestrator services.RecommendationOrchestratorInterface,
	validator *validation.SchemaValidator,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		orchestrator: orchestrator,
		validator:    validator,
		logger:       logger,
	}
}

// Recommend handles POST /api/v1/recommendations. An empty shortlist is
// a 404 with the pipeline's reason; only a catalog outage is a 503.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Failed to read request body",
			},
		})
		return
	}

	if result := h.validator.ValidateRecommendationRequest(body); !result.Valid {
		c.JSON(http.StatusBadRequest, result.ToAPIError())
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": err.Error(),
			},
		})
		return
	}

	outcome, err := h.orchestrator.Recommend(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrCatalogUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":    "CATALOG_UNAVAILABLE",
					"message": "The vehicle catalog is temporarily unavailable",
				},
			})
			return
		}

		h.logger.WithError(err).WithField("user_id", req.UserID).Error("Ranking pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RECOMMENDATION_FAILED",
				"message": "Failed to generate recommendations",
			},
		})
		return
	}

	if len(outcome.Recommendations) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NO_SUITABLE_MATCH",
				"message": "No suitable vehicle matched the request",
				"reason":  outcome.Reason,
			},
		})
		return
	}

	response := models.RecommendationResponse{
		RequestID:       outcome.RequestID,
		Recommendations: outcome.Recommendations,
		ClusterID:       outcome.ClusterID,
		HybridWeights:   outcome.HybridWeights,
		GeneratedAt:     outcome.GeneratedAt,
	}

	c.JSON(http.StatusOK, response)
}
