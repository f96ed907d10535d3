package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/services"
)

type AdminHandler struct {
	classifier *services.SegmentClassifier
	logger     *logrus.Logger
}

func NewAdminHandler(classifier *services.SegmentClassifier, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		classifier: classifier,
		logger:     logger,
	}
}

type segmentModelInfo struct {
	Version      string  `json:"version"`
	TrainedAt    string  `json:"trained_at"`
	Clusters     int     `json:"clusters"`
	TrainingRows int     `json:"training_rows"`
	Synthetic    bool    `json:"synthetic"`
	Silhouette   float64 `json:"silhouette"`
}

// Model handles GET /api/v1/admin/model.
func (h *AdminHandler) Model(c *gin.Context) {
	model, err := h.classifier.ActiveModel(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrModelTraining) {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "MODEL_TRAINING",
					"message": "A training run is in progress",
				},
			})
			return
		}

		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "MODEL_UNAVAILABLE",
				"message": "No trained segment model is available",
			},
		})
		return
	}

	c.JSON(http.StatusOK, segmentModelInfo{
		Version:      model.Version,
		TrainedAt:    model.TrainedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Clusters:     model.K(),
		TrainingRows: model.TrainingRows,
		Synthetic:    model.Synthetic,
		Silhouette:   model.Silhouette,
	})
}

// Retrain handles POST /api/v1/admin/model/retrain. It forces a fresh
// training run even when a model is already loaded.
func (h *AdminHandler) Retrain(c *gin.Context) {
	model, err := h.classifier.Retrain(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrModelTraining) {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "MODEL_TRAINING",
					"message": "A training run is already in progress",
				},
			})
			return
		}

		h.logger.WithError(err).Error("Forced retraining failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RETRAIN_FAILED",
				"message": "Segment model retraining failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, segmentModelInfo{
		Version:      model.Version,
		TrainedAt:    model.TrainedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Clusters:     model.K(),
		TrainingRows: model.TrainingRows,
		Synthetic:    model.Synthetic,
		Silhouette:   model.Silhouette,
	})
}
