package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/services"
	"github.com/voltmatch/voltmatch/internal/validation"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Admin          *AdminHandler
}

func New(logger *logrus.Logger, services *services.Services) (*Handlers, error) {
	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.RecommendationOrchestrator, validator, logger),
		Admin:          NewAdminHandler(services.Classifier, logger),
	}, nil
}
