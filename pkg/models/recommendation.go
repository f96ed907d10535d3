package models

import (
	"time"

	"github.com/google/uuid"
)

// RankedResult is one scored catalog entry. Score is the TOPSIS
// similarity to the ideal solution, in [0, 1], higher is better.
type RankedResult struct {
	Model    string     `json:"model"`
	Score    float64    `json:"score"`
	Position int        `json:"position"`
	Item     *Candidate `json:"item,omitempty"`
}

// RecommendationRequest is the submit payload: who is asking, how they
// weighted the criteria, and the hard filters on the catalog.
type RecommendationRequest struct {
	UserID      string             `json:"user_id"`
	Profile     UserProfile        `json:"user_profile"`
	Weights     map[string]float64 `json:"weights" binding:"required"`
	Seats       int                `json:"seats" binding:"required,min=1,max=9"`
	Drivetrain  string             `json:"drivetrain" binding:"required"`
	ResultCount int                `json:"result_count,omitempty"`
}

// CriterionWeights converts the raw request weights into the typed
// vector, accepting the frontend aliases for two renamed criteria.
func (r *RecommendationRequest) CriterionWeights() CriterionWeight {
	w := make(CriterionWeight, CriterionCount)
	for k, v := range r.Weights {
		switch k {
		case "top_speed":
			w[CriterionTopSpeed] = v
		case "estimated_thb_value":
			w[CriterionEstimatedTHB] = v
		default:
			w[Criterion(k)] = v
		}
	}
	return w
}

// RecommendationResponse is the public result envelope.
type RecommendationResponse struct {
	RequestID       uuid.UUID       `json:"request_id"`
	Recommendations []RankedResult  `json:"recommendations"`
	ClusterID       int             `json:"cluster_id"`
	HybridWeights   CriterionWeight `json:"hybrid_weights"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// UserRecord is the persisted outcome of one ranking request: the
// profile, both weight vectors, the assigned segment and the shortlist.
// Appended fire-and-forget after the response is computed.
type UserRecord struct {
	RecordID          uuid.UUID       `json:"record_id"`
	UserID            string          `json:"user_id"`
	Profile           UserProfile     `json:"profile"`
	RawWeights        CriterionWeight `json:"raw_weights"`
	HybridWeights     CriterionWeight `json:"hybrid_weights"`
	ClusterID         int             `json:"cluster_id"`
	Seats             int             `json:"seats"`
	Drivetrain        string          `json:"drivetrain"`
	RecommendedModels []string        `json:"recommended_models"`
	SelectedModel     string          `json:"selected_model"`
	SatisfactionScore float64         `json:"satisfaction_score"`
	Timestamp         time.Time       `json:"timestamp"`
}
