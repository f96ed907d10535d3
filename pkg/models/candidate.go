package models

// Candidate is one cleaned catalog row: an EV model with its seven
// numeric ranking attributes and the categorical filter fields. Rows
// whose numeric attributes fail cleaning never become Candidates.
type Candidate struct {
	Model              string  `json:"model" db:"model"`
	Battery            float64 `json:"battery" db:"battery"`
	Range              float64 `json:"range" db:"range"`
	Accelerate         float64 `json:"accelarate" db:"accelarate"`
	TopSpeed           float64 `json:"topspeed" db:"topspeed"`
	Efficiency         float64 `json:"efficiency" db:"efficiency"`
	FastCharge         float64 `json:"fastcharge" db:"fastcharge"`
	EstimatedTHBValue  float64 `json:"estimatedthbvalue" db:"estimatedthbvalue"`
	Seats              int     `json:"seats" db:"seats"`
	DriveConfiguration string  `json:"driveconfiguration" db:"driveconfiguration"`
}

// Attribute returns the candidate's value for a criterion, in the same
// key space as CriterionWeight.
func (c *Candidate) Attribute(criterion Criterion) float64 {
	switch criterion {
	case CriterionBattery:
		return c.Battery
	case CriterionRange:
		return c.Range
	case CriterionAccelerate:
		return c.Accelerate
	case CriterionTopSpeed:
		return c.TopSpeed
	case CriterionEfficiency:
		return c.Efficiency
	case CriterionFastCharge:
		return c.FastCharge
	case CriterionEstimatedTHB:
		return c.EstimatedTHBValue
	default:
		return 0
	}
}

// AttributeRow returns the candidate's numeric attributes in the fixed
// criterion order used by the decision matrix.
func (c *Candidate) AttributeRow() []float64 {
	row := make([]float64, 0, CriterionCount)
	for _, criterion := range Criteria {
		row = append(row, c.Attribute(criterion))
	}
	return row
}
