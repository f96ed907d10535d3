package models

import "math"

// Criterion identifies one of the seven ranking criteria. The values are
// the cleaned column names of the catalog table, so weight vectors,
// decision-matrix columns and stored averages all share one key space.
type Criterion string

const (
	CriterionBattery      Criterion = "battery"
	CriterionRange        Criterion = "range"
	CriterionAccelerate   Criterion = "accelarate"
	CriterionTopSpeed     Criterion = "topspeed"
	CriterionEfficiency   Criterion = "efficiency"
	CriterionFastCharge   Criterion = "fastcharge"
	CriterionEstimatedTHB Criterion = "estimatedthbvalue"
)

// Criteria is the fixed column order of the decision matrix.
var Criteria = []Criterion{
	CriterionBattery,
	CriterionRange,
	CriterionAccelerate,
	CriterionTopSpeed,
	CriterionEfficiency,
	CriterionFastCharge,
	CriterionEstimatedTHB,
}

// CriterionCount is the dimensionality of every weight vector.
const CriterionCount = 7

// Maximize reports the optimization direction of a criterion.
// Acceleration time, price and energy consumption are cost criteria;
// everything else is a benefit criterion.
func (c Criterion) Maximize() bool {
	switch c {
	case CriterionAccelerate, CriterionEstimatedTHB, CriterionEfficiency:
		return false
	default:
		return true
	}
}

// CriterionWeight maps every criterion to a non-negative importance
// magnitude. A vector is only usable by the ranking engine when all
// seven criteria carry a positive, finite value.
type CriterionWeight map[Criterion]float64

// Complete reports whether every criterion has a positive finite value.
func (w CriterionWeight) Complete() bool {
	for _, c := range Criteria {
		v, ok := w[c]
		if !ok || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Sum returns the total mass of the vector over the fixed criterion set.
func (w CriterionWeight) Sum() float64 {
	var total float64
	for _, c := range Criteria {
		total += w[c]
	}
	return total
}

// Vector returns the weights in the fixed criterion order.
func (w CriterionWeight) Vector() []float64 {
	out := make([]float64, 0, CriterionCount)
	for _, c := range Criteria {
		out = append(out, w[c])
	}
	return out
}

// Clone returns an independent copy of the vector.
func (w CriterionWeight) Clone() CriterionWeight {
	out := make(CriterionWeight, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// NeutralWeights is the even split of 100 across the seven criteria used
// when a segment has no recorded history. Rounding is absorbed by the
// price criterion so the vector sums to exactly 100.
func NeutralWeights() CriterionWeight {
	w := make(CriterionWeight, CriterionCount)
	for _, c := range Criteria {
		w[c] = 14.28
	}
	w[CriterionEstimatedTHB] = 14.32
	return w
}
