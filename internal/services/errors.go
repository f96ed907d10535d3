package services

import "errors"

// Failure kinds of the ranking pipeline. Weight-derivation failures and
// a degenerate blend surface to the caller as an empty result with a
// reason; classification and persistence failures are absorbed with safe
// defaults; a catalog failure aborts the request.
var (
	// ErrInsufficientCriteria: fewer than seven positive, finite weight
	// values were supplied.
	ErrInsufficientCriteria = errors.New("insufficient criteria")

	// ErrInconsistentComparisons: the AHP consistency ratio reached the
	// rejection threshold.
	ErrInconsistentComparisons = errors.New("inconsistent pairwise comparisons")

	// ErrDegenerateWeights: the hybrid blend summed to zero and cannot
	// be normalized.
	ErrDegenerateWeights = errors.New("degenerate weight vector")

	// ErrCatalogUnavailable: the catalog fetch failed; ranking cannot
	// proceed.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrModelUnavailable: no trained segment model can serve the
	// request right now. Recovered locally by falling back to segment 0.
	ErrModelUnavailable = errors.New("segment model unavailable")

	// ErrModelTraining: a training run is already in flight; callers
	// fall back rather than double-train.
	ErrModelTraining = errors.New("segment model training in progress")
)

// OutcomeReason is the machine-readable explanation attached to an
// empty ranking result.
type OutcomeReason string

const (
	OutcomeRanked                 OutcomeReason = "ranked"
	OutcomeInsufficientCriteria   OutcomeReason = "insufficient_criteria"
	OutcomeInconsistentComparison OutcomeReason = "inconsistent_comparisons"
	OutcomeDegenerateWeights      OutcomeReason = "degenerate_weights"
	OutcomeNoCandidates           OutcomeReason = "no_candidates"
)
