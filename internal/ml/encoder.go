package ml

import (
	"fmt"

	"github.com/voltmatch/voltmatch/pkg/models"
)

// ProfileEncoder one-hot encodes the categorical profile fields and
// appends the seat preference as a numeric feature. Each field carries
// an extra slot for the unknown sentinel, so values outside the
// vocabulary encode instead of failing.
type ProfileEncoder struct {
	Fields []models.ProfileField `json:"fields"`

	// offsets[i] is the first output dimension of field i.
	offsets []int
	width   int
}

// NewProfileEncoder builds an encoder over the canonical profile
// vocabularies.
func NewProfileEncoder() *ProfileEncoder {
	e := &ProfileEncoder{Fields: models.ProfileFields}
	e.index()
	return e
}

func (e *ProfileEncoder) index() {
	e.offsets = make([]int, len(e.Fields))
	offset := 0
	for i, f := range e.Fields {
		e.offsets[i] = offset
		offset += len(f.Values) + 1 // +1 for the unknown slot
	}
	e.width = offset + 1 // trailing seats dimension
}

// Width is the dimensionality of the encoded feature vector.
func (e *ProfileEncoder) Width() int {
	if e.width == 0 {
		e.index()
	}
	return e.width
}

// Transform encodes a profile into a dense feature vector. Unknown or
// empty categorical values light the field's reserved unknown slot.
func (e *ProfileEncoder) Transform(profile *models.UserProfile) ([]float64, error) {
	if profile == nil {
		return nil, fmt.Errorf("encoder: nil profile")
	}
	if e.width == 0 {
		e.index()
	}

	values := profile.CategoricalValues()
	if len(values) != len(e.Fields) {
		return nil, fmt.Errorf("encoder: expected %d categorical values, got %d", len(e.Fields), len(values))
	}

	vec := make([]float64, e.width)
	for i, f := range e.Fields {
		slot := len(f.Values) // unknown slot by default
		for j, v := range f.Values {
			if v == values[i] {
				slot = j
				break
			}
		}
		vec[e.offsets[i]+slot] = 1
	}

	seats := profile.Seats
	if seats <= 0 {
		seats = models.DefaultSeats
	}
	vec[e.width-1] = float64(seats)

	return vec, nil
}
