package models

// CategoryUnknown is the sentinel value every categorical field falls
// back to when the submitted value is missing or outside its vocabulary.
const CategoryUnknown = "unknown"

// DefaultSeats is used when a profile omits its seat preference.
const DefaultSeats = 5

// UserProfile carries the categorical demographics plus the seat
// preference used for behavioral segmentation.
type UserProfile struct {
	UserID        string `json:"user_id" db:"user_id"`
	Gender        string `json:"gender" db:"gender"`
	AgeRange      string `json:"age_range" db:"age_range"`
	Occupation    string `json:"occupation" db:"occupation"`
	MaritalStatus string `json:"marital_status" db:"marital_status"`
	FamilyStatus  string `json:"family_status" db:"family_status"`
	IncomeRange   string `json:"income_range" db:"income_range"`
	VehicleStatus string `json:"vehicle_status" db:"vehicle_status"`
	DriveConfig   string `json:"drive_config" db:"drive_config"`
	Seats         int    `json:"seats" db:"seats"`
}

// ProfileField names one categorical profile dimension together with its
// closed vocabulary. The encoder reserves an extra slot per field for
// CategoryUnknown, so out-of-vocabulary values never fail a transform.
type ProfileField struct {
	Name   string
	Values []string
}

// ProfileFields is the canonical categorical feature set, in encoding
// order. Vocabularies are declared once here; the encoder, the request
// schema and the synthetic training generator all draw from this table.
var ProfileFields = []ProfileField{
	{Name: "gender", Values: []string{"male", "female", "other"}},
	{Name: "age_range", Values: []string{"18-25", "26-35", "36-45", "46-55", "56-65", "65+"}},
	{Name: "occupation", Values: []string{"student", "employee", "government_officer", "business_owner", "freelancer"}},
	{Name: "marital_status", Values: []string{"single", "married", "divorced", "widowed"}},
	{Name: "family_status", Values: []string{"with_children", "without_children"}},
	{Name: "income_range", Values: []string{"low", "medium", "high", "very_high"}},
	{Name: "vehicle_status", Values: []string{"owns_vehicle", "no_vehicle"}},
	{Name: "drive_config", Values: []string{"FWD", "RWD", "AWD"}},
}

// CategoricalValues returns the profile's categorical values in the
// ProfileFields order, substituting CategoryUnknown for empty fields.
func (p *UserProfile) CategoricalValues() []string {
	raw := []string{
		p.Gender,
		p.AgeRange,
		p.Occupation,
		p.MaritalStatus,
		p.FamilyStatus,
		p.IncomeRange,
		p.VehicleStatus,
		p.DriveConfig,
	}
	for i, v := range raw {
		if v == "" {
			raw[i] = CategoryUnknown
		}
	}
	return raw
}

// Normalize fills missing categorical fields with the unknown sentinel
// and missing seat counts with the default, mirroring how raw submitted
// profiles are repaired before encoding.
func (p *UserProfile) Normalize() {
	if p.Gender == "" {
		p.Gender = CategoryUnknown
	}
	if p.AgeRange == "" {
		p.AgeRange = CategoryUnknown
	}
	if p.Occupation == "" {
		p.Occupation = CategoryUnknown
	}
	if p.MaritalStatus == "" {
		p.MaritalStatus = CategoryUnknown
	}
	if p.FamilyStatus == "" {
		p.FamilyStatus = CategoryUnknown
	}
	if p.IncomeRange == "" {
		p.IncomeRange = CategoryUnknown
	}
	if p.VehicleStatus == "" {
		p.VehicleStatus = CategoryUnknown
	}
	if p.DriveConfig == "" {
		p.DriveConfig = CategoryUnknown
	}
	if p.Seats <= 0 {
		p.Seats = DefaultSeats
	}
}
