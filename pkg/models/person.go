package models

import (
	"strings"
	"time"
)

// Gender is the fixed enumerated tag attached to a person. Anything outside
// the known set collapses to GenderUnknown at normalization time.
type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
)

// NormalizeGender maps a caller-supplied tag onto the known set, ignoring
// case and defaulting to the unknown sentinel when absent or invalid.
func NormalizeGender(raw string) Gender {
	switch g := Gender(strings.ToLower(raw)); g {
	case GenderMale, GenderFemale, GenderOther:
		return g
	default:
		return GenderUnknown
	}
}

// Person is a named node in the relationship graph. Names are unique
// (case-sensitive) across all persons.
type Person struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Gender      Gender    `json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
}
