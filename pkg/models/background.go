package models

import "time"

// PersonBackground is the optional one-to-one biography attached to a person.
// Writes have upsert semantics; updated_at refreshes on every write.
type PersonBackground struct {
	ID        int64     `json:"id"`
	PersonID  int64     `json:"person_id"`
	BirthYear *int      `json:"birth_year,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
