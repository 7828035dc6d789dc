package models

import "time"

// Relation is an edge between two persons. The stored direction is whatever
// the caller provided on insert; equality and deletion treat the pair as
// unordered.
type Relation struct {
	ID           int64     `json:"id"`
	FromPersonID int64     `json:"from"`
	ToPersonID   int64     `json:"to"`
	Source       string    `json:"source,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Touches reports whether the relation has the given person as an endpoint.
func (r *Relation) Touches(personID int64) bool {
	return r.FromPersonID == personID || r.ToPersonID == personID
}

// OtherEnd returns the endpoint opposite to personID. The caller must have
// checked Touches first; for a self-loop-free table the answer is unambiguous.
func (r *Relation) OtherEnd(personID int64) int64 {
	if r.FromPersonID == personID {
		return r.ToPersonID
	}
	return r.FromPersonID
}
