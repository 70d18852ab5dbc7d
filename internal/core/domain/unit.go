package domain

import "time"

// UnitStatus is the coding progress of a unit.
type UnitStatus string

// Unit statuses.
const (
	UnitStatusInProgress UnitStatus = "IN_PROGRESS"
	UnitStatusDone       UnitStatus = "DONE"
)

// IsValid returns true if the status is recognised.
func (s UnitStatus) IsValid() bool {
	return s == UnitStatusInProgress || s == UnitStatusDone
}

// Unit is a coding unit: a tokenised document plus its annotations.
type Unit struct {
	// ID is the unique identifier for the unit.
	ID string `json:"id"`

	// JobID groups units coded with the same codebook.
	JobID string `json:"job_id,omitempty"`

	// Tokens is the flattened, field-ordered token sequence.
	Tokens []Token `json:"tokens"`

	// Annotations is the unit's annotations in wire format.
	Annotations []WireAnnotation `json:"annotations"`

	// Status is the coding progress.
	Status UnitStatus `json:"status"`

	// UpdatedAt is when the annotations were last saved.
	UpdatedAt time.Time `json:"updated_at"`
}

// TextField is a named text field a unit's tokens are cut from. Tokens
// of a context field are shown but cannot be coded.
type TextField struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Context bool   `json:"context,omitempty"`
}
