package entity

import (
	"strings"
	"time"
)

// Lead is one inbound prospect exported from the CRM. Immutable once loaded:
// the pipeline only filters leads out or derives new values from them.
type Lead struct {
	Email              string    `json:"email"`
	HubspotContactID   string    `json:"hubspot_contact_id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	BirthDate          string    `json:"birth_date"` // raw CRM value, MM-DD-YYYY or YYYY-MM-DD
	Segment            string    `json:"segment"`
	LastCompletedGrade *int      `json:"last_completed_grade,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// EmailKey normalizes the email for case-insensitive matching.
func (l Lead) EmailKey() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}

// CurrentGrade is the grade the student is entering: last completed plus one.
// The second return is false when the CRM did not carry a usable grade.
func (l Lead) CurrentGrade() (int, bool) {
	if l.LastCompletedGrade == nil {
		return 0, false
	}
	return *l.LastCompletedGrade + 1, true
}

func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}
