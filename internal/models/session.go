package models

import "time"

// AlumniSession binds an opaque session id to the selected master record.
// It is identity selection, not authentication.
type AlumniSession struct {
	ID        string    `json:"sessionId"`
	MasterID  string    `json:"masterId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IdentityOutcome classifies an identity search result.
type IdentityOutcome string

const (
	IdentityNotFound IdentityOutcome = "not_found"
	IdentitySingle   IdentityOutcome = "single"
	IdentityMultiple IdentityOutcome = "multiple"
)

// OutcomeFor maps a match count to an outcome.
func OutcomeFor(matches int) IdentityOutcome {
	switch {
	case matches == 0:
		return IdentityNotFound
	case matches == 1:
		return IdentitySingle
	default:
		return IdentityMultiple
	}
}
