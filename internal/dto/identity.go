package dto

import (
	"time"

	"github.com/noah-isme/sipal-api/internal/models"
)

// IdentitySearchRequest is the name + graduation year lookup.
type IdentitySearchRequest struct {
	FullName       string `json:"fullName" validate:"required"`
	GraduationYear int    `json:"graduationYear" validate:"required,min=1950"`
}

// IdentitySelectRequest picks one record from a previous search.
type IdentitySelectRequest struct {
	MasterID       string `json:"masterId" validate:"required"`
	FullName       string `json:"fullName" validate:"required"`
	GraduationYear int    `json:"graduationYear" validate:"required,min=1950"`
}

// IdentityMatch is the public projection of a master record shown while
// disambiguating. Contact details are withheld.
type IdentityMatch struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	NIM            string `json:"nim"`
	Department     string `json:"department"`
	Program        string `json:"program"`
	GraduationYear int    `json:"graduationYear"`
}

// NewIdentityMatch projects m.
func NewIdentityMatch(m models.MasterRecord) IdentityMatch {
	match := IdentityMatch{ID: m.ID, FullName: m.FullName, NIM: m.NIM, Department: m.Department, Program: m.Program}
	if m.GraduationYear != nil {
		match.GraduationYear = *m.GraduationYear
	}
	return match
}

// IdentitySearchResponse carries the outcome and, when nothing matched, the
// fallback instruction.
type IdentitySearchResponse struct {
	Outcome  models.IdentityOutcome `json:"outcome"`
	Matches  []IdentityMatch        `json:"matches"`
	Fallback string                 `json:"fallback,omitempty"`
}

// SessionResponse describes the active identity selection.
type SessionResponse struct {
	SessionID string              `json:"sessionId"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Master    models.MasterRecord `json:"master"`
}
