package models

import (
	"errors"
	"strings"
	"time"
)

// ErrDuplicateNIM is returned by stores when a write would reuse a NIM.
var ErrDuplicateNIM = errors.New("nim already registered")

// MasterStatus is the academic lifecycle state of a master record.
type MasterStatus string

const (
	MasterStatusActive  MasterStatus = "active"
	MasterStatusAlumni  MasterStatus = "alumni"
	MasterStatusOnLeave MasterStatus = "on_leave"
	MasterStatusDropout MasterStatus = "dropout"
)

// Valid reports whether s is a known lifecycle status.
func (s MasterStatus) Valid() bool {
	switch s {
	case MasterStatusActive, MasterStatusAlumni, MasterStatusOnLeave, MasterStatusDropout:
		return true
	}
	return false
}

// MasterRecord is the identity anchor every career and achievement hangs off.
type MasterRecord struct {
	ID             string       `db:"id" json:"id"`
	FullName       string       `db:"full_name" json:"fullName"`
	NIM            string       `db:"nim" json:"nim"`
	Department     string       `db:"department" json:"department"`
	Program        string       `db:"program" json:"program"`
	EntryYear      int          `db:"entry_year" json:"entryYear"`
	GraduationYear *int         `db:"graduation_year" json:"graduationYear,omitempty"`
	Status         MasterStatus `db:"status" json:"status"`
	Email          string       `db:"email" json:"email,omitempty"`
	Phone          string       `db:"phone" json:"phone,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

// Validate checks field formats and cross-field consistency.
func (m *MasterRecord) Validate() FieldErrors {
	errs := FieldErrors{}
	requireText(errs, "fullName", m.FullName)
	if !ValidNIM(m.NIM) {
		errs.Add("nim", "nim must be 8 digits")
	}
	requireText(errs, "department", m.Department)
	requireText(errs, "program", m.Program)
	requireYear(errs, "entryYear", m.EntryYear)
	if !m.Status.Valid() {
		errs.Add("status", "status must be one of active, alumni, on_leave, dropout")
	}
	if m.GraduationYear != nil {
		if *m.GraduationYear < m.EntryYear {
			errs.Add("graduationYear", "graduationYear must not be before entryYear")
		}
	} else if m.Status == MasterStatusAlumni {
		errs.Add("graduationYear", "graduationYear is required for alumni")
	}
	if m.Email != "" && !ValidEmail(m.Email) {
		errs.Add("email", "email is not valid")
	}
	if m.Phone != "" && !ValidPhone(m.Phone) {
		errs.Add("phone", "phone must contain 9 to 15 digits")
	}
	return errs
}

// MatchesIdentity applies the identity-validation rule: case-insensitive
// substring match on the name and exact graduation year.
func (m *MasterRecord) MatchesIdentity(name string, year int) bool {
	if m.GraduationYear == nil || *m.GraduationYear != year {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(m.FullName), needle)
}

// Snapshot copies the identity fields evaluators reference by value.
func (m *MasterRecord) Snapshot() StudentSnapshot {
	snap := StudentSnapshot{ID: m.ID, FullName: m.FullName, NIM: m.NIM, Program: m.Program}
	if m.GraduationYear != nil {
		year := *m.GraduationYear
		snap.GraduationYear = &year
	}
	return snap
}

// MasterFilter encapsulates search parameters for listing master records.
type MasterFilter struct {
	Search         string
	Department     string
	Program        string
	GraduationYear *int
	Status         MasterStatus
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// Matches reports whether m passes every non-empty filter criterion.
func (f MasterFilter) Matches(m *MasterRecord) bool {
	if f.Department != "" && !strings.EqualFold(f.Department, m.Department) {
		return false
	}
	if f.Program != "" && !strings.EqualFold(f.Program, m.Program) {
		return false
	}
	if f.Status != "" && f.Status != m.Status {
		return false
	}
	if f.GraduationYear != nil && (m.GraduationYear == nil || *m.GraduationYear != *f.GraduationYear) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(m.FullName), search) && !strings.Contains(m.NIM, search) {
			return false
		}
	}
	return true
}

// CascadeResult reports the dependent rows removed with a master record.
type CascadeResult struct {
	Careers      int `json:"careers"`
	Achievements int `json:"achievements"`
}
