package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CareerStatus discriminates the career payload variants.
type CareerStatus string

const (
	CareerWorking      CareerStatus = "working"
	CareerEntrepreneur CareerStatus = "entrepreneur"
	CareerStudying     CareerStatus = "studying"
	CareerSearching    CareerStatus = "searching"
)

// CareerStatuses lists every status in display order.
var CareerStatuses = []CareerStatus{CareerWorking, CareerEntrepreneur, CareerStudying, CareerSearching}

// Valid reports whether s is a known career status.
func (s CareerStatus) Valid() bool {
	switch s {
	case CareerWorking, CareerEntrepreneur, CareerStudying, CareerSearching:
		return true
	}
	return false
}

// Label returns the Indonesian label used in exports.
func (s CareerStatus) Label() string {
	switch s {
	case CareerWorking:
		return "Bekerja"
	case CareerEntrepreneur:
		return "Wirausaha"
	case CareerStudying:
		return "Studi Lanjut"
	case CareerSearching:
		return "Mencari Kerja"
	}
	return ""
}

// CareerDetail is the status-specific payload of a CareerRecord. The set of
// implementations is closed to this package.
type CareerDetail interface {
	CareerStatus() CareerStatus
	validate(errs FieldErrors)
}

// WorkingDetail describes employment.
type WorkingDetail struct {
	CompanyName       string `json:"companyName"`
	JobTitle          string `json:"jobTitle"`
	CompanyLocation   string `json:"companyLocation"`
	Industry          string `json:"industry"`
	StartYear         int    `json:"startYear"`
	EndYear           *int   `json:"endYear,omitempty"`
	CurrentlyEmployed bool   `json:"currentlyEmployed"`
}

// EntrepreneurDetail describes a venture the alumnus runs.
type EntrepreneurDetail struct {
	VentureName   string `json:"ventureName"`
	VentureType   string `json:"ventureType"`
	Location      string `json:"location"`
	StartYear     int    `json:"startYear"`
	EndYear       *int   `json:"endYear,omitempty"`
	Active        bool   `json:"active"`
	EmployeeCount *int   `json:"employeeCount,omitempty"`
}

// StudyingDetail describes further study.
type StudyingDetail struct {
	Institution       string `json:"institution"`
	Program           string `json:"program"`
	DegreeLevel       string `json:"degreeLevel"`
	Location          string `json:"location"`
	StartYear         int    `json:"startYear"`
	EndYear           *int   `json:"endYear,omitempty"`
	CurrentlyEnrolled bool   `json:"currentlyEnrolled"`
}

// SearchingDetail describes an ongoing job search.
type SearchingDetail struct {
	TargetLocation  string `json:"targetLocation"`
	TargetField     string `json:"targetField"`
	MonthsSearching int    `json:"monthsSearching"`
}

func (WorkingDetail) CareerStatus() CareerStatus      { return CareerWorking }
func (EntrepreneurDetail) CareerStatus() CareerStatus { return CareerEntrepreneur }
func (StudyingDetail) CareerStatus() CareerStatus     { return CareerStudying }
func (SearchingDetail) CareerStatus() CareerStatus    { return CareerSearching }

func (d WorkingDetail) validate(errs FieldErrors) {
	requireText(errs, "companyName", d.CompanyName)
	requireText(errs, "jobTitle", d.JobTitle)
	requireText(errs, "companyLocation", d.CompanyLocation)
	requireText(errs, "industry", d.Industry)
	requireYear(errs, "startYear", d.StartYear)
	requireEndWhenInactive(errs, d.CurrentlyEmployed, d.StartYear, d.EndYear, "no longer employed")
}

func (d EntrepreneurDetail) validate(errs FieldErrors) {
	requireText(errs, "ventureName", d.VentureName)
	requireText(errs, "ventureType", d.VentureType)
	requireText(errs, "location", d.Location)
	requireYear(errs, "startYear", d.StartYear)
	requireEndWhenInactive(errs, d.Active, d.StartYear, d.EndYear, "the venture is no longer active")
	if d.EmployeeCount != nil && *d.EmployeeCount < 0 {
		errs.Add("employeeCount", "employeeCount must not be negative")
	}
}

func (d StudyingDetail) validate(errs FieldErrors) {
	requireText(errs, "institution", d.Institution)
	requireText(errs, "program", d.Program)
	switch d.DegreeLevel {
	case "S1", "S2", "S3":
	default:
		errs.Add("degreeLevel", "degreeLevel must be one of S1, S2, S3")
	}
	requireText(errs, "location", d.Location)
	requireYear(errs, "startYear", d.StartYear)
	requireEndWhenInactive(errs, d.CurrentlyEnrolled, d.StartYear, d.EndYear, "no longer enrolled")
}

func (d SearchingDetail) validate(errs FieldErrors) {
	requireText(errs, "targetLocation", d.TargetLocation)
	requireText(errs, "targetField", d.TargetField)
	if d.MonthsSearching < 0 {
		errs.Add("monthsSearching", "monthsSearching must not be negative")
	}
}

// DecodeCareerDetail parses raw JSON into the payload type selected by status.
func DecodeCareerDetail(status CareerStatus, raw []byte) (CareerDetail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("detail is required for status %q", status)
	}
	var (
		detail CareerDetail
		err    error
	)
	switch status {
	case CareerWorking:
		var d WorkingDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case CareerEntrepreneur:
		var d EntrepreneurDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case CareerStudying:
		var d StudyingDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case CareerSearching:
		var d SearchingDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	default:
		return nil, fmt.Errorf("unknown career status %q", status)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s detail: %w", status, err)
	}
	return detail, nil
}

// CareerRecord is one dated career-status entry of a master record.
type CareerRecord struct {
	ID         string       `json:"id"`
	MasterID   string       `json:"masterId"`
	Status     CareerStatus `json:"status"`
	RecordYear int          `json:"recordYear"`
	IsCurrent  bool         `json:"isCurrent"`
	Detail     CareerDetail `json:"detail"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// UnmarshalJSON decodes the detail according to the status discriminant.
func (c *CareerRecord) UnmarshalJSON(data []byte) error {
	type alias CareerRecord
	aux := struct {
		*alias
		Detail json.RawMessage `json:"detail"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	detail, err := DecodeCareerDetail(c.Status, aux.Detail)
	if err != nil {
		return err
	}
	c.Detail = detail
	return nil
}

// Validate enforces required fields and cross-field invariants for the record
// and its payload. Both the form wizard and the service call it.
func (c *CareerRecord) Validate() FieldErrors {
	errs := FieldErrors{}
	requireText(errs, "masterId", c.MasterID)
	if !c.Status.Valid() {
		errs.Add("status", "status must be one of working, entrepreneur, studying, searching")
		return errs
	}
	requireYear(errs, "recordYear", c.RecordYear)
	if c.Detail == nil {
		errs.Add("detail", "detail is required")
		return errs
	}
	if c.Detail.CareerStatus() != c.Status {
		errs.Add("detail", fmt.Sprintf("detail does not match status %s", c.Status))
		return errs
	}
	c.Detail.validate(errs)
	return errs
}

// Industry returns the industry sector for working records.
func (c *CareerRecord) Industry() string {
	if d, ok := c.Detail.(WorkingDetail); ok {
		return strings.TrimSpace(d.Industry)
	}
	return ""
}

// SortCareers orders records by record year, then creation time.
func SortCareers(records []CareerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RecordYear != records[j].RecordYear {
			return records[i].RecordYear < records[j].RecordYear
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

// CurrentCareer picks the record shown as "current": the latest record
// flagged current, falling back to the latest record overall.
func CurrentCareer(records []CareerRecord) *CareerRecord {
	if len(records) == 0 {
		return nil
	}
	sorted := make([]CareerRecord, len(records))
	copy(sorted, records)
	SortCareers(sorted)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].IsCurrent {
			return &sorted[i]
		}
	}
	return &sorted[len(sorted)-1]
}
