package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AchievementCategory discriminates the achievement payload variants.
type AchievementCategory string

const (
	CategoryCompetition          AchievementCategory = "competition"
	CategoryPublication          AchievementCategory = "publication"
	CategoryIntellectualProperty AchievementCategory = "intellectual_property"
	CategoryInternship           AchievementCategory = "internship"
	CategoryPortfolio            AchievementCategory = "portfolio"
	CategoryVenture              AchievementCategory = "venture"
	CategorySelfDevelopment      AchievementCategory = "self_development"
	CategoryOrganization         AchievementCategory = "organization"
	CategoryCertification        AchievementCategory = "certification"
)

// AchievementCategories lists every category in display order.
var AchievementCategories = []AchievementCategory{
	CategoryCompetition,
	CategoryPublication,
	CategoryIntellectualProperty,
	CategoryInternship,
	CategoryPortfolio,
	CategoryVenture,
	CategorySelfDevelopment,
	CategoryOrganization,
	CategoryCertification,
}

// Valid reports whether c is a known category.
func (c AchievementCategory) Valid() bool {
	for _, known := range AchievementCategories {
		if c == known {
			return true
		}
	}
	return false
}

// AchievementDetail is the category-specific payload of an AchievementRecord.
// The set of implementations is closed to this package.
type AchievementDetail interface {
	AchievementCategory() AchievementCategory
	Headline() string
	validate(errs FieldErrors)
}

type CompetitionDetail struct {
	Name      string `json:"name"`
	Organizer string `json:"organizer"`
	Level     string `json:"level"`
	Rank      string `json:"rank"`
	Year      int    `json:"year"`
}

type PublicationDetail struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Journal string   `json:"journal"`
	Year    int      `json:"year"`
	URL     string   `json:"url,omitempty"`
}

type IntellectualPropertyDetail struct {
	Title              string `json:"title"`
	Holder             string `json:"holder"`
	Type               string `json:"type"`
	Status             string `json:"status"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
}

type InternshipDetail struct {
	Company   string `json:"company"`
	Role      string `json:"role"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
}

type PortfolioDetail struct {
	ProjectName string `json:"projectName"`
	Course      string `json:"course"`
	Grade       string `json:"grade,omitempty"`
	Description string `json:"description,omitempty"`
}

type VentureDetail struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartYear int    `json:"startYear,omitempty"`
	Active    bool   `json:"active"`
}

type SelfDevelopmentDetail struct {
	Program   string `json:"program"`
	Organizer string `json:"organizer"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
}

type OrganizationDetail struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	PeriodStart int    `json:"periodStart"`
	PeriodEnd   *int   `json:"periodEnd,omitempty"`
}

type CertificationDetail struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	CredentialID string `json:"credentialId,omitempty"`
	IssuedYear   int    `json:"issuedYear"`
	ExpiresYear  *int   `json:"expiresYear,omitempty"`
}

func (CompetitionDetail) AchievementCategory() AchievementCategory { return CategoryCompetition }
func (PublicationDetail) AchievementCategory() AchievementCategory { return CategoryPublication }
func (IntellectualPropertyDetail) AchievementCategory() AchievementCategory {
	return CategoryIntellectualProperty
}
func (InternshipDetail) AchievementCategory() AchievementCategory      { return CategoryInternship }
func (PortfolioDetail) AchievementCategory() AchievementCategory       { return CategoryPortfolio }
func (VentureDetail) AchievementCategory() AchievementCategory         { return CategoryVenture }
func (SelfDevelopmentDetail) AchievementCategory() AchievementCategory { return CategorySelfDevelopment }
func (OrganizationDetail) AchievementCategory() AchievementCategory    { return CategoryOrganization }
func (CertificationDetail) AchievementCategory() AchievementCategory   { return CategoryCertification }

func (d CompetitionDetail) Headline() string          { return d.Name }
func (d PublicationDetail) Headline() string          { return d.Title }
func (d IntellectualPropertyDetail) Headline() string { return d.Title }
func (d InternshipDetail) Headline() string           { return d.Role + " @ " + d.Company }
func (d PortfolioDetail) Headline() string            { return d.ProjectName }
func (d VentureDetail) Headline() string              { return d.Name }
func (d SelfDevelopmentDetail) Headline() string      { return d.Program }
func (d OrganizationDetail) Headline() string         { return d.Role + " - " + d.Name }
func (d CertificationDetail) Headline() string        { return d.Name }

func (d CompetitionDetail) validate(errs FieldErrors) {
	requireText(errs, "name", d.Name)
	requireText(errs, "organizer", d.Organizer)
	switch strings.ToLower(d.Level) {
	case "international", "national", "regional", "local":
	default:
		errs.Add("level", "level must be one of international, national, regional, local")
	}
	requireText(errs, "rank", d.Rank)
	requireYear(errs, "year", d.Year)
}

func (d PublicationDetail) validate(errs FieldErrors) {
	requireText(errs, "title", d.Title)
	if len(d.Authors) == 0 {
		errs.Add("authors", "authors is required")
	}
	requireText(errs, "journal", d.Journal)
	requireYear(errs, "year", d.Year)
}

func (d IntellectualPropertyDetail) validate(errs FieldErrors) {
	requireText(errs, "title", d.Title)
	requireText(errs, "holder", d.Holder)
	switch d.Type {
	case "patent", "simple_patent", "copyright", "trademark", "industrial_design":
	default:
		errs.Add("type", "type must be one of patent, simple_patent, copyright, trademark, industrial_design")
	}
	switch d.Status {
	case "submitted", "registered", "granted":
	default:
		errs.Add("status", "status must be one of submitted, registered, granted")
	}
}

func (d InternshipDetail) validate(errs FieldErrors) {
	requireText(errs, "company", d.Company)
	requireText(errs, "role", d.Role)
	validateDateRange(errs, d.StartDate, d.EndDate)
}

func (d PortfolioDetail) validate(errs FieldErrors) {
	requireText(errs, "projectName", d.ProjectName)
	requireText(errs, "course", d.Course)
}

func (d VentureDetail) validate(errs FieldErrors) {
	requireText(errs, "name", d.Name)
	requireText(errs, "type", d.Type)
	if d.StartYear != 0 {
		requireYear(errs, "startYear", d.StartYear)
	}
}

func (d SelfDevelopmentDetail) validate(errs FieldErrors) {
	requireText(errs, "program", d.Program)
	requireText(errs, "organizer", d.Organizer)
	validateDateRange(errs, d.StartDate, d.EndDate)
}

func (d OrganizationDetail) validate(errs FieldErrors) {
	requireText(errs, "name", d.Name)
	requireText(errs, "role", d.Role)
	requireYear(errs, "periodStart", d.PeriodStart)
	if d.PeriodEnd != nil && *d.PeriodEnd < d.PeriodStart {
		errs.Add("periodEnd", "periodEnd must not be before periodStart")
	}
}

func (d CertificationDetail) validate(errs FieldErrors) {
	requireText(errs, "name", d.Name)
	requireText(errs, "issuer", d.Issuer)
	requireYear(errs, "issuedYear", d.IssuedYear)
	if d.ExpiresYear != nil && *d.ExpiresYear < d.IssuedYear {
		errs.Add("expiresYear", "expiresYear must not be before issuedYear")
	}
}

// DecodeAchievementDetail parses raw JSON into the payload type selected by category.
func DecodeAchievementDetail(category AchievementCategory, raw []byte) (AchievementDetail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("detail is required for category %q", category)
	}
	var target AchievementDetail
	switch category {
	case CategoryCompetition:
		target = &CompetitionDetail{}
	case CategoryPublication:
		target = &PublicationDetail{}
	case CategoryIntellectualProperty:
		target = &IntellectualPropertyDetail{}
	case CategoryInternship:
		target = &InternshipDetail{}
	case CategoryPortfolio:
		target = &PortfolioDetail{}
	case CategoryVenture:
		target = &VentureDetail{}
	case CategorySelfDevelopment:
		target = &SelfDevelopmentDetail{}
	case CategoryOrganization:
		target = &OrganizationDetail{}
	case CategoryCertification:
		target = &CertificationDetail{}
	default:
		return nil, fmt.Errorf("unknown achievement category %q", category)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode %s detail: %w", category, err)
	}
	return derefAchievementDetail(target), nil
}

// derefAchievementDetail stores details by value so type switches see one shape.
func derefAchievementDetail(d AchievementDetail) AchievementDetail {
	switch v := d.(type) {
	case *CompetitionDetail:
		return *v
	case *PublicationDetail:
		return *v
	case *IntellectualPropertyDetail:
		return *v
	case *InternshipDetail:
		return *v
	case *PortfolioDetail:
		return *v
	case *VentureDetail:
		return *v
	case *SelfDevelopmentDetail:
		return *v
	case *OrganizationDetail:
		return *v
	case *CertificationDetail:
		return *v
	}
	return d
}

// AchievementRecord is one accomplishment owned by a master record.
type AchievementRecord struct {
	ID          string              `json:"id"`
	MasterID    string              `json:"masterId"`
	Category    AchievementCategory `json:"category"`
	Featured    bool                `json:"featured"`
	Detail      AchievementDetail   `json:"detail"`
	Attachments Attachments         `json:"attachments"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// UnmarshalJSON decodes the detail according to the category discriminant.
func (a *AchievementRecord) UnmarshalJSON(data []byte) error {
	type alias AchievementRecord
	aux := struct {
		*alias
		Detail json.RawMessage `json:"detail"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	detail, err := DecodeAchievementDetail(a.Category, aux.Detail)
	if err != nil {
		return err
	}
	a.Detail = detail
	return nil
}

// Validate enforces required fields for the record and its payload.
func (a *AchievementRecord) Validate() FieldErrors {
	errs := FieldErrors{}
	requireText(errs, "masterId", a.MasterID)
	if !a.Category.Valid() {
		errs.Add("category", "category is not supported")
		return errs
	}
	if a.Detail == nil {
		errs.Add("detail", "detail is required")
		return errs
	}
	if a.Detail.AchievementCategory() != a.Category {
		errs.Add("detail", fmt.Sprintf("detail does not match category %s", a.Category))
		return errs
	}
	a.Detail.validate(errs)
	return errs
}

// AchievementStats counts achievements per category. Every category is present.
type AchievementStats map[AchievementCategory]int

// NewAchievementStats returns zero-filled stats.
func NewAchievementStats() AchievementStats {
	stats := make(AchievementStats, len(AchievementCategories))
	for _, c := range AchievementCategories {
		stats[c] = 0
	}
	return stats
}

// CountAchievements groups records by category.
func CountAchievements(records []AchievementRecord) AchievementStats {
	stats := NewAchievementStats()
	for _, r := range records {
		stats[r.Category]++
	}
	return stats
}

// Total sums all categories.
func (s AchievementStats) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}
