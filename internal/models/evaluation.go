package models

import "time"

// StudentSnapshot is a denormalised copy of a master record taken when an
// evaluation is submitted. Later master edits do not affect it.
type StudentSnapshot struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	NIM            string `json:"nim"`
	Program        string `json:"program"`
	GraduationYear *int   `json:"graduationYear,omitempty"`
}

// Ratings holds the five 1-5 star scores of an employer evaluation.
type Ratings struct {
	TechnicalCompetence int `json:"technicalCompetence" validate:"min=1,max=5"`
	WorkEthic           int `json:"workEthic" validate:"min=1,max=5"`
	Communication       int `json:"communication" validate:"min=1,max=5"`
	Initiative          int `json:"initiative" validate:"min=1,max=5"`
	Overall             int `json:"overall" validate:"min=1,max=5"`
}

// EvaluationSubmission is an unauthenticated employer satisfaction rating.
type EvaluationSubmission struct {
	ID                string          `json:"id"`
	Student           StudentSnapshot `json:"student"`
	EvaluatorName     string          `json:"evaluatorName"`
	EvaluatorPosition string          `json:"evaluatorPosition"`
	EvaluatorEmail    string          `json:"evaluatorEmail"`
	CompanyName       string          `json:"companyName"`
	Ratings           Ratings         `json:"ratings"`
	Feedback          string          `json:"feedback"`
	SubmittedAt       time.Time       `json:"submittedAt"`
}

// EvaluationFilter narrows evaluation listings.
type EvaluationFilter struct {
	StudentID string
	Program   string
	Page      int
	PageSize  int
}

// EvaluationSummary averages every rating category.
type EvaluationSummary struct {
	Count               int     `json:"count"`
	TechnicalCompetence float64 `json:"technicalCompetence"`
	WorkEthic           float64 `json:"workEthic"`
	Communication       float64 `json:"communication"`
	Initiative          float64 `json:"initiative"`
	Overall             float64 `json:"overall"`
}
