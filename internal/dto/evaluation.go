package dto

import "github.com/noah-isme/sipal-api/internal/models"

// EvaluationRequest is the public employer satisfaction form.
type EvaluationRequest struct {
	StudentID         string         `json:"studentId" validate:"required"`
	EvaluatorName     string         `json:"evaluatorName" validate:"required"`
	EvaluatorPosition string         `json:"evaluatorPosition" validate:"required"`
	EvaluatorEmail    string         `json:"evaluatorEmail" validate:"required,email"`
	CompanyName       string         `json:"companyName" validate:"required"`
	Ratings           models.Ratings `json:"ratings"`
	Feedback          string         `json:"feedback" validate:"max=2000"`
}

// EvaluationListQuery captures list query parameters.
type EvaluationListQuery struct {
	StudentID string `form:"studentId"`
	Program   string `form:"program"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
