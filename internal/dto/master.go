package dto

import "github.com/noah-isme/sipal-api/internal/models"

// MasterRequest is the admin payload for creating or replacing a master record.
type MasterRequest struct {
	FullName       string              `json:"fullName" validate:"required"`
	NIM            string              `json:"nim" validate:"required,nim"`
	Department     string              `json:"department" validate:"required"`
	Program        string              `json:"program" validate:"required"`
	EntryYear      int                 `json:"entryYear" validate:"required,min=1950"`
	GraduationYear *int                `json:"graduationYear" validate:"omitempty,min=1950"`
	Status         models.MasterStatus `json:"status" validate:"required,oneof=active alumni on_leave dropout"`
	Email          string              `json:"email" validate:"omitempty,email"`
	Phone          string              `json:"phone" validate:"omitempty,phone_id"`
}

// MasterListQuery captures list query parameters.
type MasterListQuery struct {
	Search         string `form:"search"`
	Department     string `form:"department"`
	Program        string `form:"program"`
	GraduationYear *int   `form:"graduationYear"`
	Status         string `form:"status"`
	Page           int    `form:"page"`
	PageSize       int    `form:"pageSize"`
	SortBy         string `form:"sortBy"`
	SortOrder      string `form:"sortOrder"`
}

// Filter converts the query into a repository filter.
func (q MasterListQuery) Filter() models.MasterFilter {
	return models.MasterFilter{
		Search:         q.Search,
		Department:     q.Department,
		Program:        q.Program,
		GraduationYear: q.GraduationYear,
		Status:         models.MasterStatus(q.Status),
		Page:           q.Page,
		PageSize:       q.PageSize,
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
	}
}

// MasterDeleteResponse reports what a cascading delete removed.
type MasterDeleteResponse struct {
	ID      string               `json:"id"`
	Removed models.CascadeResult `json:"removed"`
}
