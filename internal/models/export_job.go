package models

import "time"

// ExportFormat enumerates export renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks an asynchronous export.
type ExportStatus string

const (
	ExportStatusQueued   ExportStatus = "queued"
	ExportStatusRunning  ExportStatus = "running"
	ExportStatusFinished ExportStatus = "finished"
	ExportStatusFailed   ExportStatus = "failed"
)

// AlumniFilter narrows dashboard aggregation and exports.
type AlumniFilter struct {
	Department     string `json:"department,omitempty" form:"department"`
	Program        string `json:"program,omitempty" form:"program"`
	GraduationYear *int   `json:"graduationYear,omitempty" form:"graduationYear"`
}

// MasterFilter converts the alumni filter into an unpaged master filter.
func (f AlumniFilter) MasterFilter() MasterFilter {
	return MasterFilter{Department: f.Department, Program: f.Program, GraduationYear: f.GraduationYear}
}

// ExportJob is an asynchronous export request.
type ExportJob struct {
	ID          string       `json:"id"`
	Format      ExportFormat `json:"format"`
	Filter      AlumniFilter `json:"filter"`
	Status      ExportStatus `json:"status"`
	RequestedBy string       `json:"requestedBy"`
	ResultPath  string       `json:"-"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	FinishedAt  *time.Time   `json:"finishedAt,omitempty"`
}
