package dto

import (
	"time"

	"github.com/noah-isme/sipal-api/internal/models"
)

// ExportRequest queues an asynchronous alumni export.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Filter models.AlumniFilter `json:"filter"`
}

// ExportJobResponse reports job status and, once finished, a signed link.
type ExportJobResponse struct {
	Job         models.ExportJob `json:"job"`
	DownloadURL string           `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
}
