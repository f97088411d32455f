package dto

import (
	"encoding/json"

	"github.com/noah-isme/sipal-api/internal/models"
)

// AchievementRequest creates an achievement. Detail is decoded by Category.
type AchievementRequest struct {
	Category models.AchievementCategory `json:"category" validate:"required"`
	Featured bool                       `json:"featured"`
	Detail   json.RawMessage            `json:"detail" validate:"required"`
}

// AchievementPatch replaces only the provided top-level fields.
type AchievementPatch struct {
	Featured *bool           `json:"featured"`
	Detail   json.RawMessage `json:"detail"`
}

// AttachmentPayload is one inline upload given as a data URL.
type AttachmentPayload struct {
	FileName string `json:"fileName" validate:"required"`
	DataURL  string `json:"dataUrl" validate:"required"`
}

// AttachmentUploadRequest is the JSON variant of an attachment batch.
type AttachmentUploadRequest struct {
	Files []AttachmentPayload `json:"files" validate:"required,min=1,dive"`
}

// AttachmentUploadResponse reports a batch outcome. Rejected files never abort
// the rest of the batch.
type AttachmentUploadResponse struct {
	Achievement models.AchievementRecord     `json:"achievement"`
	Accepted    []models.Attachment          `json:"accepted"`
	Rejected    []models.AttachmentRejection `json:"rejected"`
}
