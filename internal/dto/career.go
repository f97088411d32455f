package dto

import (
	"encoding/json"

	"github.com/noah-isme/sipal-api/internal/models"
)

// CareerRequest creates a career record for the selected alumnus. Detail is
// decoded according to Status.
type CareerRequest struct {
	Status     models.CareerStatus `json:"status" validate:"required"`
	RecordYear int                 `json:"recordYear" validate:"required"`
	IsCurrent  bool                `json:"isCurrent"`
	Detail     json.RawMessage     `json:"detail" validate:"required"`
}

// CareerPatch is a shallow merge: only non-nil fields replace stored values.
type CareerPatch struct {
	Status     *models.CareerStatus `json:"status"`
	RecordYear *int                 `json:"recordYear"`
	IsCurrent  *bool                `json:"isCurrent"`
	Detail     json.RawMessage      `json:"detail"`
}

// WizardDraft accumulates the career form across steps.
type WizardDraft struct {
	Status     models.CareerStatus `json:"status"`
	RecordYear int                 `json:"recordYear"`
	IsCurrent  bool                `json:"isCurrent"`
	Detail     json.RawMessage     `json:"detail"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
}

// WizardRequest asks the wizard to move from Step.
type WizardRequest struct {
	Step      string      `json:"step"`
	Direction string      `json:"direction"`
	Draft     WizardDraft `json:"draft"`
}

// WizardResponse reports where the wizard is after a transition.
type WizardResponse struct {
	CurrentStep string            `json:"currentStep"`
	Steps       []string          `json:"steps"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// WizardSubmitResponse is returned once the draft is persisted.
type WizardSubmitResponse struct {
	Career models.CareerRecord `json:"career"`
	Master models.MasterRecord `json:"master"`
}
