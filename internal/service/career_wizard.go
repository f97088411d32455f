package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

// WizardStep names one page of the career form.
type WizardStep string

const (
	StepStatus  WizardStep = "status"
	StepDetails WizardStep = "details"
	StepContact WizardStep = "contact"
	StepConfirm WizardStep = "confirm"
)

// WizardSteps is the fixed step order.
var WizardSteps = []WizardStep{StepStatus, StepDetails, StepContact, StepConfirm}

const wizardBack = "back"

// Wizard is the career form state machine. It never touches a store.
type Wizard struct {
	index int
	draft dto.WizardDraft
}

// NewWizard starts at the status step with an empty draft.
func NewWizard() *Wizard {
	return &Wizard{}
}

// ResumeWizard rebuilds a wizard positioned at step. An empty step means the first.
func ResumeWizard(step string, draft dto.WizardDraft) (*Wizard, error) {
	if step == "" {
		return &Wizard{draft: draft}, nil
	}
	for i, s := range WizardSteps {
		if string(s) == step {
			return &Wizard{index: i, draft: draft}, nil
		}
	}
	return nil, appErrors.FieldError("step", "step must be one of status, details, contact, confirm")
}

// CurrentStep reports the active step.
func (w *Wizard) CurrentStep() WizardStep {
	return WizardSteps[w.index]
}

// Draft returns the accumulated form values.
func (w *Wizard) Draft() dto.WizardDraft {
	return w.draft
}

// Next validates the current step and advances on success. On failure the
// step is unchanged and the violations are returned.
func (w *Wizard) Next() models.FieldErrors {
	errs := w.validateStep(w.CurrentStep())
	if !errs.Empty() {
		return errs
	}
	if w.index < len(WizardSteps)-1 {
		w.index++
	}
	return nil
}

// Back moves one step back, stopping at status.
func (w *Wizard) Back() {
	if w.index > 0 {
		w.index--
	}
}

// Record validates every step and builds the career for masterID.
func (w *Wizard) Record(masterID string) (*models.CareerRecord, models.FieldErrors) {
	errs := models.FieldErrors{}
	for _, step := range WizardSteps {
		for field, msg := range w.validateStep(step) {
			errs.Add(field, msg)
		}
	}
	if !errs.Empty() {
		return nil, errs
	}
	record, _ := w.career(masterID)
	return record, nil
}

func (w *Wizard) validateStep(step WizardStep) models.FieldErrors {
	errs := models.FieldErrors{}
	switch step {
	case StepStatus:
		if !w.draft.Status.Valid() {
			errs.Add("status", "status must be one of working, entrepreneur, studying, searching")
		}
		if w.draft.RecordYear == 0 {
			errs.Add("recordYear", "recordYear is required")
		}
	case StepDetails:
		_, detailErrs := w.career("draft")
		for field, msg := range detailErrs {
			errs.Add(field, msg)
		}
	case StepContact:
		email := strings.TrimSpace(w.draft.Email)
		if email == "" {
			errs.Add("email", "email is required")
		} else if !models.ValidEmail(email) {
			errs.Add("email", "email is not valid")
		}
		if phone := strings.TrimSpace(w.draft.Phone); phone != "" && !models.ValidPhone(phone) {
			errs.Add("phone", "phone must contain 9 to 15 digits")
		}
	}
	return errs
}

func (w *Wizard) career(masterID string) (*models.CareerRecord, models.FieldErrors) {
	errs := models.FieldErrors{}
	if !w.draft.Status.Valid() {
		errs.Add("status", "status must be one of working, entrepreneur, studying, searching")
		return nil, errs
	}
	detail, err := models.DecodeCareerDetail(w.draft.Status, w.draft.Detail)
	if err != nil {
		errs.Add("detail", err.Error())
		return nil, errs
	}
	record := &models.CareerRecord{
		MasterID:   masterID,
		Status:     w.draft.Status,
		RecordYear: w.draft.RecordYear,
		IsCurrent:  w.draft.IsCurrent,
		Detail:     detail,
	}
	if errs := record.Validate(); !errs.Empty() {
		return nil, errs
	}
	return record, nil
}

type masterWriter interface {
	FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
	Update(ctx context.Context, record *models.MasterRecord) error
}

// WizardService exposes the stateless wizard over HTTP.
type WizardService struct {
	careers *CareerService
	masters masterWriter
	logger  *zap.Logger
}

// NewWizardService constructs the wizard service.
func NewWizardService(careers *CareerService, masters masterWriter, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{careers: careers, masters: masters, logger: logger}
}

// Advance applies one transition. Validation failures are reported in the
// response and leave the step unchanged.
func (s *WizardService) Advance(req dto.WizardRequest) (*dto.WizardResponse, error) {
	wizard, err := ResumeWizard(req.Step, req.Draft)
	if err != nil {
		return nil, err
	}
	var errs models.FieldErrors
	if strings.EqualFold(req.Direction, wizardBack) {
		wizard.Back()
	} else {
		errs = wizard.Next()
	}
	return newWizardResponse(wizard, errs), nil
}

// Submit persists the draft. It is only accepted from the confirm step.
func (s *WizardService) Submit(ctx context.Context, masterID string, req dto.WizardRequest) (*dto.WizardSubmitResponse, error) {
	wizard, err := ResumeWizard(req.Step, req.Draft)
	if err != nil {
		return nil, err
	}
	if wizard.CurrentStep() != StepConfirm {
		return nil, appErrors.FieldError("step", "the form can only be submitted from the confirm step")
	}
	record, errs := wizard.Record(masterID)
	if !errs.Empty() {
		return nil, invalidFields("career form is incomplete", errs)
	}

	master, err := s.masters.FindByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}

	previous := *master
	draft := wizard.Draft()
	master.Email = strings.TrimSpace(draft.Email)
	if phone := strings.TrimSpace(draft.Phone); phone != "" {
		master.Phone = phone
	}
	if err := s.masters.Update(ctx, master); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contact details")
	}

	if err := s.careers.CreateRecord(ctx, record); err != nil {
		if restoreErr := s.masters.Update(ctx, &previous); restoreErr != nil {
			s.logger.Error("failed to restore master contact after wizard submit",
				zap.String("master_id", masterID), zap.Error(restoreErr))
		}
		return nil, err
	}

	s.logger.Info("career wizard submitted", zap.String("master_id", masterID), zap.String("career_id", record.ID))
	return &dto.WizardSubmitResponse{Career: *record, Master: *master}, nil
}

func newWizardResponse(w *Wizard, errs models.FieldErrors) *dto.WizardResponse {
	steps := make([]string, len(WizardSteps))
	for i, s := range WizardSteps {
		steps[i] = string(s)
	}
	resp := &dto.WizardResponse{CurrentStep: string(w.CurrentStep()), Steps: steps}
	if !errs.Empty() {
		resp.Errors = errs
	}
	return resp
}
