package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

func completeDraft() dto.WizardDraft {
	return dto.WizardDraft{
		Status:     models.CareerWorking,
		RecordYear: 2023,
		IsCurrent:  true,
		Detail:     json.RawMessage(workingDetailJSON),
		Email:      "siti@example.com",
		Phone:      "+6281234567890",
	}
}

func TestWizardWalksForwardAndBack(t *testing.T) {
	w, err := ResumeWizard("", completeDraft())
	require.NoError(t, err)
	assert.Equal(t, StepStatus, w.CurrentStep())

	w.Back()
	assert.Equal(t, StepStatus, w.CurrentStep())

	for _, want := range []WizardStep{StepDetails, StepContact, StepConfirm, StepConfirm} {
		require.Empty(t, w.Next())
		assert.Equal(t, want, w.CurrentStep())
	}

	w.Back()
	assert.Equal(t, StepContact, w.CurrentStep())
}

func TestWizardNextFailureKeepsStep(t *testing.T) {
	draft := completeDraft()
	draft.Detail = json.RawMessage(`{"companyName":"PT Maju","jobTitle":"QA","companyLocation":"Bandung","industry":"Teknologi","startYear":2020,"currentlyEmployed":false}`)
	w, err := ResumeWizard(string(StepDetails), draft)
	require.NoError(t, err)

	errs := w.Next()
	assert.Equal(t, "endYear is required when no longer employed", errs["endYear"])
	assert.Equal(t, StepDetails, w.CurrentStep())
}

func TestWizardContactStep(t *testing.T) {
	draft := completeDraft()
	draft.Email = "not-an-email"
	draft.Phone = "12"
	w, err := ResumeWizard(string(StepContact), draft)
	require.NoError(t, err)

	errs := w.Next()
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "phone")
	assert.Equal(t, StepContact, w.CurrentStep())
}

func TestResumeWizardUnknownStep(t *testing.T) {
	_, err := ResumeWizard("review", dto.WizardDraft{})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "step")
}

type untouchableMasters struct{}

func (untouchableMasters) FindByID(context.Context, string) (*models.MasterRecord, error) {
	panic("wizard transitions must not read the store")
}

func (untouchableMasters) Update(context.Context, *models.MasterRecord) error {
	panic("wizard transitions must not write the store")
}

func TestWizardServiceAdvanceNeverTouchesStores(t *testing.T) {
	svc := NewWizardService(nil, untouchableMasters{}, nil)

	resp, err := svc.Advance(dto.WizardRequest{Step: string(StepStatus), Draft: dto.WizardDraft{}})
	require.NoError(t, err)
	assert.Equal(t, string(StepStatus), resp.CurrentStep)
	assert.Contains(t, resp.Errors, "status")
	assert.Contains(t, resp.Errors, "recordYear")
	assert.Equal(t, []string{"status", "details", "contact", "confirm"}, resp.Steps)

	resp, err = svc.Advance(dto.WizardRequest{Step: string(StepDetails), Direction: "back"})
	require.NoError(t, err)
	assert.Equal(t, string(StepStatus), resp.CurrentStep)
	assert.Empty(t, resp.Errors)
}

func TestWizardServiceSubmit(t *testing.T) {
	store := memstore.New()
	master := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	careers := NewCareerService(store.Careers(), store.Masters(), nil, nil, nil)
	svc := NewWizardService(careers, store.Masters(), nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, master.ID, dto.WizardRequest{Step: string(StepContact), Draft: completeDraft()})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "step")

	resp, err := svc.Submit(ctx, master.ID, dto.WizardRequest{Step: string(StepConfirm), Draft: completeDraft()})
	require.NoError(t, err)
	assert.Equal(t, models.CareerWorking, resp.Career.Status)
	assert.Equal(t, "siti@example.com", resp.Master.Email)

	stored, err := store.Masters().FindByID(ctx, master.ID)
	require.NoError(t, err)
	assert.Equal(t, "+6281234567890", stored.Phone)

	records, err := store.Careers().ListByMasterID(ctx, master.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

type failingMasterUpdate struct {
	*memstore.MasterStore
}

func (f failingMasterUpdate) Update(context.Context, *models.MasterRecord) error {
	return errors.New("connection reset")
}

type failingCareerCreate struct {
	*memstore.CareerStore
}

func (f failingCareerCreate) Create(context.Context, *models.CareerRecord) error {
	return errors.New("connection reset")
}

func TestWizardServiceSubmitContactFailureStoresNoCareer(t *testing.T) {
	store := memstore.New()
	master := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	careers := NewCareerService(store.Careers(), store.Masters(), nil, nil, nil)
	svc := NewWizardService(careers, failingMasterUpdate{store.Masters()}, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, master.ID, dto.WizardRequest{Step: string(StepConfirm), Draft: completeDraft()})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))

	records, err := store.Careers().ListByMasterID(ctx, master.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWizardServiceSubmitCareerFailureRestoresContact(t *testing.T) {
	store := memstore.New()
	master := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	careers := NewCareerService(failingCareerCreate{store.Careers()}, store.Masters(), nil, nil, nil)
	svc := NewWizardService(careers, store.Masters(), nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, master.ID, dto.WizardRequest{Step: string(StepConfirm), Draft: completeDraft()})
	require.Error(t, err)

	stored, err := store.Masters().FindByID(ctx, master.ID)
	require.NoError(t, err)
	assert.Equal(t, master.Email, stored.Email)
	assert.Equal(t, master.Phone, stored.Phone)
}

func TestWizardServiceSubmitIncompleteDraft(t *testing.T) {
	store := memstore.New()
	master := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	svc := NewWizardService(NewCareerService(store.Careers(), store.Masters(), nil, nil, nil), store.Masters(), nil)

	draft := completeDraft()
	draft.Email = ""
	_, err := svc.Submit(context.Background(), master.ID, dto.WizardRequest{Step: string(StepConfirm), Draft: draft})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "email")

	records, err := store.Careers().ListByMasterID(context.Background(), master.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
