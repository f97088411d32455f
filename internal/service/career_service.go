package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

type careerRepository interface {
	ListByMasterID(ctx context.Context, masterID string) ([]models.CareerRecord, error)
	FindByID(ctx context.Context, id string) (*models.CareerRecord, error)
	Create(ctx context.Context, record *models.CareerRecord) error
	Update(ctx context.Context, record *models.CareerRecord) error
	Delete(ctx context.Context, id string) error
}

type masterReader interface {
	FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
}

// CareerService manages the career history of the selected alumnus. Every
// write re-validates the full record, including cross-field rules.
type CareerService struct {
	repo      careerRepository
	masters   masterReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCareerService constructs the career service.
func NewCareerService(repo careerRepository, masters masterReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CareerService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CareerService{repo: repo, masters: masters, cache: cache, validator: validate, logger: logger}
}

// List returns the career history ordered by record year.
func (s *CareerService) List(ctx context.Context, masterID string) ([]models.CareerRecord, error) {
	records, err := s.repo.ListByMasterID(ctx, masterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list careers")
	}
	models.SortCareers(records)
	return records, nil
}

// Current returns the career shown in summaries, or nil when there is none.
func (s *CareerService) Current(ctx context.Context, masterID string) (*models.CareerRecord, error) {
	records, err := s.List(ctx, masterID)
	if err != nil {
		return nil, err
	}
	return models.CurrentCareer(records), nil
}

// Create decodes and validates req and stores it for masterID.
func (s *CareerService) Create(ctx context.Context, masterID string, req dto.CareerRequest) (*models.CareerRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid career payload")
	}
	detail, err := decodeCareerDetail(req.Status, req.Detail)
	if err != nil {
		return nil, err
	}
	record := &models.CareerRecord{
		MasterID:   masterID,
		Status:     req.Status,
		RecordYear: req.RecordYear,
		IsCurrent:  req.IsCurrent,
		Detail:     detail,
	}
	return record, s.CreateRecord(ctx, record)
}

// CreateRecord stores an already decoded record after validation.
func (s *CareerService) CreateRecord(ctx context.Context, record *models.CareerRecord) error {
	if errs := record.Validate(); !errs.Empty() {
		return invalidFields("invalid career payload", errs)
	}
	if _, err := s.masters.FindByID(ctx, record.MasterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create career")
	}
	if record.IsCurrent {
		s.clearOtherCurrent(ctx, record)
	}
	s.cache.InvalidateDashboards(ctx)
	return nil
}

// Update merges patch into the stored record shallowly and re-validates the result.
func (s *CareerService) Update(ctx context.Context, masterID, id string, patch dto.CareerPatch) (*models.CareerRecord, error) {
	record, err := s.owned(ctx, masterID, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		record.Status = *patch.Status
	}
	if patch.RecordYear != nil {
		record.RecordYear = *patch.RecordYear
	}
	if patch.IsCurrent != nil {
		record.IsCurrent = *patch.IsCurrent
	}
	if len(patch.Detail) > 0 {
		detail, err := decodeCareerDetail(record.Status, patch.Detail)
		if err != nil {
			return nil, err
		}
		record.Detail = detail
	}
	if errs := record.Validate(); !errs.Empty() {
		return nil, invalidFields("invalid career payload", errs)
	}
	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update career")
	}
	if record.IsCurrent {
		s.clearOtherCurrent(ctx, record)
	}
	s.cache.InvalidateDashboards(ctx)
	return record, nil
}

// Delete removes one career record owned by masterID.
func (s *CareerService) Delete(ctx context.Context, masterID, id string) error {
	if _, err := s.owned(ctx, masterID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "career not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete career")
	}
	s.cache.InvalidateDashboards(ctx)
	return nil
}

func (s *CareerService) owned(ctx context.Context, masterID, id string) (*models.CareerRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load career")
	}
	if record.MasterID != masterID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "career not found")
	}
	return record, nil
}

// clearOtherCurrent keeps at most one record per master flagged current.
func (s *CareerService) clearOtherCurrent(ctx context.Context, current *models.CareerRecord) {
	records, err := s.repo.ListByMasterID(ctx, current.MasterID)
	if err != nil {
		s.logger.Warn("failed to load careers for current flag", zap.String("master_id", current.MasterID), zap.Error(err))
		return
	}
	for i := range records {
		if records[i].ID == current.ID || !records[i].IsCurrent {
			continue
		}
		records[i].IsCurrent = false
		if err := s.repo.Update(ctx, &records[i]); err != nil {
			s.logger.Warn("failed to clear current flag", zap.String("career_id", records[i].ID), zap.Error(err))
		}
	}
}

func decodeCareerDetail(status models.CareerStatus, raw json.RawMessage) (models.CareerDetail, error) {
	if !status.Valid() {
		return nil, appErrors.FieldError("status", "status must be one of working, entrepreneur, studying, searching")
	}
	detail, err := models.DecodeCareerDetail(status, raw)
	if err != nil {
		return nil, appErrors.FieldError("detail", err.Error())
	}
	return detail, nil
}
