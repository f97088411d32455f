package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

type masterRepository interface {
	List(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, int, error)
	ListAll(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, error)
	FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
	FindByNameAndYear(ctx context.Context, name string, year int) ([]models.MasterRecord, error)
	ExistsByNIM(ctx context.Context, nim string, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.MasterRecord) error
	Update(ctx context.Context, record *models.MasterRecord) error
	Delete(ctx context.Context, id string) (models.CascadeResult, error)
}

// MasterService handles admin use-cases over master records.
type MasterService struct {
	repo      masterRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMasterService constructs the master service.
func NewMasterService(repo masterRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MasterService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MasterService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns master records and pagination metadata.
func (s *MasterService) List(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list master records")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one master record.
func (s *MasterService) Get(ctx context.Context, id string) (*models.MasterRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}
	return record, nil
}

// Create registers a master record after validating it and checking NIM uniqueness.
func (s *MasterService) Create(ctx context.Context, req dto.MasterRequest) (*models.MasterRecord, error) {
	record, err := s.prepare(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, models.ErrDuplicateNIM) {
			return nil, nimConflict()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create master record")
	}
	s.cache.InvalidateDashboards(ctx)
	s.logger.Info("master record created", zap.String("master_id", record.ID), zap.String("nim", record.NIM))
	return record, nil
}

// Update replaces a master record. Duplicate NIMs are rejected before any write.
func (s *MasterService) Update(ctx context.Context, id string, req dto.MasterRequest) (*models.MasterRecord, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	record, err := s.prepare(ctx, req, id)
	if err != nil {
		return nil, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		if errors.Is(err, models.ErrDuplicateNIM) {
			return nil, nimConflict()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update master record")
	}
	s.cache.InvalidateDashboards(ctx)
	return record, nil
}

// Delete removes a master record with all of its careers and achievements.
func (s *MasterService) Delete(ctx context.Context, id string) (models.CascadeResult, error) {
	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete master record")
	}
	s.metrics.RecordCascade(result)
	s.cache.InvalidateDashboards(ctx)
	s.logger.Info("master record deleted",
		zap.String("master_id", id),
		zap.Int("careers_removed", result.Careers),
		zap.Int("achievements_removed", result.Achievements),
	)
	return result, nil
}

func (s *MasterService) prepare(ctx context.Context, req dto.MasterRequest, excludeID string) (*models.MasterRecord, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.NIM = strings.TrimSpace(req.NIM)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid master record payload")
	}
	record := &models.MasterRecord{
		FullName:       req.FullName,
		NIM:            req.NIM,
		Department:     strings.TrimSpace(req.Department),
		Program:        strings.TrimSpace(req.Program),
		EntryYear:      req.EntryYear,
		GraduationYear: req.GraduationYear,
		Status:         req.Status,
		Email:          req.Email,
		Phone:          strings.TrimSpace(req.Phone),
	}
	if errs := record.Validate(); !errs.Empty() {
		return nil, invalidFields("invalid master record payload", errs)
	}
	exists, err := s.repo.ExistsByNIM(ctx, record.NIM, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nim")
	}
	if exists {
		return nil, nimConflict()
	}
	return record, nil
}

// nimConflict is returned both by the pre-check and when the store itself
// refuses a duplicate written concurrently.
func nimConflict() error {
	conflict := appErrors.Clone(appErrors.ErrConflict, "nim already used")
	conflict.Fields = map[string]string{"nim": "nim already used"}
	return conflict
}
