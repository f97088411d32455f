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

type achievementRepository interface {
	ListByMasterID(ctx context.Context, masterID string) ([]models.AchievementRecord, error)
	FindByID(ctx context.Context, id string) (*models.AchievementRecord, error)
	Create(ctx context.Context, record *models.AchievementRecord) error
	Update(ctx context.Context, record *models.AchievementRecord) error
	Delete(ctx context.Context, id string) error
	StatsByMasterID(ctx context.Context, masterID string) (models.AchievementStats, error)
	AppendAttachments(ctx context.Context, id string, atts models.Attachments, maxCount int) (*models.AchievementRecord, int, error)
	RemoveAttachment(ctx context.Context, id string, index int) (*models.AchievementRecord, error)
}

// AchievementService manages achievements of the selected alumnus.
type AchievementService struct {
	repo      achievementRepository
	masters   masterReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAchievementService constructs the achievement service.
func NewAchievementService(repo achievementRepository, masters masterReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AchievementService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AchievementService{repo: repo, masters: masters, cache: cache, validator: validate, logger: logger}
}

// List returns achievements in creation order.
func (s *AchievementService) List(ctx context.Context, masterID string) ([]models.AchievementRecord, error) {
	records, err := s.repo.ListByMasterID(ctx, masterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list achievements")
	}
	return records, nil
}

// Stats counts achievements per category with every category present.
func (s *AchievementService) Stats(ctx context.Context, masterID string) (models.AchievementStats, error) {
	stats, err := s.repo.StatsByMasterID(ctx, masterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count achievements")
	}
	return stats, nil
}

// Get loads one achievement owned by masterID.
func (s *AchievementService) Get(ctx context.Context, masterID, id string) (*models.AchievementRecord, error) {
	return s.owned(ctx, masterID, id)
}

// Create decodes the category specific detail and stores the achievement.
func (s *AchievementService) Create(ctx context.Context, masterID string, req dto.AchievementRequest) (*models.AchievementRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid achievement payload")
	}
	detail, err := decodeAchievementDetail(req.Category, req.Detail)
	if err != nil {
		return nil, err
	}
	record := &models.AchievementRecord{
		MasterID:    masterID,
		Category:    req.Category,
		Featured:    req.Featured,
		Detail:      detail,
		Attachments: models.Attachments{},
	}
	if errs := record.Validate(); !errs.Empty() {
		return nil, invalidFields("invalid achievement payload", errs)
	}
	if _, err := s.masters.FindByID(ctx, masterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create achievement")
	}
	s.cache.InvalidateDashboards(ctx)
	return record, nil
}

// Update replaces the featured flag and/or the detail. The category is fixed.
func (s *AchievementService) Update(ctx context.Context, masterID, id string, patch dto.AchievementPatch) (*models.AchievementRecord, error) {
	record, err := s.owned(ctx, masterID, id)
	if err != nil {
		return nil, err
	}
	if patch.Featured != nil {
		record.Featured = *patch.Featured
	}
	if len(patch.Detail) > 0 {
		detail, err := decodeAchievementDetail(record.Category, patch.Detail)
		if err != nil {
			return nil, err
		}
		record.Detail = detail
	}
	if errs := record.Validate(); !errs.Empty() {
		return nil, invalidFields("invalid achievement payload", errs)
	}
	if err := s.save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes an achievement together with its attachments.
func (s *AchievementService) Delete(ctx context.Context, masterID, id string) error {
	if _, err := s.owned(ctx, masterID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete achievement")
	}
	s.cache.InvalidateDashboards(ctx)
	return nil
}

func (s *AchievementService) save(ctx context.Context, record *models.AchievementRecord) error {
	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update achievement")
	}
	s.cache.InvalidateDashboards(ctx)
	return nil
}

// appendAttachments adds atts to an owned achievement atomically and reports
// how many fit under maxCount.
func (s *AchievementService) appendAttachments(ctx context.Context, masterID, id string, atts models.Attachments, maxCount int) (*models.AchievementRecord, int, error) {
	if _, err := s.owned(ctx, masterID, id); err != nil {
		return nil, 0, err
	}
	record, added, err := s.repo.AppendAttachments(ctx, id, atts, maxCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachments")
	}
	s.cache.InvalidateDashboards(ctx)
	return record, added, nil
}

func (s *AchievementService) removeAttachment(ctx context.Context, masterID, id string, index int) (*models.AchievementRecord, error) {
	if _, err := s.owned(ctx, masterID, id); err != nil {
		return nil, err
	}
	record, err := s.repo.RemoveAttachment(ctx, id, index)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAttachmentNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove attachment")
	}
	s.cache.InvalidateDashboards(ctx)
	return record, nil
}

func (s *AchievementService) owned(ctx context.Context, masterID, id string) (*models.AchievementRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievement")
	}
	if record.MasterID != masterID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "achievement not found")
	}
	return record, nil
}

func decodeAchievementDetail(category models.AchievementCategory, raw json.RawMessage) (models.AchievementDetail, error) {
	if !category.Valid() {
		return nil, appErrors.FieldError("category", "category is not supported")
	}
	detail, err := models.DecodeAchievementDetail(category, raw)
	if err != nil {
		return nil, appErrors.FieldError("detail", err.Error())
	}
	return detail, nil
}
