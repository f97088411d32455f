package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

type evaluationRepository interface {
	Create(ctx context.Context, e *models.EvaluationSubmission) error
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSubmission, int, error)
	Summary(ctx context.Context) (models.EvaluationSummary, error)
}

// EvaluationService records employer satisfaction ratings.
type EvaluationService struct {
	repo      evaluationRepository
	masters   masterReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(repo evaluationRepository, masters masterReader, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{repo: repo, masters: masters, validator: validate, logger: logger, now: time.Now}
}

// Submit validates req and stores it with a copy of the evaluated alumnus.
func (s *EvaluationService) Submit(ctx context.Context, req dto.EvaluationRequest) (*models.EvaluationSubmission, error) {
	req.EvaluatorName = strings.TrimSpace(req.EvaluatorName)
	req.EvaluatorPosition = strings.TrimSpace(req.EvaluatorPosition)
	req.EvaluatorEmail = strings.TrimSpace(req.EvaluatorEmail)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Feedback = strings.TrimSpace(req.Feedback)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid evaluation payload")
	}

	master, err := s.masters.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FieldError("studentId", "studentId does not reference a known alumnus")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}

	submission := &models.EvaluationSubmission{
		Student:           master.Snapshot(),
		EvaluatorName:     req.EvaluatorName,
		EvaluatorPosition: req.EvaluatorPosition,
		EvaluatorEmail:    strings.ToLower(req.EvaluatorEmail),
		CompanyName:       req.CompanyName,
		Ratings:           req.Ratings,
		Feedback:          req.Feedback,
		SubmittedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store evaluation")
	}
	s.logger.Info("evaluation submitted", zap.String("evaluation_id", submission.ID), zap.String("student_id", master.ID))
	return submission, nil
}

// List returns submissions newest first.
func (s *EvaluationService) List(ctx context.Context, query dto.EvaluationListQuery) ([]models.EvaluationSubmission, *models.Pagination, error) {
	page, size := models.NormalizePage(query.Page, query.PageSize)
	filter := models.EvaluationFilter{
		StudentID: query.StudentID,
		Program:   strings.TrimSpace(query.Program),
		Page:      page,
		PageSize:  size,
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Summary averages every rating category.
func (s *EvaluationService) Summary(ctx context.Context) (models.EvaluationSummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return models.EvaluationSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise evaluations")
	}
	return summary, nil
}
