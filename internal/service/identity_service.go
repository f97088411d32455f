package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

// NotFoundFallback is shown when an identity search has no match.
const NotFoundFallback = "Data alumni tidak ditemukan. Silakan laporkan ke admin program studi agar data Anda diverifikasi."

type identityLookup interface {
	FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
	FindByNameAndYear(ctx context.Context, name string, year int) ([]models.MasterRecord, error)
}

type sessionStore interface {
	Save(ctx context.Context, session models.AlumniSession) error
	Get(ctx context.Context, id string) (*models.AlumniSession, error)
	Delete(ctx context.Context, id string) error
}

// IdentityService performs identity validation and tracks which master record
// a visitor selected. Selection is not authentication.
type IdentityService struct {
	masters   identityLookup
	sessions  sessionStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewIdentityService constructs the identity service.
func NewIdentityService(masters identityLookup, sessions sessionStore, ttl time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *IdentityService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &IdentityService{masters: masters, sessions: sessions, metrics: metrics, validator: validate, logger: logger, ttl: ttl, now: time.Now}
}

// Search looks up master records by name fragment and graduation year. No
// match is a normal outcome carrying the fallback instruction.
func (s *IdentityService) Search(ctx context.Context, req dto.IdentitySearchRequest) (*dto.IdentitySearchResponse, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid identity search")
	}
	records, err := s.masters.FindByNameAndYear(ctx, req.FullName, req.GraduationYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search master records")
	}

	resp := &dto.IdentitySearchResponse{
		Outcome: models.OutcomeFor(len(records)),
		Matches: make([]dto.IdentityMatch, 0, len(records)),
	}
	for _, r := range records {
		resp.Matches = append(resp.Matches, dto.NewIdentityMatch(r))
	}
	if resp.Outcome == models.IdentityNotFound {
		resp.Fallback = NotFoundFallback
	}
	s.metrics.RecordIdentitySearch(resp.Outcome)
	return resp, nil
}

// Select binds a new session to the chosen master record. The record must be
// one of the matches for the same name and year.
func (s *IdentityService) Select(ctx context.Context, req dto.IdentitySelectRequest) (*dto.SessionResponse, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid identity selection")
	}
	records, err := s.masters.FindByNameAndYear(ctx, req.FullName, req.GraduationYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search master records")
	}
	var chosen *models.MasterRecord
	for i := range records {
		if records[i].ID == req.MasterID {
			chosen = &records[i]
			break
		}
	}
	if chosen == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "selected record does not match the search")
	}

	now := s.now().UTC()
	session := models.AlumniSession{
		ID:        uuid.NewString(),
		MasterID:  chosen.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store selection")
	}
	s.logger.Info("alumni identity selected", zap.String("master_id", chosen.ID))
	return &dto.SessionResponse{SessionID: session.ID, ExpiresAt: session.ExpiresAt, Master: *chosen}, nil
}

// Current resolves a session id to its master record. Missing, expired or
// dangling selections yield SELECTION_REQUIRED.
func (s *IdentityService) Current(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, selectionRequired()
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, selectionRequired()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	master, err := s.masters.FindByID(ctx, session.MasterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = s.sessions.Delete(ctx, sessionID)
			return nil, selectionRequired()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}
	return &dto.SessionResponse{SessionID: session.ID, ExpiresAt: session.ExpiresAt, Master: *master}, nil
}

// Clear forgets a selection.
func (s *IdentityService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear selection")
	}
	return nil
}

func selectionRequired() error {
	err := appErrors.Clone(appErrors.ErrSelectionRequired, "")
	err.Details = map[string]string{"redirect": "/validasi"}
	return err
}
