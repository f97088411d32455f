package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
	"github.com/noah-isme/sipal-api/pkg/export"
	"github.com/noah-isme/sipal-api/pkg/jobs"
	"github.com/noah-isme/sipal-api/pkg/storage"
)

type alumniSource interface {
	ListAll(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, error)
}

type careerSource interface {
	ListAll(ctx context.Context) ([]models.CareerRecord, error)
}

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	Get(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, job *models.ExportJob) error
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadSeekCloser, os.FileInfo, error)
	CleanupOlderThan(now time.Time, ttl time.Duration) ([]string, error)
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(table export.Table) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	Workers         int
	MaxRetries      int
	RetryDelay      time.Duration
	CleanupInterval time.Duration
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Masters   alumniSource
	Careers   careerSource
	Jobs      exportJobStore
	Storage   fileStorage
	Signer    *storage.SignedURLSigner
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    ExportConfig
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportDownload is a stored export resolved from a signed token.
type ExportDownload struct {
	File        io.ReadSeekCloser
	Info        os.FileInfo
	Filename    string
	ContentType string
}

// ExportService renders alumni exports inline or through the background queue.
type ExportService struct {
	masters   alumniSource
	careers   careerSource
	jobs      exportJobStore
	storage   fileStorage
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	renderers map[models.ExportFormat]tableRenderer
	queue     *jobs.Queue[string]
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService and its worker queue.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 30 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	s := &ExportService{
		masters:   params.Masters,
		careers:   params.Careers,
		jobs:      params.Jobs,
		storage:   params.Storage,
		signer:    params.Signer,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		renderers: map[models.ExportFormat]tableRenderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		cfg: cfg,
		now: time.Now,
	}
	s.queue = jobs.NewQueue[string]("exports", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	s.queue.OnExhausted(s.markFailed)
	return s
}

// Start launches the export workers and the expired file sweeper.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Render builds the export synchronously.
func (s *ExportService) Render(ctx context.Context, format models.ExportFormat, filter models.AlumniFilter) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.FieldError("format", "format must be one of csv, pdf")
	}
	data, err := s.render(ctx, renderer, filter)
	if err != nil {
		s.metrics.RecordExport(format, models.ExportStatusFailed)
		return nil, err
	}
	s.metrics.RecordExport(format, models.ExportStatusFinished)
	return &ExportFile{
		Filename:    exportFilename(filter, s.now(), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// CreateJob records and enqueues an asynchronous export.
func (s *ExportService) CreateJob(ctx context.Context, req dto.ExportRequest, requestedBy string) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(err, "invalid export request")
	}
	job := &models.ExportJob{
		Format:      req.Format,
		Filter:      req.Filter,
		Status:      models.ExportStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job[string]{ID: job.ID, Payload: job.ID}); err != nil {
		s.fail(ctx, job, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.metrics.RecordExport(job.Format, models.ExportStatusQueued)
	s.logger.Info("export job queued", zap.String("job_id", job.ID), zap.String("format", string(job.Format)))
	return &dto.ExportJobResponse{Job: *job}, nil
}

// Status reports job progress with a signed download link once finished.
func (s *ExportService) Status(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	resp := &dto.ExportJobResponse{Job: *job}
	if job.Status != models.ExportStatusFinished {
		return resp, nil
	}
	token, expiresAt, err := s.signer.Sign(job.ID, job.ResultPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	resp.DownloadURL = strings.TrimRight(s.cfg.APIPrefix, "/") + "/exports/" + token
	resp.ExpiresAt = &expiresAt
	return resp, nil
}

// ResolveDownload verifies token and opens the referenced file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobs.Get(ctx, claims.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished || job.ResultPath != claims.Path {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token does not match export")
	}
	file, info, err := s.storage.Open(job.ResultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:        file,
		Info:        info,
		Filename:    path.Base(job.ResultPath),
		ContentType: s.renderers[job.Format].ContentType(),
	}, nil
}

// Cleanup deletes export files older than the signed link lifetime.
func (s *ExportService) Cleanup() []string {
	removed, err := s.storage.CleanupOlderThan(s.now(), s.signer.TTL())
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return nil
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed
}

func (s *ExportService) handle(ctx context.Context, queued jobs.Job[string]) error {
	job, err := s.jobs.Get(ctx, queued.Payload)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.Payload, err)
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return fmt.Errorf("unsupported export format %q", job.Format)
	}
	job.Status = models.ExportStatusRunning
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}

	data, err := s.render(ctx, renderer, job.Filter)
	if err != nil {
		return err
	}
	name := path.Join(job.ID, exportFilename(job.Filter, job.CreatedAt, renderer.Extension()))
	stored, err := s.storage.Save(name, data)
	if err != nil {
		return fmt.Errorf("store export: %w", err)
	}

	finished := s.now().UTC()
	job.Status = models.ExportStatusFinished
	job.ResultPath = stored
	job.Error = ""
	job.FinishedAt = &finished
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	s.metrics.RecordExport(job.Format, models.ExportStatusFinished)
	s.logger.Info("export job finished", zap.String("job_id", job.ID), zap.Int("bytes", len(data)))
	return nil
}

func (s *ExportService) markFailed(ctx context.Context, queued jobs.Job[string], cause error) {
	job, err := s.jobs.Get(ctx, queued.Payload)
	if err != nil {
		s.logger.Warn("failed to load exhausted export job", zap.String("job_id", queued.Payload), zap.Error(err))
		return
	}
	s.fail(ctx, job, cause)
}

func (s *ExportService) fail(ctx context.Context, job *models.ExportJob, cause error) {
	finished := s.now().UTC()
	job.Status = models.ExportStatusFailed
	job.Error = cause.Error()
	job.FinishedAt = &finished
	if err := s.jobs.Update(ctx, job); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.RecordExport(job.Format, models.ExportStatusFailed)
}

func (s *ExportService) render(ctx context.Context, renderer tableRenderer, filter models.AlumniFilter) ([]byte, error) {
	masters, err := s.masters.ListAll(ctx, filter.MasterFilter())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master records")
	}
	careers, err := s.careers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load careers")
	}
	table := export.Table{
		Title:   exportTitle(filter),
		Headers: AlumniExportHeaders,
		Rows:    AlumniRows(masters, CurrentCareers(careers)),
	}
	data, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return data, nil
}

func exportTitle(filter models.AlumniFilter) string {
	parts := []string{"Data Alumni"}
	if filter.Department != "" {
		parts = append(parts, filter.Department)
	}
	if filter.Program != "" {
		parts = append(parts, filter.Program)
	}
	if filter.GraduationYear != nil {
		parts = append(parts, "Lulusan "+strconv.Itoa(*filter.GraduationYear))
	}
	return strings.Join(parts, " - ")
}

func exportFilename(filter models.AlumniFilter, at time.Time, ext string) string {
	name := "data-alumni"
	if filter.GraduationYear != nil {
		name += "-" + strconv.Itoa(*filter.GraduationYear)
	}
	return fmt.Sprintf("%s-%s.%s", name, at.UTC().Format("20060102-150405"), ext)
}
