package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/pkg/config"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

// UploadFile is one candidate attachment after transport decoding. Size is
// the size the client announced; Data may be truncated past the limit.
type UploadFile struct {
	FileName string
	Size     int64
	Data     []byte
}

// AttachmentService embeds achievement evidence as data URLs.
type AttachmentService struct {
	achievements *AchievementService
	maxCount     int
	maxSize      int64
	allowed      []string
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewAttachmentService constructs the attachment service from its limits.
func NewAttachmentService(achievements *AchievementService, cfg config.AttachmentConfig, metrics *MetricsService, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = 5
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 5 * 1024 * 1024
	}
	return &AttachmentService{
		achievements: achievements,
		maxCount:     cfg.MaxCount,
		maxSize:      cfg.MaxSizeBytes,
		allowed:      cfg.AllowedMIMEs,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// MaxSize reports the per-file limit so transports can bound their reads.
func (s *AttachmentService) MaxSize() int64 {
	return s.maxSize
}

// Attach validates each file on its own. Accepted files are appended to the
// achievement and rejected ones are reported without aborting the batch.
func (s *AttachmentService) Attach(ctx context.Context, masterID, achievementID string, files []UploadFile) (*dto.AttachmentUploadResponse, error) {
	if len(files) == 0 {
		return nil, appErrors.FieldError("files", "at least one file is required")
	}
	record, err := s.achievements.Get(ctx, masterID, achievementID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AttachmentUploadResponse{
		Accepted: []models.Attachment{},
		Rejected: []models.AttachmentRejection{},
	}
	slots := s.maxCount - len(record.Attachments)
	for _, file := range files {
		if slots <= 0 {
			resp.Rejected = append(resp.Rejected, models.AttachmentRejection{
				FileName: file.FileName,
				Reason:   fmt.Sprintf("maximum of %d attachments reached", s.maxCount),
			})
			continue
		}
		attachment, reason := s.accept(file)
		if reason != "" {
			resp.Rejected = append(resp.Rejected, models.AttachmentRejection{FileName: file.FileName, Reason: reason})
			continue
		}
		resp.Accepted = append(resp.Accepted, attachment)
		slots--
	}

	if len(resp.Accepted) > 0 {
		stored, added, err := s.achievements.appendAttachments(ctx, masterID, achievementID, resp.Accepted, s.maxCount)
		if err != nil {
			return nil, err
		}
		// A concurrent upload may have taken the remaining slots.
		for _, late := range resp.Accepted[added:] {
			resp.Rejected = append(resp.Rejected, models.AttachmentRejection{
				FileName: late.FileName,
				Reason:   fmt.Sprintf("maximum of %d attachments reached", s.maxCount),
			})
		}
		resp.Accepted = resp.Accepted[:added]
		record = stored
	}
	s.metrics.RecordAttachments(len(resp.Accepted), len(resp.Rejected))
	s.logger.Info("attachments processed",
		zap.String("achievement_id", achievementID),
		zap.Int("accepted", len(resp.Accepted)),
		zap.Int("rejected", len(resp.Rejected)),
	)
	resp.Achievement = *record
	return resp, nil
}

// AttachDataURLs decodes inline payloads and forwards them to Attach. A
// malformed data URL rejects only that file.
func (s *AttachmentService) AttachDataURLs(ctx context.Context, masterID, achievementID string, req dto.AttachmentUploadRequest) (*dto.AttachmentUploadResponse, error) {
	files := make([]UploadFile, 0, len(req.Files))
	for _, payload := range req.Files {
		data, err := DecodeDataURL(payload.DataURL)
		if err != nil {
			// An undecodable payload is still offered so it shows up as rejected.
			files = append(files, UploadFile{FileName: payload.FileName})
			continue
		}
		files = append(files, UploadFile{FileName: payload.FileName, Size: int64(len(data)), Data: data})
	}
	return s.Attach(ctx, masterID, achievementID, files)
}

// Detach removes the attachment at index.
func (s *AttachmentService) Detach(ctx context.Context, masterID, achievementID string, index int) (*models.AchievementRecord, error) {
	return s.achievements.removeAttachment(ctx, masterID, achievementID, index)
}

func (s *AttachmentService) accept(file UploadFile) (models.Attachment, string) {
	name := strings.TrimSpace(file.FileName)
	if name == "" {
		return models.Attachment{}, "file name is required"
	}
	size := file.Size
	if int64(len(file.Data)) > size {
		size = int64(len(file.Data))
	}
	if size > s.maxSize {
		return models.Attachment{}, fmt.Sprintf("file exceeds the %s limit", humanSize(s.maxSize))
	}
	if len(file.Data) == 0 {
		return models.Attachment{}, "file is empty or unreadable"
	}
	detected := mimetype.Detect(file.Data)
	if !s.allowedType(detected) {
		return models.Attachment{}, fmt.Sprintf("file type %s is not allowed", detected.String())
	}
	fileType := strings.SplitN(detected.String(), ";", 2)[0]
	return models.Attachment{
		FileName:   name,
		FileType:   fileType,
		FileSize:   int64(len(file.Data)),
		FileURL:    EncodeDataURL(fileType, file.Data),
		UploadedAt: s.now().UTC(),
	}, ""
}

func (s *AttachmentService) allowedType(detected *mimetype.MIME) bool {
	if len(s.allowed) == 0 {
		return true
	}
	for _, allowed := range s.allowed {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

// EncodeDataURL renders data as a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL extracts the payload of a base64 data URL. The declared media
// type is ignored; content is sniffed instead.
func DecodeDataURL(raw string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return nil, fmt.Errorf("missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("missing payload separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URLs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return data, nil
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
