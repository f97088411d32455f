package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/service"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
	"github.com/noah-isme/sipal-api/pkg/response"
)

const multipartFilesField = "files"

type achievementService interface {
	List(ctx context.Context, masterID string) ([]models.AchievementRecord, error)
	Stats(ctx context.Context, masterID string) (models.AchievementStats, error)
	Create(ctx context.Context, masterID string, req dto.AchievementRequest) (*models.AchievementRecord, error)
	Update(ctx context.Context, masterID, id string, patch dto.AchievementPatch) (*models.AchievementRecord, error)
	Delete(ctx context.Context, masterID, id string) error
}

type attachmentService interface {
	MaxSize() int64
	Attach(ctx context.Context, masterID, achievementID string, files []service.UploadFile) (*dto.AttachmentUploadResponse, error)
	AttachDataURLs(ctx context.Context, masterID, achievementID string, req dto.AttachmentUploadRequest) (*dto.AttachmentUploadResponse, error)
	Detach(ctx context.Context, masterID, achievementID string, index int) (*models.AchievementRecord, error)
}

// AchievementHandler serves /me/achievements and their attachments.
type AchievementHandler struct {
	achievements achievementService
	attachments  attachmentService
}

// NewAchievementHandler constructs the handler.
func NewAchievementHandler(achievements achievementService, attachments attachmentService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements, attachments: attachments}
}

// List godoc
// @Summary Achievements of the selected alumnus
// @Tags Achievements
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Success 200 {object} response.Envelope
// @Router /me/achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	items, err := h.achievements.List(c.Request.Context(), masterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Stats godoc
// @Summary Achievement count per category
// @Tags Achievements
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Success 200 {object} response.Envelope
// @Router /me/achievements/stats [get]
func (h *AchievementHandler) Stats(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	stats, err := h.achievements.Stats(c.Request.Context(), masterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Create godoc
// @Summary Add an achievement
// @Tags Achievements
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param payload body dto.AchievementRequest true "Achievement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/achievements [post]
func (h *AchievementHandler) Create(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	var req dto.AchievementRequest
	if !bindJSON(c, &req, "invalid achievement payload") {
		return
	}
	record, err := h.achievements.Create(c.Request.Context(), masterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Patch an achievement
// @Tags Achievements
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param id path string true "Achievement ID"
// @Param payload body dto.AchievementPatch true "Achievement patch"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/achievements/{id} [put]
func (h *AchievementHandler) Update(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	var patch dto.AchievementPatch
	if !bindJSON(c, &patch, "invalid achievement patch") {
		return
	}
	record, err := h.achievements.Update(c.Request.Context(), masterID, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Delete godoc
// @Summary Delete an achievement
// @Tags Achievements
// @Param X-Alumni-Session header string true "Selection session id"
// @Param id path string true "Achievement ID"
// @Success 204
// @Router /me/achievements/{id} [delete]
func (h *AchievementHandler) Delete(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	if err := h.achievements.Delete(c.Request.Context(), masterID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Upload godoc
// @Summary Attach evidence files to an achievement
// @Description Accepts multipart "files" or a JSON body of data URLs. Each file is checked on its own and rejected files are listed without aborting the batch.
// @Tags Achievements
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param id path string true "Achievement ID"
// @Param files formData file false "Evidence files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/achievements/{id}/attachments [post]
func (h *AchievementHandler) Upload(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	var (
		res *dto.AttachmentUploadResponse
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		files, readErr := h.readMultipart(c)
		if readErr != nil {
			response.Error(c, readErr)
			return
		}
		res, err = h.attachments.Attach(c.Request.Context(), masterID, c.Param("id"), files)
	} else {
		var req dto.AttachmentUploadRequest
		if !bindJSON(c, &req, "invalid attachment payload") {
			return
		}
		res, err = h.attachments.AttachDataURLs(c.Request.Context(), masterID, c.Param("id"), req)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Detach godoc
// @Summary Remove one attachment
// @Tags Achievements
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param id path string true "Achievement ID"
// @Param index path int true "Attachment index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/achievements/{id}/attachments/{index} [delete]
func (h *AchievementHandler) Detach(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	index, ok := pathIndex(c, "index")
	if !ok {
		return
	}
	record, err := h.attachments.Detach(c.Request.Context(), masterID, c.Param("id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// readMultipart reads at most one byte past the per-file limit so oversized
// files are detected without buffering them whole.
func (h *AchievementHandler) readMultipart(c *gin.Context) ([]service.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart payload")
	}
	headers := form.File[multipartFilesField]
	if len(headers) == 0 {
		return nil, appErrors.FieldError(multipartFilesField, "at least one file is required")
	}
	limit := h.attachments.MaxSize() + 1
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		file := service.UploadFile{FileName: fh.Filename, Size: fh.Size}
		if f, err := fh.Open(); err == nil {
			file.Data = readUpload(f, limit)
			_ = f.Close()
		}
		files = append(files, file)
	}
	return files, nil
}

// readUpload returns nil when the part cannot be read in full so the
// attachment service rejects it as unreadable instead of sniffing a prefix.
func readUpload(r io.Reader, limit int64) []byte {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil
	}
	return data
}
