package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/service"
	"github.com/noah-isme/sipal-api/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, format models.ExportFormat, filter models.AlumniFilter) (*service.ExportFile, error)
	CreateJob(ctx context.Context, req dto.ExportRequest, requestedBy string) (*dto.ExportJobResponse, error)
	Status(ctx context.Context, id string) (*dto.ExportJobResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler serves synchronous and queued alumni exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Alumni godoc
// @Summary Download the alumni table
// @Description Columns Nama, NIM, Jurusan, Prodi, Tahun Lulus, Status, Email, No HP.
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param department query string false "Department"
// @Param program query string false "Study program"
// @Param graduationYear query int false "Graduation year"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/alumni/export [get]
func (h *ExportHandler) Alumni(c *gin.Context) {
	var filter models.AlumniFilter
	if !bindQuery(c, &filter) {
		return
	}
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
	file, err := h.service.Render(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.DataFromReader(http.StatusOK, int64(len(file.Data)), file.ContentType, bytes.NewReader(file.Data), nil)
}

// CreateJob godoc
// @Summary Queue an alumni export
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/exports [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	var req dto.ExportRequest
	if !bindJSON(c, &req, "invalid export request") {
		return
	}
	res, err := h.service.CreateJob(c.Request.Context(), req, adminID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res, nil)
}

// Status godoc
// @Summary Export job status
// @Description Finished jobs carry a signed, expiring downloadUrl.
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	res, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Download godoc
// @Summary Download a finished export through its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.DataFromReader(http.StatusOK, download.Info.Size(), download.ContentType, download.File, nil)
}
