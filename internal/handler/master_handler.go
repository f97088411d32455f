package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/pkg/response"
)

type masterService interface {
	List(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.MasterRecord, error)
	Create(ctx context.Context, req dto.MasterRequest) (*models.MasterRecord, error)
	Update(ctx context.Context, id string, req dto.MasterRequest) (*models.MasterRecord, error)
	Delete(ctx context.Context, id string) (models.CascadeResult, error)
}

// MasterHandler exposes admin CRUD over master records.
type MasterHandler struct {
	service masterService
}

// NewMasterHandler constructs the handler.
func NewMasterHandler(svc masterService) *MasterHandler {
	return &MasterHandler{service: svc}
}

// List godoc
// @Summary List master records
// @Tags Masters
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or NIM fragment"
// @Param department query string false "Department"
// @Param program query string false "Study program"
// @Param graduationYear query int false "Graduation year"
// @Param status query string false "active, alumni, on_leave or dropout"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /admin/masters [get]
func (h *MasterHandler) List(c *gin.Context) {
	var query dto.MasterListQuery
	if !bindQuery(c, &query) {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a master record
// @Tags Masters
// @Produce json
// @Security BearerAuth
// @Param id path string true "Master ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/masters/{id} [get]
func (h *MasterHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Create godoc
// @Summary Create a master record
// @Tags Masters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.MasterRequest true "Master payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/masters [post]
func (h *MasterHandler) Create(c *gin.Context) {
	var req dto.MasterRequest
	if !bindJSON(c, &req, "invalid master payload") {
		return
	}
	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Replace a master record
// @Tags Masters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Master ID"
// @Param payload body dto.MasterRequest true "Master payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/masters/{id} [put]
func (h *MasterHandler) Update(c *gin.Context) {
	var req dto.MasterRequest
	if !bindJSON(c, &req, "invalid master payload") {
		return
	}
	record, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Delete godoc
// @Summary Delete a master record and its careers and achievements
// @Tags Masters
// @Produce json
// @Security BearerAuth
// @Param id path string true "Master ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/masters/{id} [delete]
func (h *MasterHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	removed, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.MasterDeleteResponse{ID: id, Removed: removed})
}
