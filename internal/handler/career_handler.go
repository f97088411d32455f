package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/pkg/response"
)

type careerService interface {
	List(ctx context.Context, masterID string) ([]models.CareerRecord, error)
	Create(ctx context.Context, masterID string, req dto.CareerRequest) (*models.CareerRecord, error)
	Update(ctx context.Context, masterID, id string, patch dto.CareerPatch) (*models.CareerRecord, error)
	Delete(ctx context.Context, masterID, id string) error
}

type wizardService interface {
	Advance(req dto.WizardRequest) (*dto.WizardResponse, error)
	Submit(ctx context.Context, masterID string, req dto.WizardRequest) (*dto.WizardSubmitResponse, error)
}

// CareerHandler serves the career history and the career form wizard of
// the selected alumnus.
type CareerHandler struct {
	careers careerService
	wizard  wizardService
}

// NewCareerHandler constructs the handler.
func NewCareerHandler(careers careerService, wizard wizardService) *CareerHandler {
	return &CareerHandler{careers: careers, wizard: wizard}
}

// List godoc
// @Summary Career history of the selected alumnus
// @Tags Careers
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/careers [get]
func (h *CareerHandler) List(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	items, err := h.careers.List(c.Request.Context(), masterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Add a career record
// @Description detail is decoded according to status (working, entrepreneur, studying, searching).
// @Tags Careers
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param payload body dto.CareerRequest true "Career payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/careers [post]
func (h *CareerHandler) Create(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	var req dto.CareerRequest
	if !bindJSON(c, &req, "invalid career payload") {
		return
	}
	record, err := h.careers.Create(c.Request.Context(), masterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Patch a career record
// @Description Only provided top-level fields replace stored values.
// @Tags Careers
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param id path string true "Career ID"
// @Param payload body dto.CareerPatch true "Career patch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/careers/{id} [put]
func (h *CareerHandler) Update(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	var patch dto.CareerPatch
	if !bindJSON(c, &patch, "invalid career patch") {
		return
	}
	record, err := h.careers.Update(c.Request.Context(), masterID, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Delete godoc
// @Summary Delete a career record
// @Tags Careers
// @Param X-Alumni-Session header string true "Selection session id"
// @Param id path string true "Career ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /me/careers/{id} [delete]
func (h *CareerHandler) Delete(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	if err := h.careers.Delete(c.Request.Context(), masterID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Wizard godoc
// @Summary Move the career form wizard one step
// @Description Stateless: the client posts the current step and draft. Step errors keep currentStep unchanged.
// @Tags Careers
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param payload body dto.WizardRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/careers/wizard [post]
func (h *CareerHandler) Wizard(c *gin.Context) {
	if _, ok := selectedMaster(c); !ok {
		return
	}
	var req dto.WizardRequest
	if !bindJSON(c, &req, "invalid wizard payload") {
		return
	}
	res, err := h.wizard.Advance(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// WizardSubmit godoc
// @Summary Persist the wizard draft
// @Description Valid only at the confirm step. Creates the career record and updates contact details.
// @Tags Careers
// @Accept json
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Param payload body dto.WizardRequest true "Wizard state"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/careers/wizard/submit [post]
func (h *CareerHandler) WizardSubmit(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	var req dto.WizardRequest
	if !bindJSON(c, &req, "invalid wizard payload") {
		return
	}
	res, err := h.wizard.Submit(c.Request.Context(), masterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}
