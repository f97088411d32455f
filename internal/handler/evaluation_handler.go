package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/pkg/response"
)

type evaluationService interface {
	Submit(ctx context.Context, req dto.EvaluationRequest) (*models.EvaluationSubmission, error)
	List(ctx context.Context, query dto.EvaluationListQuery) ([]models.EvaluationSubmission, *models.Pagination, error)
	Summary(ctx context.Context) (models.EvaluationSummary, error)
}

// EvaluationHandler serves employer satisfaction ratings.
type EvaluationHandler struct {
	service evaluationService
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(svc evaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// Submit godoc
// @Summary Submit an employer evaluation
// @Description Public form. The evaluated alumnus is stored as a snapshot.
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body dto.EvaluationRequest true "Evaluation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Submit(c *gin.Context) {
	var req dto.EvaluationRequest
	if !bindJSON(c, &req, "invalid evaluation payload") {
		return
	}
	submission, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary List evaluations, newest first
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Master ID"
// @Param program query string false "Study program"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	var query dto.EvaluationListQuery
	if !bindQuery(c, &query) {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Summary godoc
// @Summary Average rating per category
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/evaluations/summary [get]
func (h *EvaluationHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
