package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/middleware"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
	"github.com/noah-isme/sipal-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context, filter models.AlumniFilter) (*dto.AdminDashboardResponse, bool, error)
	Alumni(ctx context.Context, masterID string) (*dto.AlumniDashboardResponse, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Tracer study overview
// @Description Status distribution, top industries, graduation trend and per-program counts. meta.cache_hit reports whether the summary was served from cache.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department"
// @Param program query string false "Study program"
// @Param graduationYear query int false "Graduation year"
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var filter models.AlumniFilter
	if !bindQuery(c, &filter) {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Admin(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, summary, nil, middleware.Meta(c))
}

// Alumni godoc
// @Summary Personal dashboard of the selected alumnus
// @Tags Dashboard
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/dashboard [get]
func (h *DashboardHandler) Alumni(c *gin.Context) {
	masterID, ok := selectedMaster(c)
	if !ok {
		return
	}
	summary, err := h.service.Alumni(c.Request.Context(), masterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
