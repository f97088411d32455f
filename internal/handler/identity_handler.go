package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/middleware"
	"github.com/noah-isme/sipal-api/pkg/response"
)

type identityService interface {
	Search(ctx context.Context, req dto.IdentitySearchRequest) (*dto.IdentitySearchResponse, error)
	Select(ctx context.Context, req dto.IdentitySelectRequest) (*dto.SessionResponse, error)
	Current(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Clear(ctx context.Context, sessionID string) error
}

// IdentityHandler serves the /validasi flow and the selection session.
type IdentityHandler struct {
	service identityService
	header  string
}

// NewIdentityHandler constructs the handler. header names the session header.
func NewIdentityHandler(svc identityService, header string) *IdentityHandler {
	if header == "" {
		header = middleware.DefaultSessionHeader
	}
	return &IdentityHandler{service: svc, header: header}
}

// Search godoc
// @Summary Find alumni master records by name and graduation year
// @Description No match is not an error: the response carries outcome not_found and a fallback message.
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.IdentitySearchRequest true "Search payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /validasi/search [post]
func (h *IdentityHandler) Search(c *gin.Context) {
	var req dto.IdentitySearchRequest
	if !bindJSON(c, &req, "invalid identity search") {
		return
	}
	res, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Select godoc
// @Summary Select one master record from a search
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.IdentitySelectRequest true "Selection payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /validasi/select [post]
func (h *IdentityHandler) Select(c *gin.Context) {
	var req dto.IdentitySelectRequest
	if !bindJSON(c, &req, "invalid identity selection") {
		return
	}
	res, err := h.service.Select(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(h.header, res.SessionID)
	response.Created(c, res)
}

// Current godoc
// @Summary Show the selected identity
// @Tags Identity
// @Produce json
// @Param X-Alumni-Session header string true "Selection session id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [get]
func (h *IdentityHandler) Current(c *gin.Context) {
	res, err := h.service.Current(c.Request.Context(), c.GetHeader(h.header))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Clear godoc
// @Summary Forget the selected identity
// @Tags Identity
// @Param X-Alumni-Session header string true "Selection session id"
// @Success 204
// @Router /session [delete]
func (h *IdentityHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context(), c.GetHeader(h.header)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
