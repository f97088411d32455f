package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/pkg/response"
)

const (
	// DefaultSessionHeader carries the alumni selection id.
	DefaultSessionHeader = "X-Alumni-Session"

	contextMasterKey  = "selectedMaster"
	contextSessionKey = "selectionSession"
)

// SelectionResolver resolves a selection id to the chosen master record.
type SelectionResolver interface {
	Current(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
}

// RequireSelection blocks alumni routes until an identity has been selected.
// The resolved master id is stored on the context.
func RequireSelection(resolver SelectionResolver, header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultSessionHeader
	}
	return func(c *gin.Context) {
		session, err := resolver.Current(c.Request.Context(), c.GetHeader(header))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(contextSessionKey, session.SessionID)
		c.Set(contextMasterKey, session.Master.ID)
		c.Next()
	}
}

// SelectedMasterID returns the master id resolved by RequireSelection.
func SelectedMasterID(c *gin.Context) string {
	return c.GetString(contextMasterKey)
}

// SessionID returns the selection id resolved by RequireSelection.
func SessionID(c *gin.Context) string {
	return c.GetString(contextSessionKey)
}
