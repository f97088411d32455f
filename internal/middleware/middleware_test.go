package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type stubResolver map[string]string

func (s stubResolver) Current(_ context.Context, sessionID string) (*dto.SessionResponse, error) {
	masterID, ok := s[sessionID]
	if !ok {
		err := appErrors.Clone(appErrors.ErrSelectionRequired, "")
		err.Details = map[string]string{"redirect": "/validasi"}
		return nil, err
	}
	return &dto.SessionResponse{SessionID: sessionID, Master: models.MasterRecord{ID: masterID}}, nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code, body.Error.Details
}

func adminRouter(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(stubValidator{claims: &models.JWTClaims{UserID: "a1", Role: role}}), RequireRoles(models.RoleAdmin))
	r.GET("/admin", func(c *gin.Context) { c.String(http.StatusOK, ClaimsFrom(c).UserID) })
	return r
}

func TestJWTAndRBAC(t *testing.T) {
	cases := []struct {
		name   string
		header string
		role   models.UserRole
		status int
		code   string
	}{
		{name: "missing header", role: models.RoleAdmin, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic good", role: models.RoleAdmin, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "bad token", header: "Bearer nope", role: models.RoleAdmin, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong role", header: "Bearer good", role: "ALUMNI", status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "admin", header: "Bearer good", role: models.RoleAdmin, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			adminRouter(tc.role).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				code, _ := errorCode(t, rec)
				assert.Equal(t, tc.code, code)
			} else {
				assert.Equal(t, "a1", rec.Body.String())
			}
		})
	}
}

func TestRequireSelection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireSelection(stubResolver{"sess-1": "master-1"}, ""))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, SelectedMasterID(c)+"|"+SessionID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(DefaultSessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "master-1|sess-1", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	code, details := errorCode(t, rec)
	assert.Equal(t, "SELECTION_REQUIRED", code)
	assert.Equal(t, "/validasi", details["redirect"])
}

func TestSetCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, Meta(c))

	SetCacheHit(c, true)
	assert.Equal(t, map[string]interface{}{"cache_hit": true}, Meta(c))
}
