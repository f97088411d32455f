package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sipal-api/internal/middleware"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
	"github.com/noah-isme/sipal-api/pkg/response"
)

// bindJSON decodes the request body into dest and writes a VALIDATION_ERROR
// when the body is not valid JSON.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return false
	}
	return true
}

// selectedMaster returns the master id chosen on /validasi. RequireSelection
// guarantees it on /me routes.
func selectedMaster(c *gin.Context) (string, bool) {
	masterID := middleware.SelectedMasterID(c)
	if masterID == "" {
		err := appErrors.Clone(appErrors.ErrSelectionRequired, "")
		err.Details = map[string]string{"redirect": "/validasi"}
		response.Error(c, err)
		return "", false
	}
	return masterID, true
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFrom(c)
}

func adminID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func pathIndex(c *gin.Context, name string) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(c.Param(name)))
	if err != nil || index < 0 {
		response.Error(c, appErrors.FieldError(name, name+" must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
