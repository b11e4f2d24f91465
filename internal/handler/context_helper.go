package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admin-console/internal/middleware"
	"github.com/noah-isme/admin-console/internal/models"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// requireSession writes 401 and returns false when no session is attached.
func requireSession(c *gin.Context) (*models.SessionClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return false
	}
	return true
}
