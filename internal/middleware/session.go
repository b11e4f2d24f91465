package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admin-console/internal/models"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/logger"
	"github.com/noah-isme/admin-console/pkg/response"
)

// ContextSessionKey is the gin context key storing session claims.
const ContextSessionKey = "consoleSession"

type sessionAuthenticator interface {
	Authenticate(token string) (*models.SessionClaims, error)
}

// Session protects routes by requiring a valid session token. The token is
// read from the Authorization header, or from the token query parameter for
// event streams opened without custom headers.
func Session(auth sessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := sessionToken(c)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims)
		c.Set(logger.SessionKey, claims.SessionID)
		c.Next()
	}
}

// SessionClaims returns the claims attached by Session.
func SessionClaims(c *gin.Context) (*models.SessionClaims, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.SessionClaims)
	return claims, ok && claims != nil
}

func sessionToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", appErrors.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
