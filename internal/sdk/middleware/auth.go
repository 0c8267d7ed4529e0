package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
)

const bearerPrefix = "Bearer "

// VerifyFunc validates an ID token and returns its claims.
type VerifyFunc func(ctx context.Context, idToken string) (*models.Claims, error)

// Authenticate validates the Authorization bearer token and stores the
// resulting user id and claims on the request context.
func Authenticate(verify VerifyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing_authorization_header")
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "invalid_authorization_header")
			return
		}

		claims, err := verify(c.Request.Context(), strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			abortUnauthorized(c, "invalid_token")
			return
		}

		c.Set(UserIDKey, claims.UID)
		c.Set(ClaimsKey, *claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
}

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(c *gin.Context) (string, error) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return "", errors.New("no authenticated user in context")
	}
	return id, nil
}

// GetClaims returns the verified token claims from the request context.
func GetClaims(c *gin.Context) (models.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return models.Claims{}, false
	}
	claims, ok := v.(models.Claims)
	return claims, ok
}
