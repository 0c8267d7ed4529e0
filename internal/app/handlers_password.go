package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/sentry"
)

// HandleForgotPassword asks the identity provider to deliver a reset email.
// Unknown addresses answer 404; delivery is the provider's responsibility, so
// a success here only means the request was accepted.
func (a *App) HandleForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ErrUnmarshal, nil)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(c, ErrMissingFields, map[string]string{"email": "required"})
		return
	}

	summary, err := a.users.SendPasswordResetEmail(c.Request.Context(), req.Email)
	if err != nil {
		switch errs.KindOf(err) {
		case errs.InvalidFormat:
			writeError(c, ErrInvalidEmail, map[string]string{"email": "must be a valid email address"})
		case errs.NotFound:
			writeError(c, ErrUserNotFound, nil)
		default:
			a.toSentry(c, "forgot_password", "send_reset", sentry.LevelError, err)
			writeAppError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
