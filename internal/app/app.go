// Package app provides the HTTP handlers of the authentication service.
package app

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/photos"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/sentry"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/usecase"
)

type App struct {
	log    *slog.Logger
	users  *usecase.Users
	tokens *usecase.Tokens
	sentry *sentry.Service
	photos *photos.Service
	health func(context.Context) map[string]string
}

// NewApp wires the handler set. photos may be nil when no object store is
// configured; the photo endpoint then reports the feature as unavailable.
// health may be nil for stores without a connectivity check.
func NewApp(
	log *slog.Logger,
	users *usecase.Users,
	tokens *usecase.Tokens,
	sentrySvc *sentry.Service,
	photosSvc *photos.Service,
	health func(context.Context) map[string]string,
) *App {
	return &App{
		log:    log,
		users:  users,
		tokens: tokens,
		sentry: sentrySvc,
		photos: photosSvc,
		health: health,
	}
}

func (a *App) toSentry(c *gin.Context, handler, errType string, level sentry.Level, err error) {
	a.sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("handler", handler)
		scope.SetExtra("error_type", errType)
		scope.SetLevel(level)
		if reqID := c.GetHeader("X-Request-ID"); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		a.sentry.CaptureException(err)
	})
}
