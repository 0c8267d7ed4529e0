package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
)

const (
	ErrUnmarshal          = "invalid_request_body"
	ErrMissingFields      = "missing_required_fields"
	ErrInvalidData        = "invalid_data"
	ErrInvalidEmail       = "invalid_email"
	ErrPasswordTooShort   = "password_too_short"
	ErrInvalidAlias       = "invalid_alias"
	ErrUserExists         = "user_already_exists"
	ErrInvalidCredentials = "invalid_credentials"
	ErrUnauthorized       = "unauthorized"
	ErrExpiredToken       = "expired_token"
	ErrInvalidToken       = "invalid_token"
	ErrUserNotFound       = "user_not_found"
	ErrProviderFailure    = "identity_provider_error"
	ErrInvalidPhoto       = "invalid_photo"
	ErrPhotosUnavailable  = "photo_storage_unavailable"
	ErrInternal           = "internal_error"
)

var errorStatusMap = map[string]int{
	ErrUnmarshal:          http.StatusBadRequest,
	ErrMissingFields:      http.StatusBadRequest,
	ErrInvalidData:        http.StatusBadRequest,
	ErrInvalidEmail:       http.StatusBadRequest,
	ErrPasswordTooShort:   http.StatusBadRequest,
	ErrInvalidAlias:       http.StatusBadRequest,
	ErrUserExists:         http.StatusConflict,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrExpiredToken:       http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrUserNotFound:       http.StatusNotFound,
	ErrProviderFailure:    http.StatusBadGateway,
	ErrInvalidPhoto:       http.StatusBadRequest,
	ErrPhotosUnavailable:  http.StatusServiceUnavailable,
	ErrInternal:           http.StatusInternalServerError,
}

func statusForError(code string) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError responds with a stable error code and optional field details.
func writeError(c *gin.Context, code string, details map[string]string) {
	c.JSON(statusForError(code), ErrorResponse{Error: code, Details: details})
}

// writeAppError translates a classified application error to its wire code.
// The short message travels in details; causes never leave the service.
func writeAppError(c *gin.Context, err error) {
	code := ErrInternal
	var appErr *errs.Error
	var details map[string]string
	if errors.As(err, &appErr) {
		code = codeForKind(appErr.Kind())
		if msg := appErr.Message(); msg != "" {
			details = map[string]string{"message": msg}
		}
	}
	writeError(c, code, details)
}

func codeForKind(kind errs.Kind) string {
	switch kind {
	case errs.InvalidData, errs.InvalidFormat:
		return ErrInvalidData
	case errs.AlreadyExists:
		return ErrUserExists
	case errs.NotFound:
		return ErrUserNotFound
	case errs.Unauthenticated:
		return ErrInvalidCredentials
	case errs.Provider:
		return ErrProviderFailure
	}
	return ErrInternal
}
