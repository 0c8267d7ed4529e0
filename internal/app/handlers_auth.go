package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/middleware"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/validate"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/sentry"
)

func (a *App) HandleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ErrUnmarshal, nil)
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if errCode, details := validateRegisterInput(req); errCode != "" {
		writeError(c, errCode, details)
		return
	}

	created, err := a.users.Create(c.Request.Context(), models.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Alias:    req.Alias,
	})
	if err != nil {
		if !errs.IsKind(err, errs.AlreadyExists) {
			a.toSentry(c, "register", "create_user", sentry.LevelError, err)
		}
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (a *App) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ErrUnmarshal, nil)
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if details := validateLoginInput(req); len(details) > 0 {
		writeError(c, ErrMissingFields, details)
		return
	}

	bundle, err := a.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch errs.KindOf(err) {
		case errs.NotFound:
			writeAppError(c, err)
		case errs.Unauthenticated:
			writeError(c, ErrInvalidCredentials, nil)
		default:
			a.toSentry(c, "login", "login_user", sentry.LevelError, err)
			writeAppError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, bundle)
}

func (a *App) HandleRefresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ErrUnmarshal, nil)
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		writeError(c, ErrMissingFields, map[string]string{"refresh_token": "required"})
		return
	}

	bundle, err := a.tokens.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errs.KindOf(err) == errs.Provider {
			a.toSentry(c, "refresh", "provider", sentry.LevelError, err)
		}
		writeTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// HandleVerify runs behind the authentication middleware; reaching it means
// the token was valid, so it returns the verified claims.
func (a *App) HandleVerify(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	c.JSON(http.StatusOK, claims)
}

// writeTokenError distinguishes expired from otherwise-invalid tokens.
func writeTokenError(c *gin.Context, err error) {
	if errs.IsKind(err, errs.Unauthenticated) {
		if errors.Is(err, userstore.ErrExpiredToken) {
			writeError(c, ErrExpiredToken, nil)
			return
		}
		writeError(c, ErrInvalidToken, nil)
		return
	}
	writeAppError(c, err)
}

func validateRegisterInput(req RegisterRequest) (string, map[string]string) {
	if req.Email == "" || req.Password == "" {
		details := make(map[string]string)
		if req.Email == "" {
			details["email"] = "required"
		}
		if req.Password == "" {
			details["password"] = "required"
		}
		return ErrMissingFields, details
	}
	if !validate.Email(req.Email) {
		return ErrInvalidEmail, map[string]string{"email": "must be a valid email address"}
	}
	if !validate.Password(req.Password) {
		return ErrPasswordTooShort, map[string]string{"password": "must be at least 8 characters"}
	}
	if req.Alias != nil && !validate.Alias(*req.Alias) {
		return ErrInvalidAlias, map[string]string{"alias": "must be between 3 and 30 characters"}
	}
	return "", nil
}

func validateLoginInput(req LoginRequest) map[string]string {
	details := make(map[string]string)
	if req.Email == "" {
		details["email"] = "required"
	}
	if req.Password == "" {
		details["password"] = "required"
	}
	return details
}
