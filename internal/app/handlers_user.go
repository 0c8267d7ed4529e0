package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/middleware"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/validate"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/sentry"
)

const maxPhotoBytes = 10 << 20

func (a *App) HandleMe(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	user, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		a.toSentry(c, "me", "get_user", sentry.LevelError, err)
		writeAppError(c, err)
		return
	}
	if user == nil {
		writeError(c, ErrUserNotFound, nil)
		return
	}

	c.JSON(http.StatusOK, user)
}

// HandleUpdateMe applies a partial update to the authenticated user. The
// target id always comes from the verified token, never from the body.
func (a *App) HandleUpdateMe(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ErrUnmarshal, nil)
		return
	}

	if errCode, details := validateUpdateInput(req); errCode != "" {
		writeError(c, errCode, details)
		return
	}

	updated, err := a.users.Update(c.Request.Context(), models.UserPatch{
		ID:       userID,
		Email:    req.Email,
		Password: req.Password,
		Alias:    req.Alias,
	})
	if err != nil {
		kind := errs.KindOf(err)
		if kind != errs.AlreadyExists && kind != errs.InvalidData && kind != errs.NotFound {
			a.toSentry(c, "update_me", "update_user", sentry.LevelError, err)
		}
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (a *App) HandleDeleteMe(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	if err := a.users.Delete(c.Request.Context(), userID); err != nil {
		if !errs.IsKind(err, errs.NotFound) {
			a.toSentry(c, "delete_me", "delete_user", sentry.LevelError, err)
		}
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}

// HandleUploadPhoto stores a profile photo and records its URL on the user.
func (a *App) HandleUploadPhoto(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	if a.photos == nil {
		writeError(c, ErrPhotosUnavailable, nil)
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		writeError(c, ErrInvalidPhoto, map[string]string{"photo": "file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxPhotoBytes {
		writeError(c, ErrInvalidPhoto, map[string]string{"photo": "file exceeds 10MB"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(c, ErrInvalidPhoto, map[string]string{"photo": "must be an image"})
		return
	}

	url, err := a.photos.Store(c.Request.Context(), userID, file, contentType)
	if err != nil {
		a.toSentry(c, "upload_photo", "object_store", sentry.LevelError, err)
		writeError(c, ErrInvalidPhoto, nil)
		return
	}

	if _, err := a.users.Update(c.Request.Context(), models.UserPatch{ID: userID, PhotoURL: &url}); err != nil {
		a.toSentry(c, "upload_photo", "update_user", sentry.LevelError, err)
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, PhotoResponse{PhotoURL: url})
}

func (a *App) HandleListUsers(c *gin.Context) {
	users, err := a.users.List(c.Request.Context())
	if err != nil {
		a.toSentry(c, "list_users", "list", sentry.LevelError, err)
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func validateUpdateInput(req UpdateMeRequest) (string, map[string]string) {
	if req.Email != nil && !validate.Email(strings.TrimSpace(*req.Email)) {
		return ErrInvalidEmail, map[string]string{"email": "must be a valid email address"}
	}
	if req.Password != nil && !validate.Password(*req.Password) {
		return ErrPasswordTooShort, map[string]string{"password": "must be at least 8 characters"}
	}
	if req.Alias != nil && !validate.Alias(*req.Alias) {
		return ErrInvalidAlias, map[string]string{"alias": "must be between 3 and 30 characters"}
	}
	return "", nil
}
