// Package usecase adapts the directory service for presentation layers. It
// shapes users into their public form (the password is never serialized),
// treats lookups-by-identifier as "absence is not an error", and guarantees
// every failure reaching a transport is a classified application error.
package usecase

import (
	"context"
	"errors"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/directory"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
)

// Users exposes the user operations a presentation layer calls.
type Users struct {
	directory *directory.Service
}

// NewUsers builds the user façade over a store.
func NewUsers(store userstore.Store) *Users {
	return &Users{directory: directory.NewService(store)}
}

// Create registers a user and returns its public shape.
func (u *Users) Create(ctx context.Context, nu models.NewUser) (*models.PublicUser, error) {
	created, err := u.directory.CreateUser(ctx, nu)
	if err != nil {
		return nil, classify(err)
	}
	pub := models.Public(created)
	return &pub, nil
}

// Login returns the provider token bundle. The bundle is forwarded as-is:
// tokens carry no password field and are never reshaped.
func (u *Users) Login(ctx context.Context, email, password string) (*models.Token, error) {
	token, err := u.directory.LoginUser(ctx, email, password)
	if err != nil {
		return nil, classify(err)
	}
	return &token, nil
}

// Get returns the user with the given id, or nil when no user matches.
func (u *Users) Get(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := u.directory.GetUser(ctx, id)
	if err != nil {
		if errs.IsKind(err, errs.NotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	pub := models.Public(user)
	return &pub, nil
}

// GetByEmail returns the user owning the email, or nil when no user matches.
func (u *Users) GetByEmail(ctx context.Context, email string) (*models.PublicUser, error) {
	user, err := u.directory.GetUserByEmail(ctx, email)
	if err != nil {
		if errs.IsKind(err, errs.NotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	pub := models.Public(user)
	return &pub, nil
}

// Update applies a partial update and returns the resulting public shape.
func (u *Users) Update(ctx context.Context, patch models.UserPatch) (*models.PublicUser, error) {
	updated, err := u.directory.UpdateUser(ctx, patch)
	if err != nil {
		return nil, classify(err)
	}
	pub := models.Public(updated)
	return &pub, nil
}

// Delete removes the user with the given id.
func (u *Users) Delete(ctx context.Context, id string) error {
	if err := u.directory.DeleteUser(ctx, id); err != nil {
		return classify(err)
	}
	return nil
}

// List returns all users in their public shape.
func (u *Users) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := u.directory.ListUsers(ctx)
	if err != nil {
		return nil, classify(err)
	}
	public := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, models.Public(user))
	}
	return public, nil
}

// SendPasswordResetEmail triggers reset delivery for the email.
func (u *Users) SendPasswordResetEmail(ctx context.Context, email string) (models.ResetSummary, error) {
	summary, err := u.directory.SendPasswordResetEmail(ctx, email)
	if err != nil {
		return models.ResetSummary{}, classify(err)
	}
	return summary, nil
}

// Tokens exposes verification and refresh of provider-issued tokens.
type Tokens struct {
	store userstore.TokenStore
}

// NewTokens builds the token façade over a token store.
func NewTokens(store userstore.TokenStore) *Tokens {
	return &Tokens{store: store}
}

// Verify returns the claims of a valid ID token.
func (t *Tokens) Verify(ctx context.Context, idToken string) (*models.Claims, error) {
	claims, err := t.store.VerifyToken(ctx, idToken)
	if err != nil {
		return nil, classifyToken(err)
	}
	return &claims, nil
}

// Refresh exchanges a refresh token for a new bundle.
func (t *Tokens) Refresh(ctx context.Context, refreshToken string) (*models.RefreshToken, error) {
	bundle, err := t.store.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, classifyToken(err)
	}
	return &bundle, nil
}

// classify guarantees the caller sees an *errs.Error. Directory failures are
// already classified; anything else is unexpected.
func classify(err error) error {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}
	return errs.Wrap(errs.Internal, "unexpected failure", err)
}

// classifyToken maps token-store sentinels onto application error kinds.
func classifyToken(err error) error {
	switch {
	case errors.Is(err, userstore.ErrExpiredToken):
		return errs.Wrap(errs.Unauthenticated, "expired token", err)
	case errors.Is(err, userstore.ErrInvalidToken):
		return errs.Wrap(errs.Unauthenticated, "invalid token", err)
	}
	return errs.Wrap(errs.Provider, "token operation failed", err)
}
