// Package directory enforces the invariants that span multiple user records:
// email uniqueness, existence before mutation, and validation of partial
// updates. It composes the pure validators with a user store and is the only
// layer allowed to sequence look-before-write checks.
//
// The uniqueness check here is a fast path. Concurrent creates for the same
// email race on it, so the store's own backend remains the final arbiter and
// its rejection surfaces as the same AlreadyExists failure.
package directory

import (
	"context"
	"errors"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/validate"
)

// Service wraps a user store with cross-record invariant checks.
type Service struct {
	store userstore.Store
}

// NewService builds a directory service on top of the given store.
func NewService(store userstore.Store) *Service {
	return &Service{store: store}
}

// CreateUser registers a new user after confirming no other user owns the
// email. The store assigns the id.
func (s *Service) CreateUser(ctx context.Context, nu models.NewUser) (models.User, error) {
	if !validate.Email(nu.Email) {
		return models.User{}, errs.New(errs.InvalidData, "invalid user data")
	}

	_, err := s.store.GetByEmail(ctx, nu.Email)
	switch {
	case err == nil:
		return models.User{}, errs.New(errs.AlreadyExists, "user with this email already exists")
	case !errors.Is(err, userstore.ErrNotFound):
		return models.User{}, errs.Wrap(errs.Provider, "checking email uniqueness", err)
	}

	created, err := s.store.Create(ctx, nu)
	if err != nil {
		// The backend enforces uniqueness too; its rejection is the same
		// failure as the fast path above.
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return models.User{}, errs.New(errs.AlreadyExists, "user with this email already exists")
		}
		return models.User{}, errs.Wrap(errs.Provider, "creating user", err)
	}
	return created, nil
}

// LoginUser checks that an account with the email exists, then delegates
// credential verification to the store. This lets the service distinguish "no
// such account" from "wrong password" even when the backend does not.
func (s *Service) LoginUser(ctx context.Context, email, password string) (models.Token, error) {
	if _, err := s.store.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.Token{}, errs.New(errs.NotFound, "no user found with this email")
		}
		return models.Token{}, errs.Wrap(errs.Provider, "looking up user for login", err)
	}

	token, err := s.store.Login(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrInvalidCredentials):
			return models.Token{}, errs.New(errs.Unauthenticated, "invalid credentials")
		case errors.Is(err, userstore.ErrNotFound):
			return models.Token{}, errs.New(errs.NotFound, "no user found with this email")
		}
		return models.Token{}, errs.Wrap(errs.Provider, "logging in user", err)
	}
	return token, nil
}

// GetUser returns the user with the given id, or a NotFound failure.
func (s *Service) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, errs.New(errs.NotFound, "user not found")
		}
		return models.User{}, errs.Wrap(errs.Provider, "getting user", err)
	}
	return u, nil
}

// GetUserByEmail returns the user owning the email, or a NotFound failure.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, errs.New(errs.NotFound, "user not found")
		}
		return models.User{}, errs.Wrap(errs.Provider, "getting user by email", err)
	}
	return u, nil
}

// UpdateUser applies a partial update. Fields absent from the patch are
// excluded from validation and left unchanged on the stored record.
func (s *Service) UpdateUser(ctx context.Context, patch models.UserPatch) (models.User, error) {
	if !validate.Patch(patch) {
		return models.User{}, errs.New(errs.InvalidData, "invalid user data")
	}

	existing, err := s.store.GetByID(ctx, patch.ID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.User{}, errs.New(errs.NotFound, "user not found")
		}
		return models.User{}, errs.Wrap(errs.Provider, "getting user for update", err)
	}

	if patch.Email != nil && *patch.Email != existing.Email {
		_, err := s.store.GetByEmail(ctx, *patch.Email)
		switch {
		case err == nil:
			return models.User{}, errs.New(errs.AlreadyExists, "email already in use")
		case !errors.Is(err, userstore.ErrNotFound):
			return models.User{}, errs.Wrap(errs.Provider, "checking email uniqueness", err)
		}
	}

	merged := merge(existing, patch)
	updated, err := s.store.Update(ctx, merged)
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrNotFound):
			return models.User{}, errs.New(errs.NotFound, "user not found")
		case errors.Is(err, userstore.ErrDuplicateEmail):
			return models.User{}, errs.New(errs.AlreadyExists, "email already in use")
		}
		return models.User{}, errs.Wrap(errs.Provider, "updating user", err)
	}
	return updated, nil
}

// DeleteUser removes the user after confirming it exists.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return errs.New(errs.NotFound, "user not found")
		}
		return errs.Wrap(errs.Provider, "getting user for delete", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return errs.New(errs.NotFound, "user not found")
		}
		return errs.Wrap(errs.Provider, "deleting user", err)
	}
	return nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Provider, "listing users", err)
	}
	return users, nil
}

// SendPasswordResetEmail validates the address, confirms a user owns it, and
// delegates delivery to the store's backend.
func (s *Service) SendPasswordResetEmail(ctx context.Context, email string) (models.ResetSummary, error) {
	if !validate.Email(email) {
		return models.ResetSummary{}, errs.New(errs.InvalidFormat, "invalid email format")
	}

	if _, err := s.store.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.ResetSummary{}, errs.New(errs.NotFound, "no user found with this email")
		}
		return models.ResetSummary{}, errs.Wrap(errs.Provider, "looking up user for password reset", err)
	}

	summary, err := s.store.SendPasswordResetEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.ResetSummary{}, errs.New(errs.NotFound, "no user found with this email")
		}
		return models.ResetSummary{}, errs.Wrap(errs.Provider, "sending password reset email", err)
	}
	return summary, nil
}

// merge builds the full candidate record from the existing user and the
// present patch fields.
func merge(existing models.User, patch models.UserPatch) models.User {
	merged := existing
	merged.Password = ""
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.Password != nil {
		merged.Password = *patch.Password
	}
	if patch.Alias != nil {
		merged.Alias = patch.Alias
	}
	if patch.PhotoURL != nil {
		merged.PhotoURL = patch.PhotoURL
	}
	return merged
}
