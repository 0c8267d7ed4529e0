// Package userstore defines the contracts every user-store backend must
// satisfy, together with the sentinel errors they report failures with.
//
// Three backends implement Store: an in-memory map (tests and local
// development), a Postgres database (self-hosted deployments) and the Google
// Identity Toolkit REST API (managed deployments). All three agree on the
// observable contract: lookups signal absence with ErrNotFound, mutations of a
// missing record fail with ErrNotFound, and a backend-side uniqueness
// rejection surfaces as ErrDuplicateEmail.
package userstore

import (
	"context"
	"errors"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
)

var (
	// ErrNotFound signals that no record matches the given id or email.
	ErrNotFound = errors.New("userstore: user not found")

	// ErrDuplicateEmail signals that the email is already taken. Backends
	// enforcing uniqueness server-side report their rejection with this
	// sentinel as well.
	ErrDuplicateEmail = errors.New("userstore: email already in use")

	// ErrInvalidCredentials signals a login with a wrong password.
	ErrInvalidCredentials = errors.New("userstore: invalid credentials")

	// ErrExpiredToken and ErrInvalidToken classify token verification
	// failures reported by a TokenStore.
	ErrExpiredToken = errors.New("userstore: token has expired")
	ErrInvalidToken = errors.New("userstore: invalid token")

	// ErrResetUnsupported signals that the backend has no password reset
	// delivery mechanism.
	ErrResetUnsupported = errors.New("userstore: password reset not supported by this store")
)

// Store holds the authoritative user records. Every operation is a potentially
// latent, potentially failing I/O call; callers own retries and timeouts.
type Store interface {
	// Create assigns an ID and persists the user. Callers are expected to
	// have checked email uniqueness first; backends that also enforce it
	// return ErrDuplicateEmail.
	Create(ctx context.Context, nu models.NewUser) (models.User, error)

	// GetByID returns the user with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (models.User, error)

	// GetByEmail returns the user owning the given email, or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (models.User, error)

	// Update replaces the stored record with u. A non-empty u.Password sets a
	// new password. Returns ErrNotFound if u.ID does not exist and
	// ErrDuplicateEmail if the new email belongs to another user.
	Update(ctx context.Context, u models.User) (models.User, error)

	// Delete removes the user, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all users.
	List(ctx context.Context) ([]models.User, error)

	// Login verifies the credentials and returns the provider token bundle.
	// A wrong password is ErrInvalidCredentials; an unknown email is
	// ErrNotFound.
	Login(ctx context.Context, email, password string) (models.Token, error)

	// SendPasswordResetEmail triggers the backend's reset delivery for the
	// given email, or returns ErrResetUnsupported.
	SendPasswordResetEmail(ctx context.Context, email string) (models.ResetSummary, error)
}

// TokenStore verifies and refreshes provider-issued tokens. The service never
// interprets token contents beyond the claims the backend returns.
type TokenStore interface {
	// VerifyToken returns the claims of a valid ID token, ErrExpiredToken if
	// it has expired, or ErrInvalidToken otherwise.
	VerifyToken(ctx context.Context, idToken string) (models.Claims, error)

	// RefreshToken exchanges a refresh token for a new token bundle.
	RefreshToken(ctx context.Context, refreshToken string) (models.RefreshToken, error)
}
