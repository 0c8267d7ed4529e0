// Package tokens signs and verifies the HS256 token bundles used by the
// self-hosted store backends. Managed deployments delegate this job to the
// identity provider instead; nothing in the domain layer depends on this
// package directly.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
)

// Service mints and validates ID/refresh token pairs. Create one instance and
// reuse it; it is safe for concurrent use.
type Service struct {
	idSecret      []byte
	refreshSecret []byte
	idExpiry      time.Duration
	refreshExpiry time.Duration
	issuer        string
	parser        *jwt.Parser
}

// idClaims is the payload carried by the ID tokens this service mints.
type idClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// NewService reads its configuration from the environment:
//
//   - JWT_ID_SECRET:      secret for ID tokens
//   - JWT_REFRESH_SECRET: secret for refresh tokens
//   - JWT_ISSUER:         issuer name (default "authentication-service")
func NewService() *Service {
	idSecret := os.Getenv("JWT_ID_SECRET")
	if idSecret == "" {
		idSecret = "default-id-secret-change-in-production!"
	}

	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if refreshSecret == "" {
		refreshSecret = "default-refresh-secret-change-in-production"
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "authentication-service"
	}

	parser := jwt.NewParser(
		// Only accept HS256 to prevent algorithm confusion.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithIssuer(issuer),
	)

	return &Service{
		idSecret:      []byte(idSecret),
		refreshSecret: []byte(refreshSecret),
		idExpiry:      time.Hour,
		refreshExpiry: 30 * 24 * time.Hour,
		issuer:        issuer,
		parser:        parser,
	}
}

// Issuer returns the configured issuer name.
func (s *Service) Issuer() string { return s.issuer }

// IssueBundle mints an ID/refresh token pair for the user and shapes the
// result the way the identity provider's login endpoint does.
func (s *Service) IssueBundle(ctx context.Context, u models.User) (models.Token, error) {
	idToken, refreshToken, err := s.mintPair(u)
	if err != nil {
		return models.Token{}, err
	}

	alias := ""
	if u.Alias != nil {
		alias = *u.Alias
	}

	return models.Token{
		LocalID:      u.ID,
		Email:        u.Email,
		Alias:        alias,
		IDToken:      idToken,
		Registered:   true,
		RefreshToken: refreshToken,
		ExpiresIn:    strconv.Itoa(int(s.idExpiry.Seconds())),
	}, nil
}

// VerifyToken validates an ID token and returns its claims. Implements
// userstore.TokenStore.
func (s *Service) VerifyToken(ctx context.Context, idToken string) (models.Claims, error) {
	claims, err := s.parse(idToken, s.idSecret)
	if err != nil {
		return models.Claims{}, err
	}

	return models.Claims{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// RefreshToken validates a refresh token and mints a fresh bundle for the same
// subject. Implements userstore.TokenStore.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (models.RefreshToken, error) {
	claims, err := s.parse(refreshToken, s.refreshSecret)
	if err != nil {
		return models.RefreshToken{}, err
	}

	u := models.User{ID: claims.Subject, Email: claims.Email}
	if claims.Name != "" {
		name := claims.Name
		u.Alias = &name
	}

	idToken, newRefresh, err := s.mintPair(u)
	if err != nil {
		return models.RefreshToken{}, err
	}

	return models.RefreshToken{
		AccessToken:  idToken,
		ExpiresIn:    strconv.Itoa(int(s.idExpiry.Seconds())),
		TokenType:    "Bearer",
		RefreshToken: newRefresh,
		IDToken:      idToken,
		UserID:       claims.Subject,
		ProjectID:    s.issuer,
	}, nil
}

func (s *Service) mintPair(u models.User) (idToken, refreshToken string, err error) {
	now := time.Now()

	idToken, err = s.sign(u, now.Add(s.idExpiry), s.idSecret)
	if err != nil {
		return "", "", fmt.Errorf("creating id token: %w", err)
	}

	refreshToken, err = s.sign(u, now.Add(s.refreshExpiry), s.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("creating refresh token: %w", err)
	}

	return idToken, refreshToken, nil
}

func (s *Service) sign(u models.User, expiresAt time.Time, secret []byte) (string, error) {
	now := time.Now()
	claims := idClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if u.Alias != nil {
		claims.Name = *u.Alias
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *Service) parse(tokenString string, secret []byte) (*idClaims, error) {
	if tokenString == "" {
		return nil, userstore.ErrInvalidToken
	}

	claims := &idClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, convertError(err)
	}
	if !token.Valid {
		return nil, userstore.ErrInvalidToken
	}

	return claims, nil
}

// convertError maps jwt library errors onto the store-level sentinels the rest
// of the service checks for.
func convertError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", userstore.ErrExpiredToken, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: not yet valid", userstore.ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: malformed", userstore.ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: bad signature", userstore.ErrInvalidToken)
	default:
		return fmt.Errorf("%w: %v", userstore.ErrInvalidToken, err)
	}
}
