// Package firebase implements userstore.Store and userstore.TokenStore for
// managed deployments. The provider splits its API in two: account
// administration (create, lookup by id or email, update, delete, list)
// requires service-account credentials, while password sign-in, reset-email
// delivery, ID-token introspection and token refresh are self-service calls
// authorized by an API key. This adapter follows that split: the Admin SDK
// carries the first group and plain REST the second.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/iterator"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
)

const (
	defaultBaseURL  = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL = "https://securetoken.googleapis.com/v1"
)

// Store drives the Identity Toolkit API.
type Store struct {
	client     *auth.Client
	apiKey     string
	baseURL    string
	tokenURL   string
	httpClient *http.Client
}

// New builds the adapter. Admin credentials come from the standard
// GOOGLE_APPLICATION_CREDENTIALS discovery (or the auth emulator when
// FIREBASE_AUTH_EMULATOR_HOST is set, which the tests use), and
// FIREBASE_PROJECT_ID names the project. FIREBASE_API_KEY authorizes the
// self-service endpoints; FIREBASE_AUTH_URL and FIREBASE_TOKEN_URL override
// them for tests.
func New(ctx context.Context) (*Store, error) {
	baseURL := os.Getenv("FIREBASE_AUTH_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tokenURL := os.Getenv("FIREBASE_TOKEN_URL")
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: os.Getenv("FIREBASE_PROJECT_ID")})
	if err != nil {
		return nil, fmt.Errorf("initializing identity provider app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing identity provider auth client: %w", err)
	}

	return &Store{
		client:     client,
		apiKey:     os.Getenv("FIREBASE_API_KEY"),
		baseURL:    baseURL,
		tokenURL:   tokenURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func toUser(rec *auth.UserRecord) models.User {
	u := models.User{ID: rec.UID, Email: rec.Email}
	if rec.DisplayName != "" {
		name := rec.DisplayName
		u.Alias = &name
	}
	if rec.PhotoURL != "" {
		photo := rec.PhotoURL
		u.PhotoURL = &photo
	}
	return u
}

// adminError maps Admin SDK failures onto store sentinels.
func adminError(err error) error {
	switch {
	case auth.IsUserNotFound(err):
		return userstore.ErrNotFound
	case auth.IsEmailAlreadyExists(err):
		return userstore.ErrDuplicateEmail
	}
	return err
}

// ---------------------------------------------
// Store operations (Admin SDK)
// ---------------------------------------------

// Create registers the account in one provider call. The display name travels
// with the creation payload, so a failure never leaves a half-created account
// behind.
func (s *Store) Create(ctx context.Context, nu models.NewUser) (models.User, error) {
	params := (&auth.UserToCreate{}).Email(nu.Email).Password(nu.Password)
	if nu.Alias != nil {
		params = params.DisplayName(*nu.Alias)
	}

	rec, err := s.client.CreateUser(ctx, params)
	if err != nil {
		return models.User{}, adminError(err)
	}
	return toUser(rec), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.User, error) {
	rec, err := s.client.GetUser(ctx, id)
	if err != nil {
		return models.User{}, adminError(err)
	}
	return toUser(rec), nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	rec, err := s.client.GetUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, adminError(err)
	}
	return toUser(rec), nil
}

func (s *Store) Update(ctx context.Context, u models.User) (models.User, error) {
	params := (&auth.UserToUpdate{}).Email(u.Email)
	if u.Alias != nil {
		params = params.DisplayName(*u.Alias)
	}
	if u.PhotoURL != nil {
		params = params.PhotoURL(*u.PhotoURL)
	}
	if u.Password != "" {
		params = params.Password(u.Password)
	}

	rec, err := s.client.UpdateUser(ctx, u.ID, params)
	if err != nil {
		return models.User{}, adminError(err)
	}
	return toUser(rec), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteUser(ctx, id); err != nil {
		return adminError(err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	it := s.client.Users(ctx, "")
	for {
		rec, err := it.Next()
		if err == iterator.Done {
			return users, nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing users: %w", err)
		}
		users = append(users, toUser(rec.UserRecord))
	}
}

// ---------------------------------------------
// Self-service operations (key-authenticated REST)
// ---------------------------------------------

func (s *Store) Login(ctx context.Context, email, password string) (models.Token, error) {
	var resp struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		DisplayName  string `json:"displayName"`
		IDToken      string `json:"idToken"`
		Registered   bool   `json:"registered"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	if err := s.post(ctx, "accounts:signInWithPassword", payload, &resp); err != nil {
		return models.Token{}, err
	}

	return models.Token{
		LocalID:      resp.LocalID,
		Email:        resp.Email,
		Alias:        resp.DisplayName,
		IDToken:      resp.IDToken,
		Registered:   resp.Registered,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (s *Store) SendPasswordResetEmail(ctx context.Context, email string) (models.ResetSummary, error) {
	var resp struct {
		Email string `json:"email"`
	}
	payload := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	if err := s.post(ctx, "accounts:sendOobCode", payload, &resp); err != nil {
		return models.ResetSummary{}, err
	}
	return models.ResetSummary{
		Success: true,
		Email:   resp.Email,
		Detail:  "password reset email sent",
	}, nil
}

// ---------------------------------------------
// TokenStore operations
// ---------------------------------------------

// VerifyToken confirms an ID token through the self-service lookup variant,
// which the API key authorizes on its own. Expired tokens are rejected locally
// first to save the round trip; the provider remains the authority on
// signature validity.
func (s *Store) VerifyToken(ctx context.Context, idToken string) (models.Claims, error) {
	if err := checkExpiry(idToken); err != nil {
		return models.Claims{}, err
	}

	var resp struct {
		Users []struct {
			LocalID       string `json:"localId"`
			Email         string `json:"email"`
			DisplayName   string `json:"displayName"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"users"`
	}
	if err := s.post(ctx, "accounts:lookup", map[string]any{"idToken": idToken}, &resp); err != nil {
		return models.Claims{}, err
	}
	if len(resp.Users) == 0 {
		return models.Claims{}, userstore.ErrInvalidToken
	}

	acc := resp.Users[0]
	return models.Claims{
		UID:           acc.LocalID,
		Email:         acc.Email,
		EmailVerified: acc.EmailVerified,
		Name:          acc.DisplayName,
	}, nil
}

func (s *Store) RefreshToken(ctx context.Context, refreshToken string) (models.RefreshToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", s.tokenURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("refreshing token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("reading refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.RefreshToken{}, providerError(resp.StatusCode, body)
	}

	var bundle struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    string `json:"expires_in"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		UserID       string `json:"user_id"`
		ProjectID    string `json:"project_id"`
	}
	if err := json.Unmarshal(body, &bundle); err != nil {
		return models.RefreshToken{}, fmt.Errorf("decoding refresh response: %w", err)
	}

	return models.RefreshToken(bundle), nil
}

// ---------------------------------------------
// Helpers
// ---------------------------------------------

// post sends a JSON request to a key-authenticated accounts endpoint and
// decodes the response into out when it is non-nil.
func (s *Store) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", endpoint, err)
	}

	u := fmt.Sprintf("%s/%s?key=%s", s.baseURL, endpoint, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return providerError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// providerError maps Identity Toolkit error messages onto store sentinels.
// Unrecognized failures propagate upward with the provider's message intact.
func providerError(status int, body []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error.Message

	switch {
	case strings.HasPrefix(msg, "EMAIL_EXISTS"):
		return userstore.ErrDuplicateEmail
	case strings.HasPrefix(msg, "EMAIL_NOT_FOUND"), strings.HasPrefix(msg, "USER_NOT_FOUND"):
		return userstore.ErrNotFound
	case strings.HasPrefix(msg, "INVALID_PASSWORD"), strings.HasPrefix(msg, "INVALID_LOGIN_CREDENTIALS"), strings.HasPrefix(msg, "USER_DISABLED"):
		return userstore.ErrInvalidCredentials
	case strings.HasPrefix(msg, "TOKEN_EXPIRED"):
		return userstore.ErrExpiredToken
	case strings.HasPrefix(msg, "INVALID_ID_TOKEN"), strings.HasPrefix(msg, "INVALID_REFRESH_TOKEN"):
		return userstore.ErrInvalidToken
	}
	if msg == "" {
		msg = string(body)
	}
	return fmt.Errorf("identity provider returned status %d: %s", status, msg)
}

// checkExpiry parses the token without verifying its signature and rejects it
// if the exp claim has passed. Signature verification stays with the provider.
func checkExpiry(idToken string) error {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return fmt.Errorf("%w: %v", userstore.ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return userstore.ErrExpiredToken
	}
	return nil
}
