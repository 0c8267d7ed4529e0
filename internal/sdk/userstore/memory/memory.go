// Package memory implements userstore.Store and userstore.TokenStore with an
// in-process map. It backs the test suite and local development; tokens it
// issues are opaque random values tracked per instance, not real JWTs.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
)

const (
	bcryptCost    = bcrypt.MinCost // tests create many users; speed over strength
	idTokenTTL    = time.Hour
	refreshTTL    = 30 * 24 * time.Hour
	expirySeconds = "3600"
)

type session struct {
	userID    string
	expiresAt time.Time
}

// Store keeps all state in private maps. Each instance is independent and safe
// for concurrent use.
type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	hashes   map[string][]byte
	nextID   int
	idTokens map[string]session
	refresh  map[string]session
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		hashes:   make(map[string][]byte),
		nextID:   1,
		idTokens: make(map[string]session),
		refresh:  make(map[string]session),
		now:      time.Now,
	}
}

// Create assigns the next sequential id and stores the user. The plaintext
// password is hashed and never kept on the record.
func (s *Store) Create(ctx context.Context, nu models.NewUser) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == nu.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
	}

	u := models.User{
		ID:    strconv.Itoa(s.nextID),
		Email: nu.Email,
		Alias: nu.Alias,
	}
	s.nextID++
	s.users[u.ID] = u
	s.hashes[u.ID] = hash

	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, userstore.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, userstore.ErrNotFound
}

// Update replaces the stored record. A non-empty Password on u re-hashes the
// credential; the returned record never carries it.
func (s *Store) Update(ctx context.Context, u models.User) (models.User, error) {
	var hash []byte
	if u.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcryptCost)
		if err != nil {
			return models.User{}, err
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return models.User{}, userstore.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
	}

	u.Password = ""
	s.users[u.ID] = u
	if hash != nil {
		s.hashes[u.ID] = hash
	}
	return u, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return userstore.ErrNotFound
	}
	delete(s.users, id)
	delete(s.hashes, id)
	return nil
}

// List returns all users ordered by ascending id.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		a, aerr := strconv.Atoi(users[i].ID)
		b, berr := strconv.Atoi(users[j].ID)
		if aerr != nil || berr != nil {
			return users[i].ID < users[j].ID
		}
		return a < b
	})
	return users, nil
}

// Login verifies the password against the stored hash and issues an opaque
// token bundle.
func (s *Store) Login(ctx context.Context, email, password string) (models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user models.User
	found := false
	for _, u := range s.users {
		if u.Email == email {
			user = u
			found = true
			break
		}
	}
	if !found {
		return models.Token{}, userstore.ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword(s.hashes[user.ID], []byte(password)); err != nil {
		return models.Token{}, userstore.ErrInvalidCredentials
	}

	idToken, refreshToken := s.issueLocked(user.ID)

	alias := ""
	if user.Alias != nil {
		alias = *user.Alias
	}
	return models.Token{
		LocalID:      user.ID,
		Email:        user.Email,
		Alias:        alias,
		IDToken:      idToken,
		Registered:   true,
		RefreshToken: refreshToken,
		ExpiresIn:    expirySeconds,
	}, nil
}

func (s *Store) SendPasswordResetEmail(ctx context.Context, email string) (models.ResetSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return models.ResetSummary{
				Success: true,
				Email:   email,
				Detail:  "password reset email sent",
			}, nil
		}
	}
	return models.ResetSummary{}, userstore.ErrNotFound
}

// VerifyToken resolves an issued ID token. Implements userstore.TokenStore.
func (s *Store) VerifyToken(ctx context.Context, idToken string) (models.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.idTokens[idToken]
	if !ok {
		return models.Claims{}, userstore.ErrInvalidToken
	}
	if s.now().After(sess.expiresAt) {
		return models.Claims{}, userstore.ErrExpiredToken
	}

	u, ok := s.users[sess.userID]
	if !ok {
		// User deleted after the token was issued.
		return models.Claims{}, userstore.ErrInvalidToken
	}

	claims := models.Claims{UID: u.ID, Email: u.Email, EmailVerified: true}
	if u.Alias != nil {
		claims.Name = *u.Alias
	}
	return claims, nil
}

// RefreshToken rotates a refresh token and issues a new bundle. Implements
// userstore.TokenStore.
func (s *Store) RefreshToken(ctx context.Context, refreshToken string) (models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.refresh[refreshToken]
	if !ok {
		return models.RefreshToken{}, userstore.ErrInvalidToken
	}
	if s.now().After(sess.expiresAt) {
		return models.RefreshToken{}, userstore.ErrExpiredToken
	}

	delete(s.refresh, refreshToken)
	idToken, newRefresh := s.issueLocked(sess.userID)

	return models.RefreshToken{
		AccessToken:  idToken,
		ExpiresIn:    expirySeconds,
		TokenType:    "Bearer",
		RefreshToken: newRefresh,
		IDToken:      idToken,
		UserID:       sess.userID,
		ProjectID:    "memory",
	}, nil
}

// issueLocked mints a fresh token pair. Callers must hold s.mu.
func (s *Store) issueLocked(userID string) (idToken, refreshToken string) {
	idToken = uuid.NewString()
	refreshToken = uuid.NewString()
	now := s.now()
	s.idTokens[idToken] = session{userID: userID, expiresAt: now.Add(idTokenTTL)}
	s.refresh[refreshToken] = session{userID: userID, expiresAt: now.Add(refreshTTL)}
	return idToken, refreshToken
}
