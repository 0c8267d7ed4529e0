// Package postgres implements userstore.Store against a Postgres database for
// self-hosted deployments. The users table carries a unique index on email, so
// the database is the final arbiter of uniqueness regardless of the
// service-level fast-path check.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/tokens"
)

// Postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	uniqueViolation = "23505"
)

const bcryptCost = bcrypt.DefaultCost

var (
	database = os.Getenv("AUTH_DB_DATABASE")
	password = os.Getenv("AUTH_DB_PASSWORD")
	username = os.Getenv("AUTH_DB_USERNAME")
	port     = os.Getenv("AUTH_DB_PORT")
	host     = os.Getenv("AUTH_DB_HOST")
)

// Store is a Postgres-backed user store. Token bundles for Login are minted by
// the local signer since there is no external provider in this deployment.
type Store struct {
	db     *sql.DB
	signer *tokens.Service
}

// New opens the connection pool using the AUTH_DB_* environment variables.
func New(signer *tokens.Service) (*Store, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", username, password, host, port, database)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &Store{db: db, signer: signer}, nil
}

// Close terminates the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Health pings the database and reports pool statistics. The ping deadline is
// the earlier of one second and the caller's context.
func (s *Store) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	return stats
}

// ---------------------------------------------
// Store operations
// ---------------------------------------------

func (s *Store) Create(ctx context.Context, nu models.NewUser) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	const query = `
		INSERT INTO users (email, password, alias)
		VALUES ($1, $2, $3)
		RETURNING id, email, alias, photo_url
	`

	var (
		u        models.User
		alias    sql.NullString
		photoURL sql.NullString
	)
	err = s.db.QueryRowContext(ctx, query, nu.Email, hash, nullString(nu.Alias)).Scan(
		&u.ID,
		&u.Email,
		&alias,
		&photoURL,
	)
	if err != nil {
		if isPgError(err, uniqueViolation) {
			return models.User{}, userstore.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	u.Alias = stringPtr(alias)
	u.PhotoURL = stringPtr(photoURL)
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, email, alias, photo_url
		FROM users
		WHERE id = $1
	`
	return s.queryOne(ctx, query, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, email, alias, photo_url
		FROM users
		WHERE email = $1
	`
	return s.queryOne(ctx, query, email)
}

func (s *Store) Update(ctx context.Context, u models.User) (models.User, error) {
	var hash []byte
	if u.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcryptCost)
		if err != nil {
			return models.User{}, fmt.Errorf("hashing password: %w", err)
		}
		hash = h
	}

	const query = `
		UPDATE users
		SET email = $2,
		    alias = $3,
		    photo_url = $4,
		    password = COALESCE($5, password),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING id, email, alias, photo_url
	`

	var (
		updated  models.User
		alias    sql.NullString
		photoURL sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, u.ID, u.Email, nullString(u.Alias), nullString(u.PhotoURL), hash).Scan(
		&updated.ID,
		&updated.Email,
		&alias,
		&photoURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, userstore.ErrNotFound
		}
		if isPgError(err, uniqueViolation) {
			return models.User{}, userstore.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("updating user: %w", err)
	}

	updated.Alias = stringPtr(alias)
	updated.PhotoURL = stringPtr(photoURL)
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return userstore.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT id, email, alias, photo_url
		FROM users
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			u        models.User
			alias    sql.NullString
			photoURL sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Email, &alias, &photoURL); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.Alias = stringPtr(alias)
		u.PhotoURL = stringPtr(photoURL)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

func (s *Store) Login(ctx context.Context, email, password string) (models.Token, error) {
	const query = `
		SELECT id, email, alias, photo_url, password
		FROM users
		WHERE email = $1
	`

	var (
		u        models.User
		alias    sql.NullString
		photoURL sql.NullString
		hash     []byte
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &alias, &photoURL, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Token{}, userstore.ErrNotFound
		}
		return models.Token{}, fmt.Errorf("selecting user for login: %w", err)
	}
	u.Alias = stringPtr(alias)
	u.PhotoURL = stringPtr(photoURL)

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return models.Token{}, userstore.ErrInvalidCredentials
	}

	bundle, err := s.signer.IssueBundle(ctx, u)
	if err != nil {
		return models.Token{}, fmt.Errorf("issuing tokens: %w", err)
	}
	return bundle, nil
}

// SendPasswordResetEmail is not available on the self-hosted backend; reset
// delivery belongs to a managed identity provider.
func (s *Store) SendPasswordResetEmail(ctx context.Context, email string) (models.ResetSummary, error) {
	return models.ResetSummary{}, userstore.ErrResetUnsupported
}

// ---------------------------------------------
// Helpers
// ---------------------------------------------

func (s *Store) queryOne(ctx context.Context, query string, arg any) (models.User, error) {
	var (
		u        models.User
		alias    sql.NullString
		photoURL sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &alias, &photoURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, userstore.ErrNotFound
		}
		return models.User{}, fmt.Errorf("selecting user: %w", err)
	}
	u.Alias = stringPtr(alias)
	u.PhotoURL = stringPtr(photoURL)
	return u, nil
}

// isPgError checks if the error is a Postgres error with the given code.
func isPgError(err error, code string) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == code
	}
	return false
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
