package tokens

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
)

const testIssuer = "test-issuer"

func TestMain(m *testing.M) {
	_ = os.Setenv("JWT_ISSUER", testIssuer)
	_ = os.Setenv("JWT_ID_SECRET", "test-id-secret")
	_ = os.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret")

	code := m.Run()
	os.Exit(code)
}

func testUser() models.User {
	alias := "alice"
	return models.User{ID: "user-123", Email: "alice@example.com", Alias: &alias}
}

func TestNewService(t *testing.T) {
	srv := NewService()
	if srv == nil {
		t.Fatal("NewService() returned nil")
	}
	if srv.Issuer() != testIssuer {
		t.Fatalf("expected issuer %q, got %q", testIssuer, srv.Issuer())
	}
}

func TestIssueBundle(t *testing.T) {
	srv := NewService()
	bundle, err := srv.IssueBundle(context.Background(), testUser())
	if err != nil {
		t.Fatalf("IssueBundle returned error: %v", err)
	}
	if bundle.IDToken == "" {
		t.Fatal("expected non-empty id token")
	}
	if bundle.RefreshToken == "" {
		t.Fatal("expected non-empty refresh token")
	}
	if bundle.LocalID != "user-123" {
		t.Fatalf("expected local_id user-123, got %q", bundle.LocalID)
	}
	if bundle.Alias != "alice" {
		t.Fatalf("expected alias alice, got %q", bundle.Alias)
	}
	if !bundle.Registered {
		t.Fatal("expected registered=true")
	}
	if bundle.ExpiresIn != "3600" {
		t.Fatalf("expected expires_in 3600, got %q", bundle.ExpiresIn)
	}
}

func TestVerifyToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := NewService()
		bundle, err := srv.IssueBundle(context.Background(), testUser())
		if err != nil {
			t.Fatalf("IssueBundle returned error: %v", err)
		}

		claims, err := srv.VerifyToken(context.Background(), bundle.IDToken)
		if err != nil {
			t.Fatalf("VerifyToken returned error: %v", err)
		}
		if claims.UID != "user-123" {
			t.Fatalf("expected uid user-123, got %q", claims.UID)
		}
		if claims.Email != "alice@example.com" {
			t.Fatalf("expected email alice@example.com, got %q", claims.Email)
		}
		if claims.Name != "alice" {
			t.Fatalf("expected name alice, got %q", claims.Name)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		srv := NewService()
		_, err := srv.VerifyToken(context.Background(), "")
		if !errors.Is(err, userstore.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		srv := NewService()
		_, err := srv.VerifyToken(context.Background(), "not-a-jwt")
		if !errors.Is(err, userstore.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("refresh token is not an id token", func(t *testing.T) {
		srv := NewService()
		bundle, err := srv.IssueBundle(context.Background(), testUser())
		if err != nil {
			t.Fatalf("IssueBundle returned error: %v", err)
		}

		_, err = srv.VerifyToken(context.Background(), bundle.RefreshToken)
		if !errors.Is(err, userstore.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
		}
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := NewService()
		bundle, err := srv.IssueBundle(context.Background(), testUser())
		if err != nil {
			t.Fatalf("IssueBundle returned error: %v", err)
		}

		refreshed, err := srv.RefreshToken(context.Background(), bundle.RefreshToken)
		if err != nil {
			t.Fatalf("RefreshToken returned error: %v", err)
		}
		if refreshed.IDToken == "" || refreshed.RefreshToken == "" {
			t.Fatal("expected non-empty refreshed tokens")
		}
		if refreshed.UserID != "user-123" {
			t.Fatalf("expected user_id user-123, got %q", refreshed.UserID)
		}
		if refreshed.TokenType != "Bearer" {
			t.Fatalf("expected token_type Bearer, got %q", refreshed.TokenType)
		}
		if refreshed.ProjectID != testIssuer {
			t.Fatalf("expected project_id %q, got %q", testIssuer, refreshed.ProjectID)
		}

		// The refreshed id token must verify.
		claims, err := srv.VerifyToken(context.Background(), refreshed.IDToken)
		if err != nil {
			t.Fatalf("VerifyToken on refreshed token returned error: %v", err)
		}
		if claims.UID != "user-123" {
			t.Fatalf("expected uid user-123, got %q", claims.UID)
		}
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		srv := NewService()
		_, err := srv.RefreshToken(context.Background(), "garbage")
		if !errors.Is(err, userstore.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("id token is not a refresh token", func(t *testing.T) {
		srv := NewService()
		bundle, err := srv.IssueBundle(context.Background(), testUser())
		if err != nil {
			t.Fatalf("IssueBundle returned error: %v", err)
		}

		_, err = srv.RefreshToken(context.Background(), bundle.IDToken)
		if !errors.Is(err, userstore.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
		}
	})
}
