package firebase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore/firebase"
)

// newStore points the adapter at a stub Identity Toolkit server. The Admin
// SDK reaches it through its emulator mode, which needs no service-account
// credentials; the self-service endpoints reach it through the URL overrides.
func newStore(t *testing.T, handler http.HandlerFunc) *firebase.Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", strings.TrimPrefix(srv.URL, "http://"))
	t.Setenv("FIREBASE_PROJECT_ID", "demo-project")
	t.Setenv("FIREBASE_API_KEY", "test-key")
	t.Setenv("FIREBASE_AUTH_URL", srv.URL)
	t.Setenv("FIREBASE_TOKEN_URL", srv.URL)

	store, err := firebase.New(context.Background())
	if err != nil {
		t.Fatalf("building store: %v", err)
	}
	return store
}

func providerFailure(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"message":%q}}`, message)
}

func userPayload(w http.ResponseWriter, fields map[string]any) {
	json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{fields}})
}

func TestCreate(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "accounts:update"):
			t.Error("display name must travel with the creation request, not a follow-up update")
		case strings.Contains(r.URL.Path, "accounts:lookup"):
			userPayload(w, map[string]any{
				"localId":     "uid-1",
				"email":       "ana@example.com",
				"displayName": "ana",
			})
		case strings.HasSuffix(r.URL.Path, "/accounts"):
			var req struct {
				Email       string `json:"email"`
				DisplayName string `json:"displayName"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode create body: %v", err)
			}
			if req.DisplayName != "ana" {
				t.Errorf("displayName in create payload = %q, want ana", req.DisplayName)
			}
			json.NewEncoder(w).Encode(map[string]string{"localId": "uid-1", "email": req.Email})
		default:
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
	})

	alias := "ana"
	u, err := store.Create(context.Background(), models.NewUser{Email: "ana@example.com", Password: "supersecret", Alias: &alias})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != "uid-1" || u.Email != "ana@example.com" {
		t.Errorf("user = %+v", u)
	}
	if u.Alias == nil || *u.Alias != "ana" {
		t.Errorf("alias = %v, want ana", u.Alias)
	}
}

func TestCreateDuplicate(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		providerFailure(w, http.StatusBadRequest, "EMAIL_EXISTS")
	})

	_, err := store.Create(context.Background(), models.NewUser{Email: "dup@example.com", Password: "supersecret"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestLookup(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:lookup") {
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
		userPayload(w, map[string]any{
			"localId":     "uid-1",
			"email":       "ana@example.com",
			"displayName": "ana",
			"photoUrl":    "https://cdn.example.com/ana.jpg",
		})
	})

	u, err := store.GetByID(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u.ID != "uid-1" || u.Email != "ana@example.com" {
		t.Errorf("user = %+v", u)
	}
	if u.Alias == nil || *u.Alias != "ana" {
		t.Errorf("alias = %v, want ana", u.Alias)
	}
	if u.PhotoURL == nil || *u.PhotoURL != "https://cdn.example.com/ana.jpg" {
		t.Errorf("photo = %v", u.PhotoURL)
	}

	if _, err := store.GetByEmail(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("get by email: %v", err)
	}
}

func TestLookupAbsence(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"users": []any{}})
	})

	if _, err := store.GetByID(context.Background(), "ghost"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("GetByEmail err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "accounts:update"):
			var req struct {
				LocalID     string `json:"localId"`
				Email       string `json:"email"`
				DisplayName string `json:"displayName"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode update body: %v", err)
			}
			if req.LocalID != "uid-1" || req.DisplayName != "ana maria" {
				t.Errorf("update payload = %+v", req)
			}
			json.NewEncoder(w).Encode(map[string]string{"localId": "uid-1"})
		case strings.Contains(r.URL.Path, "accounts:lookup"):
			userPayload(w, map[string]any{
				"localId":     "uid-1",
				"email":       "ana@example.com",
				"displayName": "ana maria",
			})
		default:
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
	})

	alias := "ana maria"
	u, err := store.Update(context.Background(), models.User{ID: "uid-1", Email: "ana@example.com", Alias: &alias})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Alias == nil || *u.Alias != "ana maria" {
		t.Errorf("alias = %v, want ana maria", u.Alias)
	}
}

func TestDelete(t *testing.T) {
	deleted := false
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:delete") {
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
		deleted = true
		json.NewEncoder(w).Encode(map[string]string{"kind": "identitytoolkit#DeleteAccountResponse"})
	})

	if err := store.Delete(context.Background(), "uid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("delete endpoint was not called")
	}
}

func TestListPagination(t *testing.T) {
	calls := 0
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:batchGet") {
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(map[string]any{
				"users":         []map[string]string{{"localId": "1", "email": "a@example.com"}},
				"nextPageToken": "page-2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]string{{"localId": "2", "email": "b@example.com"}},
		})
	})

	users, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2", len(users))
	}
	if users[0].ID != "1" || users[1].ID != "2" {
		t.Errorf("users = %+v", users)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestLogin(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:signInWithPassword") {
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("key = %q, want test-key", key)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "ana@example.com",
			"displayName":  "ana",
			"idToken":      "id-token",
			"registered":   true,
			"refreshToken": "refresh-token",
			"expiresIn":    "3600",
		})
	})

	tok, err := store.Login(context.Background(), "ana@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	want := models.Token{
		LocalID:      "uid-1",
		Email:        "ana@example.com",
		Alias:        "ana",
		IDToken:      "id-token",
		Registered:   true,
		RefreshToken: "refresh-token",
		ExpiresIn:    "3600",
	}
	if tok != want {
		t.Errorf("token = %+v, want %+v", tok, want)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		providerFailure(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
	})

	_, err := store.Login(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, userstore.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyTokenExpiredLocally(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("expired token must not reach the provider")
	})

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "uid-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	if _, err := store.VerifyToken(context.Background(), signed); !errors.Is(err, userstore.ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyToken(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		userPayload(w, map[string]any{
			"localId":       "uid-1",
			"email":         "ana@example.com",
			"displayName":   "ana",
			"emailVerified": true,
		})
	})

	valid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "uid-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := valid.SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	claims, err := store.VerifyToken(context.Background(), signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UID != "uid-1" || !claims.EmailVerified || claims.Name != "ana" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRefreshToken(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "new-id",
			"expires_in":    "3600",
			"token_type":    "Bearer",
			"refresh_token": "new-refresh",
			"id_token":      "new-id",
			"user_id":       "uid-1",
			"project_id":    "proj",
		})
	})

	bundle, err := store.RefreshToken(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if bundle.IDToken != "new-id" || bundle.UserID != "uid-1" || bundle.TokenType != "Bearer" {
		t.Errorf("bundle = %+v", bundle)
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		providerFailure(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
	})

	_, err := store.RefreshToken(context.Background(), "bad")
	if !errors.Is(err, userstore.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSendPasswordResetEmail(t *testing.T) {
	store := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:sendOobCode") {
			t.Errorf("unexpected endpoint %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"email": "ana@example.com"})
	})

	summary, err := store.SendPasswordResetEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("send reset: %v", err)
	}
	if !summary.Success || summary.Email != "ana@example.com" {
		t.Errorf("summary = %+v", summary)
	}
}
