package usecase_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore/memory"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/usecase"
)

func TestUsersCreate(t *testing.T) {
	store := memory.New()
	users := usecase.NewUsers(store)
	ctx := context.Background()

	alias := "cristina"
	pub, err := users.Create(ctx, models.NewUser{
		Email:    "cristina@example.com",
		Password: "supersecret",
		Alias:    &alias,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pub.ID != "1" {
		t.Errorf("id = %q, want %q", pub.ID, "1")
	}
	if pub.Alias == nil || *pub.Alias != "cristina" {
		t.Errorf("alias = %v, want cristina", pub.Alias)
	}

	raw, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Errorf("serialized user leaks password: %s", raw)
	}

	if _, err := users.Create(ctx, models.NewUser{Email: "cristina@example.com", Password: "otherpass"}); !errs.IsKind(err, errs.AlreadyExists) {
		t.Errorf("duplicate create kind = %v, want AlreadyExists", errs.KindOf(err))
	}
}

func TestUsersLookupAbsence(t *testing.T) {
	users := usecase.NewUsers(memory.New())
	ctx := context.Background()

	pub, err := users.Get(ctx, "999")
	if err != nil {
		t.Fatalf("get unknown id: %v", err)
	}
	if pub != nil {
		t.Errorf("get unknown id = %+v, want nil", pub)
	}

	pub, err = users.GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get unknown email: %v", err)
	}
	if pub != nil {
		t.Errorf("get unknown email = %+v, want nil", pub)
	}
}

func TestUsersLoginAndTokens(t *testing.T) {
	store := memory.New()
	users := usecase.NewUsers(store)
	tokens := usecase.NewTokens(store)
	ctx := context.Background()

	if _, err := users.Create(ctx, models.NewUser{Email: "ana@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	bundle, err := users.Login(ctx, "ana@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if bundle.IDToken == "" || bundle.RefreshToken == "" {
		t.Fatalf("bundle missing tokens: %+v", bundle)
	}
	if !bundle.Registered {
		t.Error("bundle.Registered = false, want true")
	}

	claims, err := tokens.Verify(ctx, bundle.IDToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UID != bundle.LocalID {
		t.Errorf("claims uid = %q, want %q", claims.UID, bundle.LocalID)
	}

	refreshed, err := tokens.Refresh(ctx, bundle.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.UserID != bundle.LocalID {
		t.Errorf("refreshed user id = %q, want %q", refreshed.UserID, bundle.LocalID)
	}

	if _, err := users.Login(ctx, "ana@example.com", "wrongpassword"); !errs.IsKind(err, errs.Unauthenticated) {
		t.Errorf("bad password kind = %v, want Unauthenticated", errs.KindOf(err))
	}
}

func TestTokensRejectGarbage(t *testing.T) {
	tokens := usecase.NewTokens(memory.New())
	ctx := context.Background()

	if _, err := tokens.Verify(ctx, "not-a-token"); !errs.IsKind(err, errs.Unauthenticated) {
		t.Errorf("verify garbage kind = %v, want Unauthenticated", errs.KindOf(err))
	}
	if _, err := tokens.Refresh(ctx, "not-a-token"); !errs.IsKind(err, errs.Unauthenticated) {
		t.Errorf("refresh garbage kind = %v, want Unauthenticated", errs.KindOf(err))
	}
}

func TestUsersUpdateAndDelete(t *testing.T) {
	users := usecase.NewUsers(memory.New())
	ctx := context.Background()

	created, err := users.Create(ctx, models.NewUser{Email: "bob@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	alias := "bobby"
	updated, err := users.Update(ctx, models.UserPatch{ID: created.ID, Alias: &alias})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Alias == nil || *updated.Alias != "bobby" {
		t.Errorf("alias = %v, want bobby", updated.Alias)
	}
	if updated.Email != "bob@example.com" {
		t.Errorf("email changed by alias patch: %q", updated.Email)
	}

	if err := users.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := users.Delete(ctx, created.ID); !errs.IsKind(err, errs.NotFound) {
		t.Errorf("second delete kind = %v, want NotFound", errs.KindOf(err))
	}

	list, err := users.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list after delete = %d users, want 0", len(list))
	}
}
