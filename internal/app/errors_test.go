package app

import (
	"net/http"
	"testing"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/errs"
)

func TestCodeForKind(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want string
	}{
		{errs.InvalidData, ErrInvalidData},
		{errs.InvalidFormat, ErrInvalidData},
		{errs.AlreadyExists, ErrUserExists},
		{errs.NotFound, ErrUserNotFound},
		{errs.Unauthenticated, ErrInvalidCredentials},
		{errs.Provider, ErrProviderFailure},
		{errs.Internal, ErrInternal},
	}

	for _, tt := range tests {
		if got := codeForKind(tt.kind); got != tt.want {
			t.Errorf("codeForKind(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestStatusForError(t *testing.T) {
	if got := statusForError(ErrInvalidData); got != http.StatusBadRequest {
		t.Errorf("statusForError(%q) = %d, want %d", ErrInvalidData, got, http.StatusBadRequest)
	}
	if got := statusForError("no_such_code"); got != http.StatusInternalServerError {
		t.Errorf("statusForError(unknown) = %d, want %d", got, http.StatusInternalServerError)
	}
}
