// Package validate holds the pure validation rules for user records. The
// predicates never touch a store and are safe to call from any layer.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/models"
)

const (
	minPasswordLength = 8
	minAliasLength    = 3
	maxAliasLength    = 30
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Mode selects which fields of a user record are relevant to a call site.
type Mode int

const (
	// Complete validates email, alias and password.
	Complete Mode = iota
	// Login validates email and password; alias is irrelevant.
	Login
	// NoPassword validates email and alias, for callers that intentionally
	// withhold the password.
	NoPassword
)

// Email reports whether s looks like local-part@domain.tld with a TLD of at
// least two letters. The empty string is invalid.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Password reports whether s is an acceptable password.
func Password(s string) bool {
	return len(s) >= minPasswordLength
}

// Alias reports whether s is an acceptable display name: between 3 and 30
// characters after trimming surrounding whitespace.
func Alias(s string) bool {
	trimmed := strings.TrimSpace(s)
	n := utf8.RuneCountInString(trimmed)
	return n >= minAliasLength && n <= maxAliasLength
}

// User validates a candidate record under the given mode.
func User(u models.User, mode Mode) bool {
	switch mode {
	case Login:
		return Email(u.Email) && Password(u.Password)
	case NoPassword:
		return Email(u.Email) && u.Alias != nil && Alias(*u.Alias)
	default:
		return Email(u.Email) && u.Alias != nil && Alias(*u.Alias) && Password(u.Password)
	}
}

// Patch validates the fields present on a partial update. Absent fields are
// excluded from validation.
func Patch(p models.UserPatch) bool {
	if p.Email != nil && !Email(*p.Email) {
		return false
	}
	if p.Password != nil && !Password(*p.Password) {
		return false
	}
	if p.Alias != nil && !Alias(*p.Alias) {
		return false
	}
	return true
}
