// Package models defines the data records shared across the authentication service.
package models

// User is the identity record held by a user store. Password carries a
// candidate plaintext on the way in only; stores always return it empty and it
// is never serialized.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Password string  `json:"-"`
	Alias    *string `json:"alias,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

// NewUser is the input for user creation. The store assigns the ID.
type NewUser struct {
	Email    string  `json:"email"`
	Password string  `json:"-"`
	Alias    *string `json:"alias,omitempty"`
}

// UserPatch is a partial update. A nil field is excluded from validation and
// left unchanged on the stored record.
type UserPatch struct {
	ID       string
	Email    *string
	Password *string
	Alias    *string
	PhotoURL *string
}

// PublicUser is the outward-facing shape of a user. There is deliberately no
// password field.
type PublicUser struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Alias    *string `json:"alias"`
	PhotoURL *string `json:"photo_url"`
}

// Public converts a stored user to its outward-facing shape.
func Public(u User) PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Alias:    u.Alias,
		PhotoURL: u.PhotoURL,
	}
}

// Token is the bundle returned by the identity provider on a successful login.
// The service forwards it without interpreting its contents.
type Token struct {
	LocalID      string `json:"local_id"`
	Email        string `json:"email"`
	Alias        string `json:"alias,omitempty"`
	IDToken      string `json:"id_token"`
	Registered   bool   `json:"registered"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// RefreshToken is the bundle returned by the provider's token refresh endpoint.
type RefreshToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    string `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	UserID       string `json:"user_id"`
	ProjectID    string `json:"project_id"`
}

// Claims is the decoded payload of a verified ID token.
type Claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
}

// ResetSummary reports the outcome of a password reset request.
type ResetSummary struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	Detail  string `json:"detail,omitempty"`
}
