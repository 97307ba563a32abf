package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating against the remote API.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is what the API returns on a successful sign-in. Older
// deployments answer with access_token instead of token.
type LoginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Credential returns whichever token field the API filled.
func (r LoginResponse) Credential() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// TokenClaims is the subset of the bearer token payload the console shows.
// It is read without signature verification and never trusted for access
// decisions.
type TokenClaims struct {
	UserID   any    `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity describes who is signed in, for display.
type Identity struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
