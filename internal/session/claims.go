package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/office-admin/internal/models"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// ParseClaims reads the token payload without checking its signature. The
// result is for display and early expiry only; the API stays the authority.
func ParseClaims(token string) (models.TokenClaims, error) {
	var claims models.TokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return models.TokenClaims{}, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "unreadable token")
	}
	return claims, nil
}

// Expired reports whether claims carry an expiry at or before now.
func Expired(claims models.TokenClaims, now time.Time) bool {
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// IdentityOf picks the most readable name the token carries.
func IdentityOf(claims models.TokenClaims) models.Identity {
	id := models.Identity{Email: claims.Email}
	switch {
	case claims.Username != "":
		id.Subject = claims.Username
	case claims.Email != "":
		id.Subject = claims.Email
	case claims.Subject != "":
		id.Subject = claims.Subject
	case claims.UserID != nil:
		id.Subject = fmt.Sprint(claims.UserID)
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id
}

// Fingerprint names a credential without revealing it.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:12])
}
