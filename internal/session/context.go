package session

import (
	"context"

	"github.com/noah-isme/office-admin/internal/models"
)

type identityKey struct{}

// WithIdentity stores who is acting in ctx.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the actor stored by WithIdentity.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	if ctx == nil {
		return models.Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}
