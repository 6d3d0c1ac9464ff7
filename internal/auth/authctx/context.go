// Package authctx propagates the authenticated request identity through
// context.Context. The identity is derived once, by the authorization
// middleware, from a validated access token and lives for one request.
package authctx

import (
	"context"
	"errors"
)

// Identity is the request-scoped authenticated principal.
type Identity struct {
	// Email is the token subject.
	Email string
	// Provider is the identity origin: "local" or an OAuth2 provider name.
	Provider string
	// Role is the granted role. Every authenticated request carries RoleUser.
	Role string
}

// RoleUser is the role granted to authenticated principals.
const RoleUser = "USER"

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

var identityKey = contextKey{}

// ErrNoIdentity is returned when no identity is present in the context.
var ErrNoIdentity = errors.New("authctx: no identity in context")

// Set stores the authenticated identity in the context.
func Set(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Get retrieves the authenticated identity from the context.
func Get(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// GetOrError retrieves the identity or reports its absence as an error.
func GetOrError(ctx context.Context) (Identity, error) {
	id, ok := Get(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
