// Package authn carries the resolved authentication context of a request.
// The context is constructed once by the transport layer's resolver and is
// immutable for the request's duration.
package authn

import (
	"context"

	"github.com/tessera-id/tessera/tenants"
)

// Type tags the access level of a caller.
type Type string

const (
	TypeClient Type = "client"
	TypeServer Type = "server"
	TypeAdmin  Type = "admin"
)

// Auth is the resolved caller identity. UserID is set only for client
// callers whose credential carries a user; server and admin callers act on
// behalf of the project, not a user.
type Auth struct {
	Type    Type
	Tenancy tenants.Tenancy
	UserID  *string
}

// ServerOrHigher reports whether the caller holds server or admin access.
func (a Auth) ServerOrHigher() bool {
	return a.Type == TypeServer || a.Type == TypeAdmin
}

type contextKey struct{}

// WithAuth attaches the resolved auth context to the request context.
func WithAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, contextKey{}, auth)
}

// FromContext retrieves the auth context placed by the resolver.
func FromContext(ctx context.Context) (Auth, bool) {
	auth, ok := ctx.Value(contextKey{}).(Auth)
	return auth, ok
}
