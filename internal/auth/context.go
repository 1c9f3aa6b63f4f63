// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating auth info via context

package auth

import (
	"context"
	"slices"
)

// Wildcard grants configure permission on every folder.
const Wildcard = "*"

// AuthContext holds the authenticated identity information extracted from a request.
// This is populated by the auth middleware and can be retrieved from context in handlers.
type AuthContext struct {
	PrincipalID string   // token subject, or "anonymous" when auth is disabled
	Admin       bool     // may administer assets and folders
	Configure   []string // folder IDs the principal may configure
}

// IsAdmin returns true if the principal is an administrator.
func (a *AuthContext) IsAdmin() bool {
	return a != nil && a.Admin
}

// CanConfigure reports whether the principal may change the given folder.
// Admins may configure any folder.
func (a *AuthContext) CanConfigure(folderID string) bool {
	if a == nil {
		return false
	}
	if a.Admin {
		return true
	}
	return slices.Contains(a.Configure, Wildcard) || slices.Contains(a.Configure, folderID)
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	val := ctx.Value(authContextKey{})
	if val == nil {
		return nil
	}
	auth, ok := val.(*AuthContext)
	if !ok {
		return nil
	}
	return auth
}
