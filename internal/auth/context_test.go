// ABOUTME: Unit tests for authentication context functions
// ABOUTME: Tests IsAdmin, CanConfigure, and context propagation helpers

package auth

import (
	"context"
	"testing"
)

func TestAuthContext_CanConfigure(t *testing.T) {
	tests := []struct {
		name   string
		auth   *AuthContext
		folder string
		want   bool
	}{
		{"nil context", nil, "f1", false},
		{"admin", &AuthContext{Admin: true}, "f1", true},
		{"listed folder", &AuthContext{Configure: []string{"f0", "f1"}}, "f1", true},
		{"unlisted folder", &AuthContext{Configure: []string{"f0"}}, "f1", false},
		{"wildcard", &AuthContext{Configure: []string{Wildcard}}, "anything", true},
		{"no grants", &AuthContext{}, "f1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.auth.CanConfigure(tt.folder); got != tt.want {
				t.Errorf("CanConfigure(%q) = %v, want %v", tt.folder, got, tt.want)
			}
		})
	}
}

func TestAuthContext_IsAdmin(t *testing.T) {
	var nilAuth *AuthContext
	if nilAuth.IsAdmin() {
		t.Error("nil AuthContext should not be admin")
	}
	if (&AuthContext{}).IsAdmin() {
		t.Error("IsAdmin() = true for non-admin")
	}
	if !(&AuthContext{Admin: true}).IsAdmin() {
		t.Error("IsAdmin() = false for admin")
	}
}

func TestWithAuth_FromContext(t *testing.T) {
	ctx := context.Background()

	if got := FromContext(ctx); got != nil {
		t.Errorf("FromContext() on empty context = %v, want nil", got)
	}

	auth := &AuthContext{PrincipalID: "ci-bot", Configure: []string{"f1"}}
	ctx = WithAuth(ctx, auth)

	got := FromContext(ctx)
	if got != auth {
		t.Fatalf("FromContext() = %v, want %v", got, auth)
	}
	if got.PrincipalID != "ci-bot" {
		t.Errorf("PrincipalID = %q, want %q", got.PrincipalID, "ci-bot")
	}
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), authContextKey{}, "not an auth context")
	if got := FromContext(ctx); got != nil {
		t.Errorf("FromContext() = %v, want nil", got)
	}
}
