// Package auth resolves the caller identity for privileged operations.
// Token verification and the administrator role check happen here, before
// any pipeline runs; pipelines only inspect the resulting Caller.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated means no valid caller identity was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is known but is not an administrator.
	ErrForbidden = errors.New("administrator role required")
)

// Caller is a verified identity.
type Caller struct {
	UserID string
	Admin  bool
}

// RequireAdmin returns a fatal precondition error unless the caller is a
// verified administrator.
func (c Caller) RequireAdmin() error {
	if c.UserID == "" {
		return ErrUnauthenticated
	}
	if !c.Admin {
		return ErrForbidden
	}
	return nil
}

// RoleChecker confirms the administrator role for a user.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Verifier maps bearer tokens to user ids and resolves their role.
type Verifier struct {
	tokens map[string]string
	roles  RoleChecker
}

// NewVerifier creates a Verifier from a token→user map.
func NewVerifier(tokens map[string]string, roles RoleChecker) *Verifier {
	return &Verifier{tokens: tokens, roles: roles}
}

// Verify resolves a bearer token to a Caller. Unknown tokens yield
// ErrUnauthenticated; role lookup failures are returned wrapped.
func (v *Verifier) Verify(ctx context.Context, token string) (Caller, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Caller{}, ErrUnauthenticated
	}
	var userID string
	for t, u := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			userID = u
			break
		}
	}
	if userID == "" {
		return Caller{}, ErrUnauthenticated
	}
	return v.Resolve(ctx, userID)
}

// Resolve builds a Caller for an already-authenticated user id.
func (v *Verifier) Resolve(ctx context.Context, userID string) (Caller, error) {
	if userID == "" {
		return Caller{}, ErrUnauthenticated
	}
	admin, err := v.roles.IsAdmin(ctx, userID)
	if err != nil {
		return Caller{}, fmt.Errorf("check role for %s: %w", userID, err)
	}
	return Caller{UserID: userID, Admin: admin}, nil
}

// ParseTokens parses "token:user_id" pairs. Malformed entries are skipped.
func ParseTokens(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		token, user, ok := strings.Cut(p, ":")
		token, user = strings.TrimSpace(token), strings.TrimSpace(user)
		if !ok || token == "" || user == "" {
			continue
		}
		out[token] = user
	}
	return out
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type callerKey struct{}

// WithCaller attaches a verified caller to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext returns the caller attached by WithCaller. The zero Caller is
// returned when none is present.
func FromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
