package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoles struct {
	admins map[string]bool
	err    error
}

func (f fakeRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	return f.admins[userID], f.err
}

func TestParseTokens(t *testing.T) {
	got := ParseTokens([]string{"tok-1:u1", " tok-2 : u2 ", "malformed", ":u3", "tok-4:", ""})
	assert.Equal(t, map[string]string{"tok-1": "u1", "tok-2": "u2"}, got)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"abc":          "",
		"":             "",
	}
	for header, want := range tests {
		assert.Equal(t, want, BearerToken(header), "BearerToken(%q)", header)
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier(
		map[string]string{"admin-token": "u1", "user-token": "u2"},
		fakeRoles{admins: map[string]bool{"u1": true}},
	)
	ctx := context.Background()

	c, err := v.Verify(ctx, "admin-token")
	require.NoError(t, err)
	assert.Equal(t, Caller{UserID: "u1", Admin: true}, c)
	assert.NoError(t, c.RequireAdmin())

	c, err = v.Verify(ctx, "user-token")
	require.NoError(t, err)
	assert.ErrorIs(t, c.RequireAdmin(), ErrForbidden)

	_, err = v.Verify(ctx, "unknown")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveRoleLookupFailure(t *testing.T) {
	boom := errors.New("db down")
	v := NewVerifier(nil, fakeRoles{err: boom})

	_, err := v.Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	_, err = v.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, Caller{}.RequireAdmin(), ErrUnauthenticated)
	assert.ErrorIs(t, Caller{Admin: true}.RequireAdmin(), ErrUnauthenticated)
	assert.ErrorIs(t, Caller{UserID: "u"}.RequireAdmin(), ErrForbidden)
	assert.NoError(t, Caller{UserID: "u", Admin: true}.RequireAdmin())
}

func TestCallerContext(t *testing.T) {
	assert.Equal(t, Caller{}, FromContext(context.Background()))

	ctx := WithCaller(context.Background(), Caller{UserID: "u1", Admin: true})
	assert.Equal(t, Caller{UserID: "u1", Admin: true}, FromContext(ctx))
}
