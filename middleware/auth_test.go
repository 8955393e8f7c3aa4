// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/revocation"
)

const testSecret = "middleware-test-secret"

type failingStore struct{}

func (failingStore) Revoke(context.Context, string, time.Duration) error { return nil }
func (failingStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *auth.TokenIssuer, *revocation.MemoryStore) {
	t.Helper()
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	store := revocation.NewMemoryStore()
	return NewAuthenticator(issuer, store), issuer, store
}

func protectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, http.StatusOK, map[string]string{
			"user_id": GetUserID(r.Context()),
			"role":    GetRole(r.Context()),
		})
	}
}

func doRequest(h http.HandlerFunc, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/cart", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	a, issuer, store := newTestAuthenticator(t)
	h := a.RequireAuth(protectedHandler())

	token, claims, err := issuer.Issue("user-1", models.RoleUser)
	require.NoError(t, err)

	t.Run("valid token sets claims", func(t *testing.T) {
		w := doRequest(h, "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user-1","role":"user"}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(h, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := doRequest(h, "Basic "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, _, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue("user-1", models.RoleUser)
		require.NoError(t, err)
		w := doRequest(h, "Bearer "+other)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("expired token", func(t *testing.T) {
		expired, _, err := auth.NewTokenIssuer(testSecret, -time.Minute).Issue("user-1", models.RoleUser)
		require.NoError(t, err)
		w := doRequest(h, "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token has expired")
	})

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, store.Revoke(context.Background(), claims.ID, time.Hour))
		w := doRequest(h, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})
}

func TestRequireAuth_RevocationStoreError(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	a := NewAuthenticator(issuer, failingStore{})

	token, _, err := issuer.Issue("user-1", models.RoleUser)
	require.NoError(t, err)

	w := doRequest(a.RequireAuth(protectedHandler()), "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	a, issuer, _ := newTestAuthenticator(t)
	h := a.RequireAdmin(protectedHandler())

	adminToken, _, err := issuer.Issue("admin-1", models.RoleAdmin)
	require.NoError(t, err)
	userToken, _, err := issuer.Issue("user-1", models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doRequest(h, "Bearer "+adminToken).Code)

	w := doRequest(h, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Admin access required")

	assert.Equal(t, http.StatusUnauthorized, doRequest(h, "").Code)
}

func TestRequireUser(t *testing.T) {
	a, issuer, _ := newTestAuthenticator(t)
	h := a.RequireUser(protectedHandler())

	adminToken, _, err := issuer.Issue("admin-1", models.RoleAdmin)
	require.NoError(t, err)
	userToken, _, err := issuer.Issue("user-1", models.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doRequest(h, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(h, "Bearer "+adminToken).Code)
}

func TestGetClaims_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetClaims(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetRole(ctx))
}

func TestMatchesKey(t *testing.T) {
	assert.True(t, MatchesKey("let-me-in", "let-me-in"))
	assert.False(t, MatchesKey("let-me-in", "let-me-out"))
	assert.False(t, MatchesKey("", "let-me-in"))
}
