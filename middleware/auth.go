// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/food-order/auth"
	"github.com/danielhkuo/food-order/models"
	"github.com/danielhkuo/food-order/revocation"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(tokenString string) (*auth.Claims, error)
}

type contextKeyClaims struct{}

// WithClaims stores validated claims in ctx
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, contextKeyClaims{}, claims)
}

// GetClaims returns the claims of the authenticated caller, or nil
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(contextKeyClaims{}).(*auth.Claims)
	return claims
}

// GetUserID returns the authenticated subject, or "" when unauthenticated
func GetUserID(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

// GetRole returns the authenticated role, or "" when unauthenticated
func GetRole(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Role
	}
	return ""
}

// Authenticator guards handlers with bearer-token checks
type Authenticator struct {
	tokens  TokenValidator
	revoked revocation.Store
}

func NewAuthenticator(tokens TokenValidator, revoked revocation.Store) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked}
}

// RequireAuth rejects requests without a valid, unrevoked bearer token
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			slog.Warn("unauthorized access - missing token", "path", r.URL.Path)
			ErrorResponse(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := a.tokens.Validate(token)
		if err != nil {
			slog.Warn("unauthorized access - invalid token", "path", r.URL.Path, "error", err)
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token has expired"
			}
			ErrorResponse(w, http.StatusUnauthorized, msg)
			return
		}

		if a.revoked != nil {
			revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				slog.Error("failed to check token revocation", "error", err)
				ErrorResponse(w, http.StatusInternalServerError, "Failed to validate token")
				return
			}
			if revoked {
				slog.Warn("unauthorized access - token revoked", "jti", claims.ID)
				ErrorResponse(w, http.StatusUnauthorized, "Token has been revoked")
				return
			}
		}

		next(w, r.WithContext(WithClaims(ctx, claims)))
	}
}

// RequireAdmin is RequireAuth plus an admin role check
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != models.RoleAdmin {
			slog.Warn("forbidden - admin role required", "user_id", GetUserID(r.Context()), "path", r.URL.Path)
			ErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}

// RequireUser is RequireAuth plus a customer role check
func (a *Authenticator) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != models.RoleUser {
			ErrorResponse(w, http.StatusForbidden, "Customer account required")
			return
		}
		next(w, r)
	})
}

// MatchesKey compares a presented key to the expected one in constant time
func MatchesKey(presented, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
