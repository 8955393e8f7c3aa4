// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms) and records request metrics by route pattern.

# Authentication

An Authenticator checks the bearer token and the revocation list:

	authn := middleware.NewAuthenticator(tokens, revoked)
	mux.HandleFunc("GET /api/cart", authn.RequireUser(cartHandler.Get))

RequireAuth accepts any valid token, RequireUser and RequireAdmin also
check the role claim. Handlers read the caller with GetClaims or
GetUserID.

# CORS Middleware

Enable cross-origin requests for the configured frontends:

	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigins)(mux),
	}

Requests from other origins are rejected with 403.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse and validate JSON request bodies in one step:

	var req models.AddCartItemRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
