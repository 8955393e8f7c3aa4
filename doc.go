// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Food Order API server.

Food Order is the backend of a food ordering site: customers browse a
catalog, fill a cart, place orders and pay through Razorpay, while
administrators manage the menu, customers and order statuses.

# Starting the Server

The server requires environment variables or CLI flags for configuration.
A .env file in the working directory is loaded first if present:

	DATABASE_URL=postgres://... JWT_SECRET=... go run .

Or with flags:

	go run . -p 3000 -d "postgres://..." -jwt-secret "..."

For local development without Postgres:

	go run . -t sqlite -d food-order.db -jwt-secret dev

# Configuration

Required settings:

  - DATABASE_URL (-d): Database connection string
  - JWT_SECRET (-jwt-secret): Access token signing secret

Optional settings:

  - PORT (-p): Server port (default: 3000)
  - DATABASE_TYPE (-t): postgres (default) or sqlite
  - JWT_TTL (-jwt-ttl): Access token lifetime (default: 24h)
  - RAZORPAY_KEY_ID, RAZORPAY_KEY_SECRET: Payment gateway credentials
  - REDIS_URL (-redis): Shared token revocation list
  - ALLOWED_ORIGINS (-origins): CORS allow-list
  - ADMIN_SIGNUP_KEY (-admin-signup-key): Gate for admin registration
  - LOG_LEVEL (-log-level): debug, info, warn or error

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (users, admin, foods, cart, orders, payments)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Authentication, CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Passwords, access tokens and payment signatures
  - revocation: Logged-out token list (memory or Redis)
  - payments: Razorpay order creation
  - metrics: Prometheus collectors
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
