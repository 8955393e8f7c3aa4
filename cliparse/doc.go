// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p                 Server port
	-d                 Database URL
	-t                 Database type (postgres or sqlite)
	-redis             Redis URL for the revocation list
	-origins           Allowed CORS origins, comma separated
	-log-level         debug, info, warn or error
	-jwt-secret        Access token secret
	-jwt-ttl           Access token lifetime
	-razorpay-key      Razorpay key id
	-razorpay-secret   Razorpay key secret
	-admin-signup-key  Admin registration key

# Environment Variables

Flags fall back to environment variables:

	PORT, DATABASE_URL, DATABASE_TYPE, REDIS_URL, ALLOWED_ORIGINS,
	LOG_LEVEL, JWT_SECRET, JWT_TTL, RAZORPAY_KEY_ID,
	RAZORPAY_KEY_SECRET, ADMIN_SIGNUP_KEY

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - no database URL is provided
  - JWT_SECRET is missing
  - PORT, JWT_TTL or LOG_LEVEL cannot be parsed
*/
package cliparse
