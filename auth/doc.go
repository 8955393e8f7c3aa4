// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, access tokens and payment signatures.

# Passwords

Passwords are stored as bcrypt hashes (default cost):

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(password, hash) // ErrInvalidCredentials on mismatch

# Access Tokens

Access tokens are HS256 JWTs with the user or admin ID as subject, a role
claim and a random jti used by the revocation list:

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	token, claims, err := issuer.Issue(userID, models.RoleUser)
	claims, err = issuer.Validate(token)

Only HMAC signing methods are accepted and the issuer must be "food-order".

# Payment Signatures

The Razorpay checkout returns a signature over "order_id|payment_id":

	err := auth.VerifyPaymentSignature(orderID, paymentID, signature, keySecret)

Comparison uses hmac.Equal.

# Payment Session Tokens

Short-lived (15 minute) tokens signed with the gateway key secret:

	token, err := auth.NewSessionToken(userID, keySecret, time.Now())

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
