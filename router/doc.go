// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Food Order API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, revoked, gateway)

# Endpoints

Health and monitoring:

	GET /health
	GET /metrics

Customers:

	POST /api/v1/users/signup  - Register
	POST /api/v1/users/login   - Get an access token
	POST /api/v1/users/logout  - Revoke the token (any role)
	GET  /api/v1/users/profile - Own profile
	PUT  /api/v1/users/profile - Update own profile

Administration (admin token, except signup and login):

	POST   /api/admin/signup             - Register admin
	POST   /api/admin/login              - Admin access token
	GET    /api/admin/users              - List customers
	DELETE /api/admin/users/{id}         - Delete customer
	GET    /api/admin/orders             - List orders (?status=)
	PUT    /api/admin/orders/{id}/status - Set order status
	PUT    /api/admin/foods/{id}         - Edit menu item
	DELETE /api/admin/foods/{id}         - Remove menu item

Catalog:

	GET  /api/v1/foods      - List items (?category=, ?available=)
	GET  /api/v1/foods/{id} - Item details
	POST /api/v1/foods      - Create item (admin)

Cart, orders and payments (customer token):

	GET    /api/cart
	DELETE /api/cart
	POST   /api/cart/items
	PUT    /api/cart/items/{foodId}
	DELETE /api/cart/items/{foodId}
	POST   /api/v1/order
	GET    /api/v1/order
	GET    /api/v1/order/{id}
	POST   /api/v1/order/{id}/cancel
	POST   /api/v1/payment/create-order
	POST   /api/v1/payment/verify-payment
	POST   /api/v1/payment/session-token

# Handler Initialization

The router builds one token issuer and authenticator and shares them
between the handlers and the auth middleware. CORS is applied by the
caller around the returned mux.
*/
package router
