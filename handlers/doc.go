// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Food Order API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Customer signup, login, logout and profile
  - AdminHandler: Admin accounts, customer management, order status, menu edits
  - FoodHandler: Catalog browsing and item creation
  - CartHandler: The caller's cart
  - OrderHandler: Checkout, order history and cancellation
  - PaymentHandler: Razorpay orders, signature verification, session tokens

Handlers are created via constructor functions:

	foodHandler := handlers.NewFoodHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db, cfg, tokens, revoked)

Handlers behind authentication read the caller from the request context:

	userID := middleware.GetUserID(r.Context())

# Order Lifecycle

Placing an order turns the whole cart into an order in one transaction.
Names and prices are copied into the order so later menu edits do not
change history.

	Pending → Confirmed → Preparing → Out for Delivery → Delivered
	Pending/Confirmed → Cancelled (customer, while unpaid)

Delivered and Cancelled are final. A verified payment moves a Pending
order to Confirmed.

# Payments

Amounts are sent to Razorpay in paise. Verification recomputes the
HMAC-SHA256 signature over "order_id|payment_id" with the key secret
before any order is touched.

# Money

Prices and totals are rounded to two decimals on the way in.
*/
package handlers
