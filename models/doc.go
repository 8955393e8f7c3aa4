// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, validated with struct tags:

  - SignupRequest, LoginRequest, UpdateProfileRequest
  - CreateFoodRequest, UpdateFoodRequest
  - AddCartItemRequest, UpdateCartItemRequest
  - PlaceOrderRequest, UpdateOrderStatusRequest
  - CreatePaymentOrderRequest, VerifyPaymentRequest

# Response Types

  - SignupResponse, LoginResponse, MessageResponse
  - FoodResponse
  - PaymentOrderResponse, VerifyPaymentResponse, SessionTokenResponse
  - ErrorResponse: error, message

# Domain Types

  - User, Admin: accounts (password hashes never serialized)
  - Food: catalog item
  - Cart, CartLine: the caller's cart with subtotals
  - Order, OrderItem: placed orders with item snapshots
  - GatewayOrder: order created at the payment gateway

# Constants

Order statuses:

	StatusPending, StatusConfirmed, StatusPreparing,
	StatusOutForDelivery, StatusDelivered, StatusCancelled

Payment statuses:

	PaymentPending, PaymentCompleted, PaymentFailed

Roles:

	RoleUser  = "user"
	RoleAdmin = "admin"
*/
package models
