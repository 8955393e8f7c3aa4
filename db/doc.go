// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open supports PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Queries use $N placeholders, which both drivers accept.

# Tables

  - users: Customer accounts
  - admins: Administrator accounts
  - foods: Catalog items
  - cart_items: One row per (user, food) with quantity 1..50
  - orders: Placed orders with status and payment state
  - order_items: Name and price snapshots per order
  - payment_orders: The gateway order issued for an order, at most one each

# Relationships

	users 1──* cart_items *──1 foods
	orders 1──* order_items
	orders 1──1 payment_orders

Cart rows cascade on user or food deletion. Orders keep user_id without
a foreign key so history survives account deletion.
*/
package db
