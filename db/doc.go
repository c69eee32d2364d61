// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens SQL databases and manages the poll schema.

# Connecting

Open supports the sqlite (modernc.org/sqlite, no cgo) and postgres
(lib/pq) drivers and pings before returning:

	conn, err := db.Open(db.TypePostgres, cfg.DatabaseURL)

In-memory sqlite URLs need cache=shared so every connection sees the same
database:

	file:reactions?mode=memory&cache=shared

# Schema Creation

CreateSchema drops and recreates all tables. Polls are not meant to survive
a restart, so it runs on every startup:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

# Tables

  - poll: one row per poll id
  - vote: one row per client per poll, with the chosen option (0-3) and
    a synthetic flag marking fake voters added by a reset

# Relationships

	poll 1──* vote

The vote primary key (poll_id, client_id, synthetic) enforces one vote per
client per poll. A fake voter never blocks a real client with the same id. Deleting a poll cascades to its votes.

# Indexes

  - vote.(poll_id, option_index) for per-option counts
*/
package db
