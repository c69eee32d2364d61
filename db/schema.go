// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types understood by Open
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to a sqlite or postgres database and verifies the connection
func Open(dbType, url string) (*sql.DB, error) {
	switch dbType {
	case TypeSQLite, TypePostgres:
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(dbType, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	if dbType == TypeSQLite {
		// An in-memory database lives as long as one of its connections does,
		// and sqlite serialises writers anyway.
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxIdleTime(0)
		conn.SetConnMaxLifetime(0)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dbType, err)
	}
	return conn, nil
}

// CreateSchema drops and recreates all tables. Poll data never outlives
// the process, so any rows left by a previous run are discarded.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range []string{dropSchema, schema} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

const dropSchema = `
DROP TABLE IF EXISTS vote;
DROP TABLE IF EXISTS poll;
`

const schema = `
-- Polls
CREATE TABLE poll (
    id TEXT PRIMARY KEY
);

-- Votes, one row per client per poll. Fake voters added by a reset are
-- flagged synthetic and never collide with real clients.
CREATE TABLE vote (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    client_id TEXT NOT NULL,
    synthetic BOOLEAN NOT NULL DEFAULT FALSE,
    option_index INTEGER NOT NULL CHECK (option_index >= 0 AND option_index < 4),
    PRIMARY KEY (poll_id, client_id, synthetic)
);

CREATE INDEX idx_vote_poll_option ON vote(poll_id, option_index);
`
