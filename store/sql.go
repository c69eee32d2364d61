// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mszylkowski/reactionsbackend/db"
	"github.com/mszylkowski/reactionsbackend/models"
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore keeps polls in a sqlite or postgres database created by
// db.CreateSchema. Every operation runs in its own transaction.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(conn *sql.DB) *SQLStore {
	return &SQLStore{db: conn}
}

// OpenSQLStore connects to the database and recreates the schema
func OpenSQLStore(dbType, url string) (*SQLStore, error) {
	conn, err := db.Open(dbType, url)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return NewSQLStore(conn), nil
}

func (s *SQLStore) Ensure(ctx context.Context, pollID string) (bool, error) {
	var created bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = ensurePoll(ctx, tx, pollID)
		return err
	})
	return created, err
}

func (s *SQLStore) CastVote(ctx context.Context, pollID, clientID string, option int) (VoteOutcome, error) {
	var outcome VoteOutcome
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := ensurePoll(ctx, tx, pollID); err != nil {
			return err
		}

		choice, err := clientChoice(ctx, tx, pollID, clientID)
		if err != nil {
			return err
		}
		if choice >= 0 {
			outcome = VoteDuplicate
			return nil
		}
		if !ValidOption(option) {
			outcome = VoteOutOfRange
			return nil
		}

		// A concurrent vote by the same client can land between the check
		// above and this insert; the primary key turns it into a no-op.
		res, err := tx.ExecContext(ctx, `
			INSERT INTO vote (poll_id, client_id, synthetic, option_index)
			VALUES ($1, $2, FALSE, $3)
			ON CONFLICT (poll_id, client_id, synthetic) DO NOTHING
		`, pollID, clientID, option)
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
		outcome = VoteAccepted
		if n == 0 {
			outcome = VoteDuplicate
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logOutcome(pollID, option, outcome)
	return outcome, nil
}

func (s *SQLStore) Snapshot(ctx context.Context, pollID, clientID string) (models.PollSnapshot, error) {
	var snapshot models.PollSnapshot
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := ensurePoll(ctx, tx, pollID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT option_index, COUNT(*)
			FROM vote
			WHERE poll_id = $1
			GROUP BY option_index
		`, pollID)
		if err != nil {
			return fmt.Errorf("failed to count votes: %w", err)
		}
		defer rows.Close()

		var counts [MaxOptions]int
		for rows.Next() {
			var option, count int
			if err := rows.Scan(&option, &count); err != nil {
				return fmt.Errorf("failed to scan vote count: %w", err)
			}
			if ValidOption(option) {
				counts[option] = count
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to count votes: %w", err)
		}
		rows.Close()

		choice, err := clientChoice(ctx, tx, pollID, clientID)
		if err != nil {
			return err
		}
		snapshot = buildSnapshot(counts, choice)
		return nil
	})
	return snapshot, err
}

func (s *SQLStore) Polls(ctx context.Context) ([]models.PollSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, v.option_index, COUNT(v.client_id)
		FROM poll p
		LEFT JOIN vote v ON v.poll_id = p.id
		GROUP BY p.id, v.option_index
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	out := []models.PollSummary{}
	for rows.Next() {
		var id string
		var option sql.NullInt64
		var count int
		if err := rows.Scan(&id, &option, &count); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, models.PollSummary{ID: id, Counts: make([]int, MaxOptions)})
		}
		if option.Valid && ValidOption(int(option.Int64)) {
			out[len(out)-1].Counts[option.Int64] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vote`); err != nil {
			return fmt.Errorf("failed to clear votes: %w", err)
		}

		ids, err := pollIDs(ctx, tx)
		if err != nil {
			return err
		}

		for _, id := range ids {
			for option := 0; option < MaxOptions; option++ {
				n := fakeVoteCount()
				for i := 0; i < n; i++ {
					// postgres TEXT cannot hold the NUL prefix
					voter := strings.TrimPrefix(SyntheticClientID(option, i), syntheticPrefix)
					_, err := tx.ExecContext(ctx, `
						INSERT INTO vote (poll_id, client_id, synthetic, option_index)
						VALUES ($1, $2, TRUE, $3)
					`, id, voter, option)
					if err != nil {
						return fmt.Errorf("failed to insert fake vote: %w", err)
					}
				}
			}
		}
		return nil
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func ensurePoll(ctx context.Context, q querier, pollID string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO poll (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, pollID)
	if err != nil {
		return false, fmt.Errorf("failed to ensure poll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to ensure poll: %w", err)
	}
	if n > 0 {
		logCreated(pollID)
	}
	return n > 0, nil
}

// clientChoice returns the option clientID voted for, or -1. Synthetic
// voters never have a choice of their own.
func clientChoice(ctx context.Context, q querier, pollID, clientID string) (int, error) {
	if IsSyntheticClientID(clientID) {
		return -1, nil
	}
	var option int
	err := q.QueryRowContext(ctx, `
		SELECT option_index FROM vote
		WHERE poll_id = $1 AND client_id = $2 AND synthetic = FALSE
	`, pollID, clientID).Scan(&option)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to query vote: %w", err)
	}
	return option, nil
}

func pollIDs(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM poll ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
