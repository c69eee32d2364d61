// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/mszylkowski/reactionsbackend/models"
)

const (
	// MaxOptions is the fixed number of option slots in every poll
	MaxOptions = 4

	// FakeMaxVotes bounds the synthetic vote count per slot after Reset
	FakeMaxVotes = 10

	// syntheticPrefix starts every fake voter id. A NUL byte never
	// appears in an identifier a browser sends.
	syntheticPrefix = "\x00"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// PollStore owns all poll state. Every method is atomic with respect to the
// others, and every method that names a poll creates it if it is missing.
type PollStore interface {
	// Ensure creates the poll with empty slots if absent and reports
	// whether it did.
	Ensure(ctx context.Context, pollID string) (bool, error)

	// CastVote records one vote for clientID. A client that already voted
	// in the poll is rejected before the option is checked against bounds.
	CastVote(ctx context.Context, pollID, clientID string, option int) (VoteOutcome, error)

	// Snapshot returns per-option counts and whether clientID chose each one.
	Snapshot(ctx context.Context, pollID, clientID string) (models.PollSnapshot, error)

	// Polls lists every poll, sorted by id.
	Polls(ctx context.Context) ([]models.PollSummary, error)

	// Reset replaces every vote with a random number of synthetic votes.
	// Used for demos only.
	Reset(ctx context.Context) error

	Close() error
}

// VoteOutcome is the result of a CastVote call
type VoteOutcome int

const (
	VoteAccepted VoteOutcome = iota + 1
	VoteDuplicate
	VoteOutOfRange
)

// Accepted reports whether the vote was recorded
func (o VoteOutcome) Accepted() bool {
	return o == VoteAccepted
}

func (o VoteOutcome) String() string {
	switch o {
	case VoteAccepted:
		return models.VoteStatusAccepted
	case VoteDuplicate:
		return models.VoteStatusDuplicate
	case VoteOutOfRange:
		return models.VoteStatusOutOfRange
	}
	return "unknown"
}

// ValidOption reports whether option names one of the slots
func ValidOption(option int) bool {
	return option >= 0 && option < MaxOptions
}

// SyntheticClientID labels the n-th fake voter of a slot. Real client
// identifiers are never allowed to carry the same prefix.
func SyntheticClientID(option, n int) string {
	return syntheticPrefix + strconv.Itoa(option) + ":" + strconv.Itoa(n)
}

// IsSyntheticClientID reports whether id is reserved for fake votes
func IsSyntheticClientID(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

// fakeVoteCount picks how many synthetic votes a slot gets on Reset
var fakeVoteCount = func() int {
	return rand.IntN(FakeMaxVotes)
}

// buildSnapshot assembles the response for counts and the client's choice
// (-1 when the client has not voted).
func buildSnapshot(counts [MaxOptions]int, selected int) models.PollSnapshot {
	options := make([]models.OptionResult, MaxOptions)
	for i := range options {
		options[i] = models.OptionResult{
			OptionIndex:    i,
			TotalCount:     counts[i],
			SelectedByUser: i == selected,
		}
	}
	return models.PollSnapshot{Options: options}
}

func logCreated(pollID string) {
	slog.Info("poll created", "poll_id", pollID)
}

func logOutcome(pollID string, option int, outcome VoteOutcome) {
	switch outcome {
	case VoteAccepted:
		slog.Info("vote cast", "poll_id", pollID, "option", option)
	case VoteDuplicate:
		slog.Info("vote duplicate", "poll_id", pollID, "option", option)
	case VoteOutOfRange:
		slog.Info("vote outside bounds", "poll_id", pollID, "option", option)
	}
}
