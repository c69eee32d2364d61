// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Vote status values reported in the X-Vote-Status header
const (
	VoteStatusAccepted   = "accepted"
	VoteStatusDuplicate  = "duplicate"
	VoteStatusOutOfRange = "out_of_range"
)

// Request types

// optionSelected is a JSON number; a pointer so a missing field is detectable
type ReactRequest struct {
	OptionSelected *float64 `json:"optionSelected"`
}

// Response types

type OptionResult struct {
	OptionIndex    int  `json:"optionIndex"`
	TotalCount     int  `json:"totalCount"`
	SelectedByUser bool `json:"selectedByUser"`
}

// PollSnapshot is the per-client view of a poll returned by GET and POST
type PollSnapshot struct {
	Options []OptionResult `json:"options"`
}

// Domain types

// PollSummary is the client-independent view of a poll used by the admin page
type PollSummary struct {
	ID     string `json:"id"`
	Counts []int  `json:"counts"`
}

// Live update pushed to websocket subscribers

type OptionCount struct {
	OptionIndex int `json:"optionIndex"`
	TotalCount  int `json:"totalCount"`
}

type PollUpdate struct {
	PollID  string        `json:"pollId"`
	Options []OptionCount `json:"options"`
}

// VoteEvent is published to the message broker after an accepted vote.
// The client identifier is deliberately absent.
type VoteEvent struct {
	PollID      string    `json:"pollId"`
	OptionIndex int       `json:"optionIndex"`
	CastAt      time.Time `json:"castAt"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Update converts a summary into the broadcast message for live subscribers
func (s PollSummary) Update() PollUpdate {
	options := make([]OptionCount, len(s.Counts))
	for i, n := range s.Counts {
		options[i] = OptionCount{OptionIndex: i, TotalCount: n}
	}
	return PollUpdate{PollID: s.ID, Options: options}
}

// Update drops the per-client selection from a snapshot
func (s PollSnapshot) Update(pollID string) PollUpdate {
	options := make([]OptionCount, len(s.Options))
	for i, o := range s.Options {
		options[i] = OptionCount{OptionIndex: o.OptionIndex, TotalCount: o.TotalCount}
	}
	return PollUpdate{PollID: pollID, Options: options}
}
