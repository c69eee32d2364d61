// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mszylkowski/reactionsbackend/cliparse"
	"github.com/mszylkowski/reactionsbackend/models"
	"github.com/mszylkowski/reactionsbackend/store"
)

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		StoreBackend:   cliparse.StoreMemory,
		AllowedOrigin:  cliparse.DefaultAllowedOrigin,
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
		LogFormat:      cliparse.LogFormatText,
	}
}

// NewTestStore returns an empty in-memory poll store
func NewTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

// CastTestVote records a vote and fails the test unless it was accepted
func CastTestVote(t *testing.T, s store.PollStore, pollID, clientID string, option int) {
	t.Helper()
	outcome, err := s.CastVote(context.Background(), pollID, clientID, option)
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
	if !outcome.Accepted() {
		t.Fatalf("Expected test vote to be accepted, got %s", outcome)
	}
}

// Broadcaster records every update it is asked to publish
type Broadcaster struct {
	mu      sync.Mutex
	updates []models.PollUpdate
}

func (b *Broadcaster) Publish(update models.PollUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
	return nil
}

func (b *Broadcaster) Updates() []models.PollUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.PollUpdate(nil), b.updates...)
}

// Publisher records vote events. Err, when set, is returned from every call.
type Publisher struct {
	mu     sync.Mutex
	events []models.VoteEvent
	Err    error
}

func (p *Publisher) PublishVote(_ context.Context, event models.VoteEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *Publisher) Close() error { return nil }

func (p *Publisher) Events() []models.VoteEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.VoteEvent(nil), p.events...)
}

// ErrBroker is a canned publishing failure
var ErrBroker = errors.New("broker unavailable")

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// Counts extracts the per-option totals from a snapshot
func Counts(s models.PollSnapshot) []int {
	out := make([]int, len(s.Options))
	for i, o := range s.Options {
		out[i] = o.TotalCount
	}
	return out
}
