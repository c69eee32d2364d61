// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mszylkowski/reactionsbackend/hub"
	"github.com/mszylkowski/reactionsbackend/models"
	"github.com/mszylkowski/reactionsbackend/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *testutil.Publisher) {
	t.Helper()
	h := hub.New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)

	pub := &testutil.Publisher{}
	return NewRouter(Deps{
		Store:     testutil.NewTestStore(t),
		Hub:       h,
		Publisher: pub,
		Config:    testutil.GetTestConfig(),
	}), pub
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Polls results") {
		t.Errorf("Expected admin page, got '%s'", w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/", http.StatusOK},
		{"GET", "/interactives/p1", http.StatusOK},
		{"GET", "/interactives/p1?clientId=alice", http.StatusOK},
		// no body
		{"POST", "/interactives/p1/react?clientId=alice", http.StatusBadRequest},
		{"GET", "/fake", http.StatusFound},
		// plain GET without upgrade headers
		{"GET", "/interactives/p1/live", http.StatusBadRequest},
		{"OPTIONS", "/interactives/p1/react", http.StatusNoContent},
		{"GET", "/unknown", http.StatusNotFound},
		{"GET", "/interactives", http.StatusNotFound},
		{"DELETE", "/interactives/p1", http.StatusMethodNotAllowed},
		{"GET", "/interactives/p1/react", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestCORSHeadersOnEveryRoute(t *testing.T) {
	mux, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/", "/interactives/p1"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Origin", "http://localhost:8000")
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8000" {
			t.Errorf("%s: expected allowed origin header, got '%s'", path, got)
		}
	}
}

// TestFullVotingWorkflow walks two clients through voting, rejection and a
// demo reset using only the HTTP surface
func TestFullVotingWorkflow(t *testing.T) {
	mux, pub := newTestRouter(t)

	react := func(clientID string, option int) (models.PollSnapshot, string) {
		t.Helper()
		req := testutil.MakeRequest("POST", "/interactives/quiz/react?clientId="+clientID,
			map[string]int{"optionSelected": option}, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var snap models.PollSnapshot
		testutil.AssertJSON(t, w, &snap)
		return snap, w.Header().Get("X-Vote-Status")
	}

	get := func(clientID string) models.PollSnapshot {
		t.Helper()
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/interactives/quiz?clientId="+clientID, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var snap models.PollSnapshot
		testutil.AssertJSON(t, w, &snap)
		return snap
	}

	// Step 1: first read creates an empty poll
	snap := get("alice")
	if got := testutil.Counts(snap); !slices.Equal(got, []int{0, 0, 0, 0}) {
		t.Fatalf("Expected empty poll, got %v", got)
	}

	// Step 2: alice and bob both pick option 1
	if _, status := react("alice", 1); status != models.VoteStatusAccepted {
		t.Fatalf("Expected alice's vote accepted, got %q", status)
	}
	snap, status := react("bob", 1)
	if status != models.VoteStatusAccepted {
		t.Fatalf("Expected bob's vote accepted, got %q", status)
	}
	if got := testutil.Counts(snap); !slices.Equal(got, []int{0, 2, 0, 0}) {
		t.Errorf("Expected [0 2 0 0], got %v", got)
	}

	// Step 3: alice cannot change the vote
	snap, status = react("alice", 2)
	if status != models.VoteStatusDuplicate {
		t.Errorf("Expected duplicate, got %q", status)
	}
	if !snap.Options[1].SelectedByUser || snap.Options[2].SelectedByUser {
		t.Error("Expected alice's original choice to stand")
	}

	// Step 4: carol picks an option that does not exist
	if _, status = react("carol", 7); status != models.VoteStatusOutOfRange {
		t.Errorf("Expected out_of_range, got %q", status)
	}

	// Step 5: a client that never voted sees counts but no selection
	for _, o := range get("dave").Options {
		if o.SelectedByUser {
			t.Error("Expected no selection for dave")
		}
	}

	if got := len(pub.Events()); got != 2 {
		t.Errorf("Expected 2 vote events, got %d", got)
	}

	// Step 6: demo reset redirects to the admin page and drops real votes
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/fake", nil))
	testutil.AssertStatus(t, w, http.StatusFound)

	for _, o := range get("alice").Options {
		if o.SelectedByUser {
			t.Error("Expected reset to clear alice's vote")
		}
		if o.TotalCount < 0 || o.TotalCount >= 10 {
			t.Errorf("Expected fake count in [0,10), got %d", o.TotalCount)
		}
	}
	if _, status = react("alice", 0); status != models.VoteStatusAccepted {
		t.Errorf("Expected alice to vote again after reset, got %q", status)
	}
}
