// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mszylkowski/reactionsbackend/models"
	"github.com/mszylkowski/reactionsbackend/testutil"
)

func newTestPollHandler(t *testing.T) (*PollHandler, *testutil.Broadcaster, *testutil.Publisher) {
	t.Helper()
	live := &testutil.Broadcaster{}
	pub := &testutil.Publisher{}
	return NewPollHandler(testutil.NewTestStore(t), live, pub), live, pub
}

func reactRequest(pollID, query, body string) *http.Request {
	path := "/interactives/" + pollID + "/react"
	if query != "" {
		path += "?" + query
	}
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest("POST", path, nil)
	} else {
		req = httptest.NewRequest("POST", path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetPathValue("pollId", pollID)
	return req
}

func TestGetPoll(t *testing.T) {
	h, _, _ := newTestPollHandler(t)
	testutil.CastTestVote(t, h.store, "poll1", "alice", 1)
	testutil.CastTestVote(t, h.store, "poll1", "bob", 1)
	testutil.CastTestVote(t, h.store, "poll1", "carol", 3)

	testCases := []struct {
		name         string
		pollID       string
		query        string
		wantCounts   []int
		wantSelected int
	}{
		{"voter sees own choice", "poll1", "clientId=alice", []int{0, 2, 0, 1}, 1},
		{"other voter", "poll1", "clientId=carol", []int{0, 2, 0, 1}, 3},
		{"non voter", "poll1", "clientId=dave", []int{0, 2, 0, 1}, -1},
		{"no client id", "poll1", "", []int{0, 2, 0, 1}, -1},
		{"unknown poll is created empty", "poll2", "clientId=alice", []int{0, 0, 0, 0}, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := "/interactives/" + tc.pollID
			if tc.query != "" {
				path += "?" + tc.query
			}
			req := httptest.NewRequest("GET", path, nil)
			req.SetPathValue("pollId", tc.pollID)
			w := httptest.NewRecorder()

			h.GetPoll(w, req)

			testutil.AssertStatus(t, w, http.StatusOK)

			var resp models.PollSnapshot
			testutil.AssertJSON(t, w, &resp)

			if len(resp.Options) != 4 {
				t.Fatalf("Expected 4 options, got %d", len(resp.Options))
			}
			for i, o := range resp.Options {
				if o.OptionIndex != i {
					t.Errorf("Expected option index %d, got %d", i, o.OptionIndex)
				}
				if o.TotalCount != tc.wantCounts[i] {
					t.Errorf("Option %d: expected %d votes, got %d", i, tc.wantCounts[i], o.TotalCount)
				}
				if o.SelectedByUser != (i == tc.wantSelected) {
					t.Errorf("Option %d: unexpected selectedByUser %v", i, o.SelectedByUser)
				}
			}
		})
	}
}

func TestReact(t *testing.T) {
	h, live, pub := newTestPollHandler(t)

	req := reactRequest("poll1", "clientId=alice", `{"optionSelected":2}`)
	w := httptest.NewRecorder()

	h.React(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if got := w.Header().Get(VoteStatusHeader); got != models.VoteStatusAccepted {
		t.Errorf("Expected vote status %q, got %q", models.VoteStatusAccepted, got)
	}

	var resp models.PollSnapshot
	testutil.AssertJSON(t, w, &resp)
	if resp.Options[2].TotalCount != 1 || !resp.Options[2].SelectedByUser {
		t.Errorf("Expected option 2 to have alice's vote, got %+v", resp.Options[2])
	}

	events := pub.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 vote event, got %d", len(events))
	}
	if events[0].PollID != "poll1" || events[0].OptionIndex != 2 || events[0].CastAt.IsZero() {
		t.Errorf("Unexpected vote event %+v", events[0])
	}

	updates := live.Updates()
	if len(updates) != 1 {
		t.Fatalf("Expected 1 live update, got %d", len(updates))
	}
	if updates[0].PollID != "poll1" || updates[0].Options[2].TotalCount != 1 {
		t.Errorf("Unexpected live update %+v", updates[0])
	}
}

func TestReactRejectionsKeepSnapshotShape(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantStatus string
		wantCounts []int
		wantPicked int
	}{
		{"duplicate same option", `{"optionSelected":0}`, models.VoteStatusDuplicate, []int{1, 0, 0, 0}, 0},
		{"duplicate other option", `{"optionSelected":3}`, models.VoteStatusDuplicate, []int{1, 0, 0, 0}, 0},
		{"duplicate beats bounds", `{"optionSelected":9}`, models.VoteStatusDuplicate, []int{1, 0, 0, 0}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, live, pub := newTestPollHandler(t)
			testutil.CastTestVote(t, h.store, "poll1", "alice", 0)

			w := httptest.NewRecorder()
			h.React(w, reactRequest("poll1", "clientId=alice", tc.body))

			testutil.AssertStatus(t, w, http.StatusOK)
			if got := w.Header().Get(VoteStatusHeader); got != tc.wantStatus {
				t.Errorf("Expected vote status %q, got %q", tc.wantStatus, got)
			}

			var resp models.PollSnapshot
			testutil.AssertJSON(t, w, &resp)
			for i, n := range testutil.Counts(resp) {
				if n != tc.wantCounts[i] {
					t.Errorf("Option %d: expected %d votes, got %d", i, tc.wantCounts[i], n)
				}
			}
			if !resp.Options[tc.wantPicked].SelectedByUser {
				t.Error("Expected original choice to remain selected")
			}

			if len(pub.Events()) != 0 || len(live.Updates()) != 0 {
				t.Error("Rejected votes must not be published")
			}
		})
	}
}

func TestReactOutOfRange(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"negative", `{"optionSelected":-1}`},
		{"too large", `{"optionSelected":4}`},
		{"far too large", `{"optionSelected":1e300}`},
		{"fractional", `{"optionSelected":1.5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, pub := newTestPollHandler(t)

			w := httptest.NewRecorder()
			h.React(w, reactRequest("poll1", "clientId=alice", tc.body))

			testutil.AssertStatus(t, w, http.StatusOK)
			if got := w.Header().Get(VoteStatusHeader); got != models.VoteStatusOutOfRange {
				t.Errorf("Expected vote status %q, got %q", models.VoteStatusOutOfRange, got)
			}

			var resp models.PollSnapshot
			testutil.AssertJSON(t, w, &resp)
			for i, o := range resp.Options {
				if o.TotalCount != 0 || o.SelectedByUser {
					t.Errorf("Option %d should be untouched, got %+v", i, o)
				}
			}
			if len(pub.Events()) != 0 {
				t.Error("Rejected votes must not be published")
			}

			// the client may still vote after an out of range attempt
			w = httptest.NewRecorder()
			h.React(w, reactRequest("poll1", "clientId=alice", `{"optionSelected":1}`))
			if got := w.Header().Get(VoteStatusHeader); got != models.VoteStatusAccepted {
				t.Errorf("Expected follow-up vote to be accepted, got %q", got)
			}
		})
	}
}

func TestReactBadRequest(t *testing.T) {
	testCases := []struct {
		name  string
		query string
		body  string
	}{
		{"missing client id", "", `{"optionSelected":1}`},
		{"empty client id", "clientId=", `{"optionSelected":1}`},
		{"reserved client id", "clientId=%000:1", `{"optionSelected":1}`},
		{"missing body", "clientId=alice", ""},
		{"invalid json", "clientId=alice", `{not json}`},
		{"missing option", "clientId=alice", `{}`},
		{"null option", "clientId=alice", `{"optionSelected":null}`},
		{"string option", "clientId=alice", `{"optionSelected":"1"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, live, pub := newTestPollHandler(t)

			w := httptest.NewRecorder()
			h.React(w, reactRequest("poll1", tc.query, tc.body))

			testutil.AssertStatus(t, w, http.StatusBadRequest)
			if w.Body.Len() != 0 {
				t.Errorf("Expected empty body, got %q", w.Body.String())
			}

			polls, err := h.store.Polls(t.Context())
			if err != nil {
				t.Fatalf("Failed to list polls: %v", err)
			}
			if len(polls) != 0 {
				t.Errorf("Expected store to be untouched, got %d polls", len(polls))
			}
			if len(pub.Events()) != 0 || len(live.Updates()) != 0 {
				t.Error("Expected nothing to be published")
			}
		})
	}
}

func TestReactPublishFailureStillAccepts(t *testing.T) {
	live := &testutil.Broadcaster{}
	pub := &testutil.Publisher{Err: testutil.ErrBroker}
	h := NewPollHandler(testutil.NewTestStore(t), live, pub)

	w := httptest.NewRecorder()
	h.React(w, reactRequest("poll1", "clientId=alice", `{"optionSelected":0}`))

	testutil.AssertStatus(t, w, http.StatusOK)
	if got := w.Header().Get(VoteStatusHeader); got != models.VoteStatusAccepted {
		t.Errorf("Expected vote status %q, got %q", models.VoteStatusAccepted, got)
	}
	if len(live.Updates()) != 1 {
		t.Error("Expected live update despite broker failure")
	}
}

func TestFake(t *testing.T) {
	h, live, _ := newTestPollHandler(t)
	testutil.CastTestVote(t, h.store, "poll1", "alice", 0)
	testutil.CastTestVote(t, h.store, "poll2", "bob", 1)

	// a reset may legitimately draw all zeros, so retry a few times
	// until some synthetic vote lands
	total, rounds := 0, 0
	for total == 0 && rounds < 5 {
		rounds++
		w := httptest.NewRecorder()
		h.Fake(w, httptest.NewRequest("GET", "/fake", nil))

		testutil.AssertStatus(t, w, http.StatusFound)
		if loc := w.Header().Get("Location"); loc != "/" {
			t.Errorf("Expected redirect to /, got %q", loc)
		}

		polls, err := h.store.Polls(t.Context())
		if err != nil {
			t.Fatalf("Failed to list polls: %v", err)
		}
		if len(polls) != 2 {
			t.Fatalf("Expected 2 polls after reset, got %d", len(polls))
		}
		for _, p := range polls {
			for i, n := range p.Counts {
				if n < 0 || n >= 10 {
					t.Errorf("Poll %s option %d: count %d outside [0,10)", p.ID, i, n)
				}
				total += n
			}
		}
	}
	if total == 0 {
		t.Fatalf("Expected synthetic votes after %d resets, got none", rounds)
	}

	// real voters are gone, so the client may vote again
	snap, err := h.store.Snapshot(t.Context(), "poll1", "alice")
	if err != nil {
		t.Fatalf("Failed to load poll: %v", err)
	}
	for _, o := range snap.Options {
		if o.SelectedByUser {
			t.Error("Expected reset to remove real votes")
		}
	}
	w := httptest.NewRecorder()
	h.React(w, reactRequest("poll1", "clientId=alice", `{"optionSelected":2}`))
	if got := w.Header().Get(VoteStatusHeader); got != models.VoteStatusAccepted {
		t.Errorf("Expected vote after reset to be accepted, got %q", got)
	}

	// one update per poll per reset, then one for the vote
	if got, want := len(live.Updates()), 2*rounds+1; got != want {
		t.Errorf("Expected %d live updates, got %d", want, got)
	}
}

func TestReactLookalikeClientID(t *testing.T) {
	h, _, _ := newTestPollHandler(t)

	for _, id := range []string{"fake:0:1", "0:1"} {
		w := httptest.NewRecorder()
		h.React(w, reactRequest("poll1", "clientId="+id, `{"optionSelected":0}`))
		testutil.AssertStatus(t, w, http.StatusOK)
		if got := w.Header().Get(VoteStatusHeader); got != models.VoteStatusAccepted {
			t.Errorf("Client %q: expected accepted, got %q", id, got)
		}
	}
}

func TestGetPollReservedClientID(t *testing.T) {
	h, _, _ := newTestPollHandler(t)
	testutil.CastTestVote(t, h.store, "poll1", "alice", 1)

	req := httptest.NewRequest("GET", "/interactives/poll1?clientId=%000:0", nil)
	req.SetPathValue("pollId", "poll1")
	w := httptest.NewRecorder()
	h.GetPoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var snap models.PollSnapshot
	testutil.AssertJSON(t, w, &snap)
	for _, o := range snap.Options {
		if o.SelectedByUser {
			t.Errorf("Option %d: reserved client must not be reported as a voter", o.OptionIndex)
		}
	}
}

func TestFakeWithoutPolls(t *testing.T) {
	h, live, _ := newTestPollHandler(t)

	w := httptest.NewRecorder()
	h.Fake(w, httptest.NewRequest("GET", "/fake", nil))

	testutil.AssertStatus(t, w, http.StatusFound)
	if len(live.Updates()) != 0 {
		t.Error("Expected no updates without polls")
	}
}

func TestOptionIndex(t *testing.T) {
	testCases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{3, 3},
		{4, 4},
		{-1, -1},
		{-7, -1},
		{2.5, -1},
		{1e18, -1},
	}

	for _, tc := range testCases {
		if got := optionIndex(tc.in); got != tc.want {
			t.Errorf("optionIndex(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
