// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/mszylkowski/reactionsbackend/events"
	"github.com/mszylkowski/reactionsbackend/middleware"
	"github.com/mszylkowski/reactionsbackend/models"
	"github.com/mszylkowski/reactionsbackend/store"
)

// VoteStatusHeader reports whether a POST .../react call recorded the vote
const VoteStatusHeader = "X-Vote-Status"

// Broadcaster pushes fresh counts to live subscribers
type Broadcaster interface {
	Publish(update models.PollUpdate) error
}

type PollHandler struct {
	store     store.PollStore
	live      Broadcaster
	publisher events.Publisher
}

func NewPollHandler(s store.PollStore, live Broadcaster, publisher events.Publisher) *PollHandler {
	return &PollHandler{store: s, live: live, publisher: publisher}
}

// GetPoll handles GET /interactives/{pollId}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	clientID := r.URL.Query().Get("clientId")
	if store.IsSyntheticClientID(clientID) {
		clientID = ""
	}

	snapshot, err := h.store.Snapshot(r.Context(), pollID, clientID)
	if err != nil {
		slog.Error("failed to load poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snapshot)
}

// React handles POST /interactives/{pollId}/react
func (h *PollHandler) React(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" || store.IsSyntheticClientID(clientID) {
		middleware.EmptyResponse(w, http.StatusBadRequest)
		return
	}

	var req models.ReactRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil || req.OptionSelected == nil {
		middleware.EmptyResponse(w, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	option := optionIndex(*req.OptionSelected)

	outcome, err := h.store.CastVote(ctx, pollID, clientID, option)
	if err != nil {
		slog.Error("failed to cast vote", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}

	snapshot, err := h.store.Snapshot(ctx, pollID, clientID)
	if err != nil {
		slog.Error("failed to load poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
		return
	}

	if outcome.Accepted() {
		event := models.VoteEvent{PollID: pollID, OptionIndex: option, CastAt: time.Now().UTC()}
		if err := h.publisher.PublishVote(ctx, event); err != nil {
			slog.Warn("failed to publish vote event", "poll_id", pollID, "error", err)
		}
		if err := h.live.Publish(snapshot.Update(pollID)); err != nil {
			slog.Warn("failed to broadcast poll update", "poll_id", pollID, "error", err)
		}
	}

	w.Header().Set(VoteStatusHeader, outcome.String())
	middleware.JSONResponse(w, http.StatusOK, snapshot)
}

// Fake handles GET /fake
func (h *PollHandler) Fake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.Reset(ctx); err != nil {
		slog.Error("failed to reset polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset polls")
		return
	}

	polls, err := h.store.Polls(ctx)
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list polls")
		return
	}
	for _, p := range polls {
		if err := h.live.Publish(p.Update()); err != nil {
			slog.Warn("failed to broadcast poll update", "poll_id", p.ID, "error", err)
		}
	}

	slog.Info("polls reset with fake votes", "polls", len(polls))
	http.Redirect(w, r, "/", http.StatusFound)
}

// optionIndex maps a JSON number to a slot index. Fractional and
// non-finite values map to -1, which the store reports as out of range.
func optionIndex(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return -1
	}
	if f < -1 || f > store.MaxOptions {
		return -1
	}
	return int(f)
}
