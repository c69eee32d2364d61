// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/mszylkowski/reactionsbackend/hub"
	"github.com/mszylkowski/reactionsbackend/store"
)

const maxInboundMessage = 512

type LiveHandler struct {
	store    store.PollStore
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewLiveHandler accepts websocket connections from allowedOrigin or from
// pages served by this host.
func NewLiveHandler(s store.PollStore, h *hub.Hub, allowedOrigin string) *LiveHandler {
	return &LiveHandler{
		store: s,
		hub:   h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || origin == allowedOrigin {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// Stream handles GET /interactives/{pollId}/live
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")

	// Upgrade writes its own error response
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "poll_id", pollID, "error", err)
		return
	}

	// Register before reading the counts so no vote lands between the
	// snapshot and the subscription. A subscriber may see an update
	// ahead of the snapshot that already includes it.
	client := hub.NewWebsocketClient(conn)
	h.hub.Register(pollID, client)
	defer h.hub.Unregister(pollID, client)

	snapshot, err := h.store.Snapshot(r.Context(), pollID, "")
	if err != nil {
		slog.Error("failed to load poll", "poll_id", pollID, "error", err)
		return
	}
	initial, err := json.Marshal(snapshot.Update(pollID))
	if err != nil {
		slog.Error("failed to encode poll update", "poll_id", pollID, "error", err)
		return
	}
	if !h.hub.SendTo(pollID, client, initial) {
		slog.Warn("failed to send initial counts", "poll_id", pollID)
		return
	}
	slog.Info("live subscriber joined", "poll_id", pollID, "remote", conn.RemoteAddr().String())

	// Subscribers only listen. Reading keeps control frames flowing and
	// notices when the peer goes away.
	conn.SetReadLimit(maxInboundMessage)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	slog.Info("live subscriber left", "poll_id", pollID)
}
