// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"

	"github.com/mszylkowski/reactionsbackend/models"
)

// SendQueueSize is the number of messages a subscriber may fall behind
// before it is dropped.
const SendQueueSize = 16

// subscriber owns the outbound queue of one client. Only its writer
// goroutine touches the connection.
type subscriber struct {
	pollID string
	client Client
	send   chan []byte
}

// Hub fans poll updates out to the live subscribers of each poll. None of
// its methods wait on a subscriber write.
type Hub struct {
	clients map[string]map[Client]*subscriber
	writers conc.WaitGroup
	closed  bool
	mu      sync.Mutex
}

func New() *Hub {
	return &Hub{
		clients: make(map[string]map[Client]*subscriber),
	}
}

// Run blocks until ctx is cancelled, then closes every client and waits
// for their writers to finish.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
	h.writers.Wait()
}

// Register subscribes client to updates of pollID
func (h *Hub) Register(pollID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		client.Close()
		return
	}
	if h.clients[pollID] == nil {
		h.clients[pollID] = make(map[Client]*subscriber)
	}
	if _, ok := h.clients[pollID][client]; ok {
		return
	}
	sub := &subscriber{pollID: pollID, client: client, send: make(chan []byte, SendQueueSize)}
	h.clients[pollID][client] = sub
	h.writers.Go(func() { h.writePump(sub) })
}

// Unregister removes and closes client
func (h *Hub) Unregister(pollID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(pollID, client)
}

// Broadcast queues payload for every subscriber of pollID. Subscribers
// whose queue is full are dropped.
func (h *Hub) Broadcast(pollID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client, sub := range h.clients[pollID] {
		if !h.enqueueLocked(sub, payload) {
			slog.Warn("dropping slow live subscriber", "poll_id", pollID)
			h.removeLocked(pollID, client)
		}
	}
}

// SendTo queues payload for a single registered client and reports whether
// it was queued.
func (h *Hub) SendTo(pollID string, client Client, payload []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.clients[pollID][client]
	if !ok {
		return false
	}
	if !h.enqueueLocked(sub, payload) {
		h.removeLocked(pollID, client)
		return false
	}
	return true
}

// Publish encodes update and broadcasts it to the subscribers of its poll
func (h *Hub) Publish(update models.PollUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode poll update: %w", err)
	}
	h.Broadcast(update.PollID, payload)
	return nil
}

// Subscribers returns the number of clients following pollID
func (h *Hub) Subscribers(pollID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[pollID])
}

func (h *Hub) enqueueLocked(sub *subscriber, payload []byte) bool {
	select {
	case sub.send <- payload:
		return true
	default:
		return false
	}
}

// writePump drains the queue of sub until it is closed. After a failed
// write the rest of the queue is discarded.
func (h *Hub) writePump(sub *subscriber) {
	for payload := range sub.send {
		if err := sub.client.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("failed to write poll update", "poll_id", sub.pollID, "error", err)
			h.Unregister(sub.pollID, sub.client)
			for range sub.send {
			}
			return
		}
	}
}

// removeLocked closes the queue and the connection. Closing the connection
// unblocks a writer stuck on a slow peer.
func (h *Hub) removeLocked(pollID string, client Client) {
	sub, ok := h.clients[pollID][client]
	if !ok {
		return
	}
	delete(h.clients[pollID], client)
	if len(h.clients[pollID]) == 0 {
		delete(h.clients, pollID)
	}
	close(sub.send)
	client.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for pollID, clients := range h.clients {
		for client := range clients {
			h.removeLocked(pollID, client)
		}
	}
}
