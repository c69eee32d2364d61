// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/mszylkowski/reactionsbackend/cliparse"
	"github.com/mszylkowski/reactionsbackend/events"
	"github.com/mszylkowski/reactionsbackend/handlers"
	"github.com/mszylkowski/reactionsbackend/hub"
	"github.com/mszylkowski/reactionsbackend/middleware"
	"github.com/mszylkowski/reactionsbackend/store"
)

// Deps are the long-lived services the handlers share
type Deps struct {
	Store     store.PollStore
	Hub       *hub.Hub
	Publisher events.Publisher
	Config    cliparse.Config
}

func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(deps.Store, deps.Hub, deps.Publisher)
	adminHandler := handlers.NewAdminHandler(deps.Store)
	liveHandler := handlers.NewLiveHandler(deps.Store, deps.Hub, deps.Config.AllowedOrigin)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Polls (public, identified by clientId query parameter)
	mux.HandleFunc("GET /interactives/{pollId}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("POST /interactives/{pollId}/react", middleware.WithLogging(pollHandler.React))
	mux.HandleFunc("GET /interactives/{pollId}/live", middleware.WithLogging(liveHandler.Stream))

	// Admin view
	mux.HandleFunc("GET /fake", middleware.WithLogging(pollHandler.Fake))
	mux.HandleFunc("GET /{$}", middleware.WithLogging(adminHandler.Index))

	cors := middleware.CORS(deps.Config.AllowedOrigin, deps.Config.AllowedHeaders)
	return cors(middleware.WithCompression(mux))
}
