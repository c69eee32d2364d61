// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the reactions backend.

# Route Registration

NewRouter builds the full handler chain (CORS, compression, ServeMux):

	handler := router.NewRouter(router.Deps{
		Store:     pollStore,
		Hub:       liveHub,
		Publisher: publisher,
		Config:    cfg,
	})

# Endpoints

Health:

	GET /health

Polls (public, the caller identifies itself with ?clientId=):

	GET  /interactives/{pollId}       - Counts and the caller's selection
	POST /interactives/{pollId}/react - Cast a vote, body {"optionSelected": n}
	GET  /interactives/{pollId}/live  - WebSocket stream of counts

Admin view:

	GET /     - HTML summary of every poll
	GET /fake - Fill every poll with random votes, redirect to /

Any other path is a 404. OPTIONS preflight requests are answered by the
CORS layer on every path.
*/
package router
