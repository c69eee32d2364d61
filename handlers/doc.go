// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the reactions backend.

# Handler Types

  - PollHandler: reading polls, casting votes, demo reset
  - AdminHandler: HTML results page
  - LiveHandler: WebSocket subscriptions to poll counts

Handlers are created via constructor functions that take their
dependencies explicitly:

	pollHandler := handlers.NewPollHandler(pollStore, liveHub, publisher)

# Voting Flow

Polls are never created explicitly. The first request naming a poll id
creates it with four empty options.

	GET  /interactives/{pollId}?clientId=c       → GetPoll
	POST /interactives/{pollId}/react?clientId=c → React

A missing clientId, a missing or malformed body, or a missing
optionSelected is a 400 with an empty body. Everything else is a 200 with
the poll as the caller sees it:

	{"options": [
		{"optionIndex": 0, "totalCount": 3, "selectedByUser": false},
		{"optionIndex": 1, "totalCount": 1, "selectedByUser": true},
		...
	]}

Duplicate and out of range votes leave the poll untouched and return the
same shape. The X-Vote-Status header tells them apart:

	accepted | duplicate | out_of_range

Accepted votes are published to the vote event queue and pushed to live
subscribers. Publishing failures are logged and never fail the request.

# Live Updates

	GET /interactives/{pollId}/live → Stream

Upgrades to a WebSocket, sends the current counts, then one message per
change:

	{"pollId": "quiz", "options": [{"optionIndex": 0, "totalCount": 3}, ...]}

# Demo Reset

	GET /fake → Fake

Replaces every vote in every poll with 0 to 9 synthetic votes per option
and redirects to the admin page.
*/
package handlers
