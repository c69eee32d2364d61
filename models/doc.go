// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and event types for the API.

# Request Types

  - ReactRequest: optionSelected (number, required)

# Response Types

  - PollSnapshot: options, one OptionResult per slot
  - OptionResult: optionIndex, totalCount, selectedByUser
  - ErrorResponse: error, message

# Live and Broker Messages

  - PollUpdate: pollId and per-option counts, pushed to websocket subscribers
  - VoteEvent: pollId, optionIndex, castAt, published after an accepted vote

# Vote Status

The outcome of a vote is reported in the X-Vote-Status response header:

	VoteStatusAccepted   = "accepted"
	VoteStatusDuplicate  = "duplicate"
	VoteStatusOutOfRange = "out_of_range"
*/
package models
