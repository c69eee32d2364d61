// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the reactions backend.

The backend serves live reaction polls for interactive pages. Every poll has
four options, each client votes once per poll, and polls come into existence
the first time anyone asks for them.

# Starting the Server

With no configuration the server listens on port 3000 and keeps polls in
memory:

	go run .

Or with flags:

	go run . -p 8080 -store redis -redis redis://localhost:6379/0

# Configuration

Flags override environment variables, which override a .env file
(ENV_FILE selects another path):

  - PORT (-p): Server port (default: 3000)
  - STORE_BACKEND (-store): memory, sqlite, postgres or redis
  - DATABASE_URL (-d): SQL connection string (required for postgres)
  - REDIS_URL (-redis), REDIS_PREFIX (-redis-prefix)
  - RABBITMQ_URL (-amqp), RABBITMQ_QUEUE (-amqp-queue): vote events,
    disabled when the URL is empty
  - CORS_ALLOWED_ORIGIN (-cors-origin), CORS_ALLOWED_HEADERS (-cors-headers)
  - LOG_FORMAT (-log-format): text or json

Every backend starts empty. Poll data does not outlive the process.

# Architecture

  - store: poll state behind the PollStore interface
  - handlers: HTTP request handlers (polls, admin page, live stream)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, compression, logging, JSON helpers
  - hub: per-poll WebSocket fan-out
  - events: RabbitMQ vote events
  - models: Request/response types
  - db: SQL connections and schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
