// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnv reads an optional .env file, then ParseFlags returns a Config:

	if err := cliparse.LoadEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p              PORT                  Server port (default: 3000)
	-store          STORE_BACKEND         memory, sqlite, postgres or redis
	-d              DATABASE_URL          SQL database URL
	-redis          REDIS_URL             Redis URL
	-redis-prefix   REDIS_PREFIX          Redis key prefix
	-amqp           RABBITMQ_URL          RabbitMQ URL, empty disables vote events
	-amqp-queue     RABBITMQ_QUEUE        Queue for vote events (default: votes)
	-cors-origin    CORS_ALLOWED_ORIGIN   Allowed origin (default: http://localhost:8000)
	-cors-headers   CORS_ALLOWED_HEADERS  Comma separated allowed headers
	-log-format     LOG_FORMAT            text or json

CLI flags take precedence over environment variables. The .env file is named
by ENV_FILE and never overrides variables that are already set.

# Validation

ParseFlags returns an error for an unknown store backend or log format, a port
outside 0-65535, and the postgres backend without a database URL. The sqlite
backend defaults to a shared in-memory database.
*/
package cliparse
