// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets an X-Request-ID (kept from the client when present).
Logs request start (method, path, remote) and completion (status,
duration_ms).

# CORS Middleware

Allow a single configured origin:

	handler := middleware.CORS(cfg.AllowedOrigin, cfg.AllowedHeaders)(mux)

OPTIONS preflight requests are answered with 204 and never reach the mux.

# Compression

	handler = middleware.WithCompression(handler)

Gzips responses when the client sends Accept-Encoding: gzip. Websocket
upgrades pass through untouched.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, snapshot)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "message")
	middleware.EmptyResponse(w, http.StatusBadRequest)

	var req models.ReactRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.EmptyResponse(w, http.StatusBadRequest)
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP before falling back to RemoteAddr.
*/
package middleware
