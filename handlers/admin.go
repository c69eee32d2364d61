// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/mszylkowski/reactionsbackend/middleware"
	"github.com/mszylkowski/reactionsbackend/store"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Interactions Backend</title>
<link href="https://fonts.googleapis.com/css2?family=Poppins:wght@400;700&display=swap" rel="stylesheet">
</head>
<body style="background-color: #242327; color: #fff; font-family: 'Poppins'">
<div>
<h1 style="color: #5be7ff">Polls results <a href="/fake"><button>Fake results</button></a></h1>
{{- range .}}
<div>
<h3>{{.ID}}</h3>
<ul>
{{- range .Options}}
<li>Option {{.Index}}: {{.Votes}} votes</li>
{{- end}}
</ul>
</div>
{{- end}}
</div>
</body>
</html>
`))

type optionView struct {
	Index int
	Votes string
}

type pollView struct {
	ID      string
	Options []optionView
}

type AdminHandler struct {
	store store.PollStore
}

func NewAdminHandler(s store.PollStore) *AdminHandler {
	return &AdminHandler{store: s}
}

// Index handles GET /
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	polls, err := h.store.Polls(r.Context())
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list polls")
		return
	}

	views := make([]pollView, len(polls))
	for i, p := range polls {
		views[i].ID = p.ID
		for j, n := range p.Counts {
			views[i].Options = append(views[i].Options, optionView{Index: j, Votes: humanize.Comma(int64(n))})
		}
	}

	// render fully before writing so a template error can still become a 500
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, views); err != nil {
		slog.Error("failed to render index", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
