package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// API response types

// AdaptersResponse lists registered adapters and their detection state.
type AdaptersResponse struct {
	Adapters []crosscli.AdapterStatus `json:"adapters"`
}

// SessionsResponse lists sessions matching a query.
type SessionsResponse struct {
	Sessions []crosscli.SessionMeta `json:"sessions"`
	Warnings []string               `json:"warnings,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}

// handleGetAdapters returns all registered adapters with detection status
// and session counts.
func (s *HTTPServer) handleGetAdapters(w http.ResponseWriter, r *http.Request) {
	result, err := s.scan(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AdaptersResponse{Adapters: result.Statuses})
}

// handleGetSessions returns sessions matching query parameters:
//
//	cli     restrict to one assistant (claude, codex, gemini, qwen, iflow)
//	search  keyword over summaries and, with deep=1, message content
//	range   today, week or month
//	project restrict to a project path
//	limit   result cap (default 20, 0 = unlimited)
func (s *HTTPServer) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	queryRequests.WithLabelValues("sessions").Inc()

	spec := crosscli.QuerySpec{
		CLI:         crosscli.Source(q.Get("cli")),
		Keyword:     q.Get("search"),
		ProjectPath: q.Get("project"),
		Limit:       20,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		spec.Limit = n
	}

	now := time.Now()
	switch q.Get("range") {
	case "":
	case "today":
		rng := crosscli.Today(now)
		spec.Range = &rng
	case "week":
		rng := crosscli.Week(now)
		spec.Range = &rng
	case "month":
		rng := crosscli.Month(now)
		spec.Range = &rng
	default:
		writeError(w, http.StatusBadRequest, "invalid_range", "range must be today, week or month")
		return
	}

	var sources []crosscli.Source
	if spec.CLI != "" {
		sources = []crosscli.Source{spec.CLI}
	}

	result, err := s.scan(r.Context(), sources)
	if err != nil {
		if errors.Is(err, crosscli.ErrUnknownCLI) {
			writeError(w, http.StatusBadRequest, "unknown_cli", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "scan_failed", err.Error())
		return
	}

	var deep crosscli.ContentSearcher
	if q.Get("deep") == "1" {
		deep = crosscli.RegistrySearcher(s.registry)
	}

	sessions, err := crosscli.Query(r.Context(), result.Index, spec, deep)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions, Warnings: result.Warnings})
}

// handleGetContext returns the recent conversation tail for one session.
// The budget query parameter caps the number of messages.
func (s *HTTPServer) handleGetContext(w http.ResponseWriter, r *http.Request) {
	cli := crosscli.Source(chi.URLParam(r, "cli"))
	sessionID := chi.URLParam(r, "sessionID")
	queryRequests.WithLabelValues("context").Inc()

	if _, ok := s.registry.Get(cli); !ok {
		writeError(w, http.StatusBadRequest, "unknown_cli", string(cli))
		return
	}

	budget := 0
	if v := r.URL.Query().Get("budget"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_budget", "budget must be a non-negative integer")
			return
		}
		budget = n
	}

	result, err := s.scan(r.Context(), []crosscli.Source{cli})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scan_failed", err.Error())
		return
	}

	var meta *crosscli.SessionMeta
	for i := range result.Index {
		if result.Index[i].ID == sessionID {
			meta = &result.Index[i]
			break
		}
	}
	if meta == nil {
		writeError(w, http.StatusNotFound, "session_not_found", sessionID)
		return
	}

	payload, err := crosscli.ExtractContext(r.Context(), s.registry, *meta, budget)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "extract_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, payload)
}
