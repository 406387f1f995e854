package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finch0/finch/internal/answer"
)

// maxQueryBodySize bounds the request body for /api/v1/query.
const maxQueryBodySize = 64 * 1024

// QueryEngine answers one question. Implemented by *answer.Engine.
type QueryEngine interface {
	Answer(ctx context.Context, query string) (*answer.Result, error)
}

// queryHandler holds dependencies for the query endpoint.
type queryHandler struct {
	engine QueryEngine
	logger *slog.Logger
}

// queryRequest is the JSON body of POST /api/v1/query.
type queryRequest struct {
	Query string `json:"query"`
}

// answerQuery handles POST /api/v1/query.
// Runs the full pipeline and returns the answer with citations.
func (h *queryHandler) answerQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodySize)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", h.logger)
		return
	}

	// An empty query is valid input: it scores zero against every source
	// and yields a degraded answer.
	query := strings.TrimSpace(req.Query)
	if len(query) > answer.MaxQueryLen {
		writeError(w, http.StatusBadRequest, "query_too_long", "query exceeds maximum length", h.logger)
		return
	}

	result, err := h.engine.Answer(r.Context(), query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Client went away; nothing useful to send
			h.logger.Debug("query canceled", "error", err)
			return
		}
		h.logger.Error("answering query", "error", err, "query_len", len(query))
		writeError(w, http.StatusInternalServerError, "answer_failed", "failed to answer query", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}
