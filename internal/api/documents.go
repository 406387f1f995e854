package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// maxDocumentBodySize bounds the request body for /api/v1/documents.
// Matches the ingest pipeline's per-file limit plus JSON overhead.
const maxDocumentBodySize = 12 * 1024 * 1024

// DocumentIngester chunks and indexes one extracted-text document.
// Implemented by *index.Ingester.
type DocumentIngester interface {
	IngestText(ctx context.Context, source, text string) (int, error)
}

// documentsHandler holds dependencies for the document upload endpoint.
type documentsHandler struct {
	ingester DocumentIngester
	logger   *slog.Logger
}

// documentRequest is the JSON body of POST /api/v1/documents.
// Content is extracted text; binary formats must be converted upstream.
type documentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// documentResponse reports the ingest outcome.
type documentResponse struct {
	Status      string `json:"status"`
	Source      string `json:"source"`
	ChunksAdded int    `json:"chunks_added"`
}

// uploadDocument handles POST /api/v1/documents.
// Re-uploading the same name replaces the previous version.
func (h *documentsHandler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBodySize)

	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", h.logger)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", "document name is required", h.logger)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "empty_content", "document content is required", h.logger)
		return
	}

	chunks, err := h.ingester.IngestText(r.Context(), name, req.Content)
	if err != nil {
		h.logger.Error("ingesting document", "error", err, "source", name, "size", len(req.Content))
		writeError(w, http.StatusInternalServerError, "ingest_failed", "failed to index document", h.logger)
		return
	}

	h.logger.Info("document indexed", "source", name, "chunks", chunks)
	writeJSON(w, http.StatusOK, documentResponse{
		Status:      "success",
		Source:      name,
		ChunksAdded: chunks,
	}, h.logger)
}
