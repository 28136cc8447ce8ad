// Package handlers provides HTTP handlers for the gridsnap API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gridsnap/gridsnap/internal/domain"
	"github.com/gridsnap/gridsnap/internal/observability"
)

// TableProcessor is the relay operation this handler fronts.
type TableProcessor interface {
	Process(ctx context.Context, image []byte, contentType string) (*domain.Table, error)
	MaxUploadBytes() int64
}

// ProcessHandler handles table-screenshot extraction requests.
type ProcessHandler struct {
	logger  *observability.Logger
	service TableProcessor
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(logger *observability.Logger, service TableProcessor) *ProcessHandler {
	return &ProcessHandler{
		logger:  logger,
		service: service,
	}
}

// TableDTO represents the API response for an extracted table.
type TableDTO struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ProcessTable handles POST /api/process_table.
func (h *ProcessHandler) ProcessTable(w http.ResponseWriter, r *http.Request) {
	extractionID := uuid.New().String()
	start := time.Now()

	// Bound the whole request body before parsing the multipart form; the
	// small slack covers the form framing around the file part.
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxUploadBytes()+64*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, http.StatusBadRequest, "upload too large", err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "missing or unreadable file field", err.Error())
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read upload", err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")

	h.logger.Info().
		Str("extraction_id", extractionID).
		Str("filename", header.Filename).
		Str("content_type", contentType).
		Int("bytes", len(image)).
		Msg("Processing table upload")

	table, err := h.service.Process(r.Context(), image, contentType)
	if err != nil {
		h.writeProcessError(w, extractionID, err)
		return
	}

	h.logger.Info().
		Str("extraction_id", extractionID).
		Dur("elapsed", time.Since(start)).
		Int("rows", len(table.Rows)).
		Msg("Extraction succeeded")

	resp := TableDTO{
		Headers: table.Headers,
		Rows:    table.Rows,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeProcessError maps the relay error taxonomy onto HTTP statuses.
// External-dependency failures get a generic user-facing message; the
// detail stays in the server log.
func (h *ProcessHandler) writeProcessError(w http.ResponseWriter, extractionID string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidImage):
		h.logger.Warn().Str("extraction_id", extractionID).Err(err).Msg("Rejected upload")
		h.writeError(w, http.StatusBadRequest, "invalid image upload", err.Error())
	case errors.Is(err, domain.ErrExtractionTimeout):
		h.logger.Error().Str("extraction_id", extractionID).Err(err).Msg("Extraction timed out")
		h.writeError(w, http.StatusGatewayTimeout, "table extraction timed out", "")
	default:
		h.logger.Error().Str("extraction_id", extractionID).Err(err).Msg("Extraction failed")
		h.writeError(w, http.StatusBadGateway, "table extraction failed", "")
	}
}

func (h *ProcessHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
