package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mediacatalog-backend/internal/ingest"
	"mediacatalog-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleIngestError maps the categorized run error to a user-facing
// response. A run reports either a summary or exactly one failure reason.
func handleIngestError(w http.ResponseWriter, r *http.Request, err error) {
	var ingErr *ingest.Error
	if !errors.As(err, &ingErr) {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Import failed", r))
		return
	}

	switch ingErr.Kind {
	case ingest.KindInvalidFormat:
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", ingErr.Error(), r))
	case ingest.KindSizeExceeded:
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", ingErr.Error(), r))
	case ingest.KindParseFailure:
		writeJSON(w, http.StatusBadRequest, errorResp("PARSE_ERROR", ingErr.Error(), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("STORE_ERROR", "Import failed while writing to the catalog", r))
	}
}
