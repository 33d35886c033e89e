// Package handler holds the JSON HTTP handlers of the list API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/shoplist/internal/apperr"
)

// maxBodyBytes bounds request bodies; audio uploads are the largest.
const maxBodyBytes = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err. Errors without a kind are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseListID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("list_id"), 10, 64)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("request body too large")
		}
		return apperr.Validation("invalid JSON: %v", err)
	}
	return nil
}
