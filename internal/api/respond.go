package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hray3182/Ledgerline/internal/apperr"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInactiveTemplate):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrCycleChanged):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as a JSON error body. Internal failures are
// logged in full and reported without storage details.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Printf("❌ %s: %v", op, err)
		var se *apperr.StorageError
		if errors.As(err, &se) {
			writeError(w, status, "storage failure")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	log.Printf("⚠️ %s: %v", op, err)
	body := errorBody{Error: err.Error()}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		body.Error = "validation failed"
		body.Fields = verr.Fields
	}
	writeJSON(w, status, body)
}
