package httpapi

import (
	"encoding/json"
	"net/http"

	"settingsd/internal/store"
	"settingsd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeStoreError maps well-known store errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	switch {
	case store.IsDeskNotFound(err), store.IsBucketNotFound(err), store.IsEntryNotFound(err):
		status = http.StatusNotFound
	case store.IsInvalidInput(err):
		status = http.StatusBadRequest
	default:
		if he, ok := err.(HTTPError); ok {
			status = he.StatusCode()
		}
	}
	writeJSONError(w, status, err.Error())
	return status
}
