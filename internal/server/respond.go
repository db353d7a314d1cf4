// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	Suggestion string   `json:"suggestion,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, suggestion string) {
	writeJSON(w, status, errorBody{Error: msg, Suggestion: suggestion})
}

// decodeBody reads a JSON request body of at most limit bytes into v. An
// empty body leaves v zero so the handler reports the missing field. It
// writes the error response itself and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return false
	}
	return true
}
