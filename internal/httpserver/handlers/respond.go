package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes v with the given status. Encoding failures after the
// header is sent are unrecoverable, so they are ignored.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the error shape shared by every API handler.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
