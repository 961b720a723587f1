package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/logger"
)

type disconnectRequest struct {
	SessionID string `json:"sessionId"`
	Service   string `json:"service"`
}

// Disconnect drops one service handle from a session. Used when
// switching accounts on the same service: disconnect, then connect
// with the new credentials.
func Disconnect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req disconnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.SessionID = strings.TrimSpace(req.SessionID)
		req.Service = strings.TrimSpace(req.Service)
		if req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}
		if req.Service == "" {
			writeError(w, http.StatusBadRequest, "service is required")
			return
		}

		sess, ok := d.Registry.Lookup(req.SessionID)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown session")
			return
		}
		if !sess.Disconnect(req.Service) {
			writeError(w, http.StatusNotFound, "service not connected")
			return
		}

		d.Logger.Info("service disconnected",
			logger.String("session_id", req.SessionID),
			logger.String("service", req.Service),
		)
		writeJSON(w, http.StatusOK, connectResponse{ConnectedServices: sess.Services()})
	}
}
