package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/medley-audio/medley/internal/adapter"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/logger"
)

type connectRequest struct {
	SessionID   string              `json:"sessionId"`
	Service     string              `json:"service"`
	Credentials adapter.Credentials `json:"credentials"`
}

type connectResponse struct {
	ConnectedServices []string `json:"connectedServices"`
}

// Connect opens (or replaces) one service handle on a session. The
// session is created on first reference; a failed authentication leaves
// it without the handle so the client can retry with fresh credentials.
func Connect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req connectRequest
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

		sess := d.Registry.Get(req.SessionID)
		if err := sess.Connect(r.Context(), req.Service, req.Credentials, d.Logger); err != nil {
			switch {
			case errors.Is(err, domain.ErrUnknownService):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, domain.ErrAuthentication):
				writeError(w, http.StatusUnauthorized, err.Error())
			default:
				d.Logger.Error("connect failed",
					logger.String("service", req.Service),
					logger.Error(err),
				)
				writeError(w, http.StatusInternalServerError, "connect failed")
			}
			return
		}

		d.Logger.Info("service connected",
			logger.String("session_id", req.SessionID),
			logger.String("service", req.Service),
		)
		writeJSON(w, http.StatusOK, connectResponse{ConnectedServices: sess.Services()})
	}
}
