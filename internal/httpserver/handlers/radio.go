package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/adapter"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/logger"
)

// Radio starts a seeded mix from a track. Mixes only exist on the web
// music service, so seeds from other services report no mix.
func Radio(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}

		trackID := chi.URLParam(r, "trackId")
		service, nativeID, err := domain.ParseID(trackID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if service != adapter.ServiceYTMusic {
			writeError(w, http.StatusNotFound, "no mix available for this track")
			return
		}

		sess := d.Registry.Get(sessionID)
		records, err := d.Engine.Radio(r.Context(), sess, nativeID)
		if err != nil {
			if errors.Is(err, domain.ErrAdapterNotConnected) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			d.Logger.Error("radio failed",
				logger.String("track_id", trackID),
				logger.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "radio failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string][]domain.Record{"tracks": records})
	}
}
