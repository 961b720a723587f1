package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/medley-audio/medley/internal/aggregate"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/logger"
)

// Queries shorter than this never reach the adapters.
const minQueryLength = 2

type searchResponse struct {
	Results []domain.Record `json:"results"`
}

func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if utf8.RuneCountInString(query) < minQueryLength {
			writeJSON(w, http.StatusOK, searchResponse{Results: []domain.Record{}})
			return
		}

		sess := d.Registry.Get(sessionID)
		records := d.Engine.Aggregate(r.Context(), sess, aggregate.CapSearch, query)

		d.Logger.Info("search request",
			logger.String("query", query),
			logger.Int("results", len(records)),
		)
		writeJSON(w, http.StatusOK, searchResponse{Results: records})
	}
}
