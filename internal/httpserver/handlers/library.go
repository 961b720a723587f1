package handlers

import (
	"net/http"
	"strings"

	"github.com/medley-audio/medley/internal/aggregate"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/httpserver/deps"
)

// The library endpoints share a shape: sessionId selects the session,
// every connected adapter is fanned out to, and the merged records come
// back keyed by the capability name. Albums and artists additionally
// accept a ?type= list variant hint.

func Tracks(d deps.Deps) http.HandlerFunc {
	return listHandler(d, aggregate.CapTracks, "tracks", false)
}

func Albums(d deps.Deps) http.HandlerFunc {
	return listHandler(d, aggregate.CapAlbums, "albums", true)
}

func Playlists(d deps.Deps) http.HandlerFunc {
	return listHandler(d, aggregate.CapPlaylists, "playlists", false)
}

func Artists(d deps.Deps) http.HandlerFunc {
	return listHandler(d, aggregate.CapArtists, "artists", true)
}

func Recommendations(d deps.Deps) http.HandlerFunc {
	return listHandler(d, aggregate.CapRecommendations, "recommendations", false)
}

func Profiles(d deps.Deps) http.HandlerFunc {
	return listHandler(d, aggregate.CapProfiles, "profiles", false)
}

func listHandler(d deps.Deps, capability aggregate.Capability, key string, acceptsType bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}

		arg := ""
		if acceptsType {
			arg = strings.TrimSpace(r.URL.Query().Get("type"))
		}

		sess := d.Registry.Get(sessionID)
		records := d.Engine.Aggregate(r.Context(), sess, capability, arg)
		writeJSON(w, http.StatusOK, map[string][]domain.Record{key: records})
	}
}
