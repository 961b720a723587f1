package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/medley-audio/medley/internal/httpserver/deps"
)

func radioGet(t *testing.T, d deps.Deps, target string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/api/radio/{trackId}", Radio(d))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRadioRequiresSessionID(t *testing.T) {
	d := testDeps(t)

	rec := radioGet(t, d, "/api/radio/ytmusic:abc123")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRadioInvalidTrackID(t *testing.T) {
	d := testDeps(t)

	rec := radioGet(t, d, "/api/radio/garbage?sessionId=s1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRadioWrongServiceSeed(t *testing.T) {
	d := testDeps(t)

	rec := radioGet(t, d, "/api/radio/spotify:4uLU6hMC?sessionId=s1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRadioNotConnected(t *testing.T) {
	d := testDeps(t)

	// No web music handle and no ambient cookie to auto-connect with.
	rec := radioGet(t, d, "/api/radio/ytmusic:abc123?sessionId=s1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
