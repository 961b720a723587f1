package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/session"
)

func newTestRelay(t *testing.T) *Relay {
	t.Helper()
	log := logger.New("error", false)
	registry := session.NewRegistry(time.Hour, log)
	return NewRelay(Config{
		CacheTTL:        time.Minute,
		UpstreamTimeout: 2 * time.Second,
		MaxCandidates:   2,
	}, registry, log)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestServeTrackInvalidID(t *testing.T) {
	rl := newTestRelay(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/garbage", nil)
	rl.ServeTrack(rec, req, "garbage")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeError(t, rec); msg == "" {
		t.Error("expected an error message")
	}
}

func TestServeTrackUnavailableWithoutHints(t *testing.T) {
	// A service with no stream source and no title/artist hints has
	// nothing to fall back on.
	rl := newTestRelay(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/spotify:4uLU6hMCjMI75M1A2tKUQC", nil)
	rl.ServeTrack(rec, req, "spotify:4uLU6hMCjMI75M1A2tKUQC")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestServeTrackProxiesFullBody(t *testing.T) {
	const payload = "0123456789abcdefghij"

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/webm")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(upstream.Close)

	rl := newTestRelay(t)
	rl.cache.Put("ytmusic:vid1", upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/ytmusic:vid1", nil)
	rl.ServeTrack(rec, req, "ytmusic:vid1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != payload {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/webm" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, max-age=60" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestServeTrackForwardsRange(t *testing.T) {
	const payload = "0123456789abcdefghij"

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		if rng != "bytes=5-" {
			t.Errorf("upstream saw Range %q", rng)
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes 5-%d/%d", len(payload)-1, len(payload)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = io.WriteString(w, payload[5:])
	}))
	t.Cleanup(upstream.Close)

	rl := newTestRelay(t)
	rl.cache.Put("ytmusic:vid1", upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/ytmusic:vid1", nil)
	req.Header.Set("Range", "bytes=5-")
	rl.ServeTrack(rec, req, "ytmusic:vid1")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 5-19/20" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Body.String(); got != payload[5:] {
		t.Errorf("body = %q", got)
	}
}

func TestServeTrackUpstreamRejectionDropsCache(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Expired signed URLs answer 403.
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(upstream.Close)

	rl := newTestRelay(t)
	rl.cache.Put("ytmusic:vid1", upstream.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/ytmusic:vid1", nil)
	rl.ServeTrack(rec, req, "ytmusic:vid1")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if _, ok := rl.cache.Get("ytmusic:vid1"); ok {
		t.Error("rejected URL should be evicted from the cache")
	}
}
