package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medley-audio/medley/internal/aggregate"
	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/session"
	"github.com/medley-audio/medley/internal/stream"
)

// Cookie-based auth is checked locally, so connects in tests never
// touch the network.
const testCookie = "SAPISID=test-token-123; PREF=f1"

func testDeps(t *testing.T) deps.Deps {
	t.Helper()
	log := logger.New("error", false)
	reg := session.NewRegistry(time.Hour, log)
	return deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		Version:   "test",
		GoVersion: "go-test",
		AccessKey: "k",
		Registry:  reg,
		Engine:    aggregate.New(log, ""),
		Stream: stream.NewRelay(stream.Config{
			CacheTTL:        time.Minute,
			UpstreamTimeout: 2 * time.Second,
			MaxCandidates:   1,
		}, reg, log),
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
