package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medley-audio/medley/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAccessKey(t *testing.T) {
	h := RequireAccessKey("s3cret", logger.New("error", false))(okHandler())

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing key", want: http.StatusUnauthorized},
		{name: "wrong key", header: "nope", want: http.StatusUnauthorized},
		{name: "valid header", header: "s3cret", want: http.StatusOK},
		{name: "valid query param", query: "?accessKey=s3cret", want: http.StatusOK},
		{name: "wrong query param", query: "?accessKey=nope", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tracks"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("X-Access-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
