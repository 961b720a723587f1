package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/medley-audio/medley/internal/logger"
)

// RequireAccessKey rejects requests that do not carry the shared secret.
// The key is read from the X-Access-Key header, falling back to the
// accessKey query parameter because audio elements cannot set headers.
func RequireAccessKey(key string, loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Access-Key")
			if got == "" {
				got = r.URL.Query().Get("accessKey")
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				loggerClient.Warn("request rejected: bad access key",
					logger.String("path", r.URL.Path),
					logger.String("remote_ip", r.RemoteAddr),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid access key"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
