package routes

import (
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/httpserver/mw"
)

// apiTimeout bounds every aggregation request. The stream route is
// exempt because audio delivery runs as long as the client listens.
const apiTimeout = 15 * time.Second

// apiMW is the middleware chain shared by the /api routes.
func apiMW(d deps.Deps) []Middleware {
	return []Middleware{
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireAccessKey(d.AccessKey, d.Logger),
		middleware.Timeout(apiTimeout),
	}
}
