package deps

import (
	"time"

	"github.com/medley-audio/medley/internal/aggregate"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/relay"
	"github.com/medley-audio/medley/internal/session"
	"github.com/medley-audio/medley/internal/stream"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AccessKey    string   // shared secret required in X-Access-Key on /api routes
	AllowedHosts []string // Host headers allowed on /api routes (empty = any)
	MetricsCIDRs []string // IPs allowed to scrape /metrics (empty = public)
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Registry    *session.Registry  // live sessions keyed by session id
	Engine      *aggregate.Engine  // multi-service fan-out
	Stream      *stream.Relay      // audio proxy with URL resolution
	Coordinator *relay.Coordinator // backing-node control connection (nil when relay disabled)
}

// Now returns the current time, honoring the TimeNow override.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
