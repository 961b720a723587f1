// Package aggregate fans a capability call out across every adapter a
// session has connected and merges the results into one record list.
package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/medley-audio/medley/internal/adapter"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/metrics"
	"github.com/medley-audio/medley/internal/session"
)

// Capability names one adapter operation the engine can dispatch.
type Capability string

const (
	CapTracks          Capability = "tracks"
	CapAlbums          Capability = "albums"
	CapPlaylists       Capability = "playlists"
	CapArtists         Capability = "artists"
	CapSearch          Capability = "search"
	CapRecommendations Capability = "recommendations"
	CapRadio           Capability = "radio"
	CapProfiles        Capability = "profiles"
)

// Engine merges capability results across a session's adapters.
type Engine struct {
	log           logger.Logger
	defaultCookie string
}

// New creates an engine. defaultCookie feeds the implicit web-music
// connect for sessions that have not connected any service themselves.
func New(log logger.Logger, defaultCookie string) *Engine {
	return &Engine{log: log, defaultCookie: defaultCookie}
}

// Aggregate invokes capability on every adapter in the session
// concurrently with identical arguments. A failing or panicking adapter
// is logged and excluded; it never aborts its siblings or the call.
// Results keep per-adapter order inside each segment; segments follow
// connection order.
func (e *Engine) Aggregate(ctx context.Context, sess *session.Session, capability Capability, arg string) []domain.Record {
	e.ensureDefault(ctx, sess)

	handles := sess.Handles()
	if len(handles) == 0 {
		return []domain.Record{}
	}

	metrics.FanOuts.WithLabelValues(string(capability)).Inc()
	return e.fanOut(ctx, handles, capability, arg)
}

// Radio resolves a seeded mix. The capability is routed to the
// web-music adapter exclusively; other services report no mixes.
func (e *Engine) Radio(ctx context.Context, sess *session.Session, seedID string) ([]domain.Record, error) {
	e.ensureDefault(ctx, sess)

	h, ok := sess.Handle(adapter.ServiceYTMusic)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAdapterNotConnected, adapter.ServiceYTMusic)
	}
	return h.Adapter.Radio(ctx, seedID)
}

// ensureDefault performs the convenience auto-connect: a session with
// no adapters gets one attempt at the web-music service with the
// ambient cookie. Failure is logged, never surfaced.
func (e *Engine) ensureDefault(ctx context.Context, sess *session.Session) {
	if len(sess.Services()) > 0 {
		return
	}

	creds := adapter.Credentials{Cookie: e.defaultCookie}
	if err := sess.Connect(ctx, adapter.ServiceYTMusic, creds, e.log); err != nil {
		e.log.Warn("default adapter connect failed",
			logger.String("service", adapter.ServiceYTMusic),
			logger.Error(err))
	}
}

func (e *Engine) fanOut(ctx context.Context, handles []*adapter.Handle, capability Capability, arg string) []domain.Record {
	results := make([][]domain.Record, len(handles))

	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h *adapter.Handle) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					metrics.AdapterFailures.WithLabelValues(h.Service).Inc()
					e.log.Error("adapter panicked during fan-out",
						logger.String("service", h.Service),
						logger.String("capability", string(capability)),
						logger.String("panic", fmt.Sprint(rec)))
				}
			}()

			recs, err := invoke(ctx, h.Adapter, capability, arg)
			if err != nil {
				metrics.AdapterFailures.WithLabelValues(h.Service).Inc()
				e.log.Warn("adapter failed during fan-out",
					logger.String("service", h.Service),
					logger.String("capability", string(capability)),
					logger.Error(err))
				return
			}
			results[i] = recs
		}(i, h)
	}
	wg.Wait()

	total := 0
	for _, recs := range results {
		total += len(recs)
	}
	merged := make([]domain.Record, 0, total)
	for _, recs := range results {
		merged = append(merged, recs...)
	}
	return merged
}

func invoke(ctx context.Context, a adapter.Adapter, capability Capability, arg string) ([]domain.Record, error) {
	switch capability {
	case CapTracks:
		return a.Tracks(ctx)
	case CapAlbums:
		return a.Albums(ctx, arg)
	case CapPlaylists:
		return a.Playlists(ctx)
	case CapArtists:
		return a.Artists(ctx, arg)
	case CapSearch:
		return a.Search(ctx, arg)
	case CapRecommendations:
		return a.Recommendations(ctx)
	case CapRadio:
		return a.Radio(ctx, arg)
	case CapProfiles:
		return a.Profiles(ctx)
	default:
		return nil, fmt.Errorf("unknown capability %q", capability)
	}
}
