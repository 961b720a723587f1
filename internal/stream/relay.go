package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/medley-audio/medley/internal/adapter"
	"github.com/medley-audio/medley/internal/adapter/ytmusic"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/metrics"
	"github.com/medley-audio/medley/internal/session"
	"github.com/medley-audio/medley/internal/utils"
)

const (
	pumpChunkSize    = 32 * 1024
	chunkWriteWindow = 30 * time.Second

	relayUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Config carries the relay's tunables.
type Config struct {
	CacheTTL        time.Duration
	UpstreamTimeout time.Duration
	MaxCandidates   int
	DefaultCookie   string
}

// Relay turns track identifiers into playable upstream URLs and
// proxies the audio bytes.
type Relay struct {
	log           logger.Logger
	cache         *URLCache
	registry      *session.Registry
	ambient       *ytmusic.Adapter
	client        *http.Client
	cacheTTL      time.Duration
	maxCandidates int
}

// NewRelay builds a relay. The ambient web-music adapter covers
// session-less resolution and the candidate search fallback; its
// authentication is best-effort since public resolution works without
// a cookie. The upstream client bounds connect and header time only,
// never the body, which streams for the track's full length.
func NewRelay(cfg Config, registry *session.Registry, log logger.Logger) *Relay {
	ambient := ytmusic.New(cfg.DefaultCookie, log)
	if err := ambient.Authenticate(context.Background()); err != nil {
		log.Debug("ambient resolver unauthenticated", logger.Error(err))
	}

	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 3
	}

	return &Relay{
		log:           log,
		cache:         NewURLCache(cfg.CacheTTL),
		registry:      registry,
		ambient:       ambient,
		cacheTTL:      cfg.CacheTTL,
		maxCandidates: cfg.MaxCandidates,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: cfg.UpstreamTimeout}).DialContext,
				TLSHandshakeTimeout:   cfg.UpstreamTimeout,
				ResponseHeaderTimeout: cfg.UpstreamTimeout,
			},
		},
	}
}

// Cache exposes the URL cache, mainly for the health report.
func (rl *Relay) Cache() *URLCache { return rl.cache }

// ServeTrack resolves trackID and proxies the audio. Optional query
// parameters: sessionId scopes resolution to that session's adapters;
// title and artist feed the candidate search fallback for services
// that cannot serve their own audio.
func (rl *Relay) ServeTrack(w http.ResponseWriter, r *http.Request, trackID string) {
	streamURL, err := rl.resolve(r.Context(), r, trackID)
	if err != nil {
		rl.log.Warn("stream resolution failed",
			logger.String("track_id", trackID),
			logger.Error(err))
		rl.writeResolveError(w, err)
		return
	}
	rl.proxy(w, r, trackID, streamURL)
}

func (rl *Relay) resolve(ctx context.Context, r *http.Request, trackID string) (string, error) {
	if u, ok := rl.cache.Get(trackID); ok {
		metrics.StreamCacheHits.Inc()
		return u, nil
	}
	metrics.StreamCacheMisses.Inc()

	service, nativeID, err := domain.ParseID(trackID)
	if err != nil {
		return "", err
	}

	u, err := rl.resolveUpstream(ctx, r, service, nativeID)
	if err != nil {
		return "", err
	}
	rl.cache.Put(trackID, u)
	return u, nil
}

// resolveUpstream asks the owning adapter first, then falls back to a
// catalog candidate search when the service cannot serve its own audio
// or direct resolution failed.
func (rl *Relay) resolveUpstream(ctx context.Context, r *http.Request, service, nativeID string) (string, error) {
	q := r.URL.Query()

	var direct error
	if src := rl.sourceFor(q.Get("sessionId"), service); src != nil {
		u, err := src.ResolveStreamURL(ctx, nativeID)
		if err == nil {
			return u, nil
		}
		direct = err
		rl.log.Warn("direct stream resolution failed",
			logger.String("service", service),
			logger.String("native_id", nativeID),
			logger.Error(err))
	}

	query := strings.TrimSpace(strings.TrimSpace(q.Get("title")) + " " + strings.TrimSpace(q.Get("artist")))
	if query == "" {
		if direct != nil {
			return "", direct
		}
		return "", domain.ErrTrackUnavailable
	}
	return rl.resolveViaSearch(ctx, query)
}

// sourceFor picks the StreamSource for a service: the session's own
// adapter when one is connected, else the ambient resolver for
// services it can stand in for.
func (rl *Relay) sourceFor(sessionID, service string) adapter.StreamSource {
	if sessionID != "" {
		sess := rl.registry.Get(sessionID)
		if h, ok := sess.Handle(service); ok {
			if src, ok := h.Adapter.(adapter.StreamSource); ok {
				return src
			}
		}
	}
	if service == adapter.ServiceYTMusic {
		return rl.ambient
	}
	return nil
}

// resolveViaSearch looks the track up in the ambient catalog and tries
// the top candidates in order; the first playable one wins.
func (rl *Relay) resolveViaSearch(ctx context.Context, query string) (string, error) {
	recs, err := rl.ambient.Search(ctx, query)
	if err != nil {
		return "", err
	}

	tried := 0
	for _, rec := range recs {
		if rec.Kind != domain.KindTrack {
			continue
		}
		if tried >= rl.maxCandidates {
			break
		}
		_, videoID, err := domain.ParseID(rec.ID)
		if err != nil {
			continue
		}
		tried++

		u, err := rl.ambient.ResolveStreamURL(ctx, videoID)
		if err != nil {
			rl.log.Debug("candidate resolution failed",
				logger.String("video_id", videoID),
				logger.Error(err))
			continue
		}
		return u, nil
	}
	return "", domain.ErrTrackUnavailable
}

func (rl *Relay) proxy(w http.ResponseWriter, r *http.Request, trackID, streamURL string) {
	ctx, cancel := context.WithCancel(r.Context())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		cancel()
		writeError(w, http.StatusInternalServerError, "invalid upstream url")
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}
	req.Header.Set("User-Agent", relayUserAgent)

	resp, err := rl.client.Do(req)
	if err != nil {
		cancel()
		rl.cache.Delete(trackID)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("upstream fetch failed: %v", err))
		return
	}
	// Closing tears the upstream connection down even when the pump
	// exits before the body is drained.
	body := &utils.CancelOnClose{ReadCloser: resp.Body, Cancel: cancel}
	defer func() { _ = body.CancelOnCloseFunc() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		// Signed URLs expire; drop the cached entry so the next
		// request re-resolves.
		rl.cache.Delete(trackID)
		rl.log.Warn("upstream rejected stream fetch",
			logger.String("track_id", trackID),
			logger.Int("status", resp.StatusCode))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("upstream status %d", resp.StatusCode))
		return
	}

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(rl.cacheTTL.Seconds())))
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		h.Set("Content-Length", cl)
	}

	status := http.StatusOK
	if resp.StatusCode == http.StatusPartialContent {
		status = http.StatusPartialContent
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			h.Set("Content-Range", cr)
		}
	}
	w.WriteHeader(status)

	rl.pump(w, r, body)
}

// pump copies upstream bytes to the client chunk by chunk, flushing
// after each write and extending the write deadline past the server's
// global timeout so long tracks stream to completion.
func (rl *Relay) pump(w http.ResponseWriter, r *http.Request, body io.Reader) {
	rc := http.NewResponseController(w)
	buf := make([]byte, pumpChunkSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			_ = rc.SetWriteDeadline(time.Now().Add(chunkWriteWindow))
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				rl.log.Debug("client write failed, aborting stream",
					logger.Error(writeErr))
				return
			}
			_ = rc.Flush()
		}
		if readErr != nil {
			if readErr != io.EOF && r.Context().Err() == nil {
				rl.log.Warn("upstream read ended early", logger.Error(readErr))
			}
			return
		}
	}
}

func (rl *Relay) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMediaID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoAudioFormat), errors.Is(err, domain.ErrTrackUnavailable):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
