// Package ytmusic adapts the cookie-authenticated web music service.
//
// It is the most capable adapter (personalized feed, catalog search,
// seed-track radio, direct audio resolution) and also the most fragile
// dependency: the backing feed is an internal API with no stability
// guarantees, so every library-style call degrades to generic searches
// instead of erroring.
package ytmusic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	yt "github.com/kkdai/youtube/v2"
	"github.com/ppalone/ytsearch"
	ytm "github.com/raitonoberu/ytmusic"
	"golang.org/x/time/rate"

	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
)

const serviceName = "ytmusic"

// trackSectionKeywords ranks home-feed section titles by personal
// relevance for the tracks capability. Case-insensitive substring
// match; the wording drifts over time, so unmatched feeds fall back to
// generic searches instead of failing.
var trackSectionKeywords = []string{
	"quick picks",
	"recommended",
	"for you",
	"trending",
	"listen again",
	"mixed for you",
}

// fallbackQueries seed the degraded tracks path when the feed yields
// nothing usable (stale cookie, wording drift, unauthenticated call).
var fallbackQueries = []string{"top songs", "popular hits"}

type Adapter struct {
	log     logger.Logger
	feed    *feedClient
	sapisid string
	limiter *rate.Limiter
	videos  *yt.Client
	search  *ytsearch.Client

	mu            sync.Mutex
	authenticated bool
}

// New builds the adapter from a raw browser Cookie header. No network
// I/O happens until Authenticate or a capability is called.
func New(cookie string, log logger.Logger) *Adapter {
	sapisid := sapisidFrom(parseCookies(cookie))
	return &Adapter{
		log:     log,
		feed:    newFeedClient(cookie, sapisid),
		sapisid: sapisid,
		limiter: rate.NewLimiter(rate.Limit(4), 2),
		videos:  &yt.Client{},
		search:  ytsearch.NewClient(nil),
	}
}

func (a *Adapter) Name() string { return serviceName }

// Authenticate validates that the cookie carries the token the
// internal API's SAPISID-hash scheme needs. No network round-trip: a
// present-but-stale cookie surfaces on the first feed call, which
// degrades to search anyway.
func (a *Adapter) Authenticate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authenticated {
		return nil
	}
	if a.sapisid == "" {
		return fmt.Errorf("%w: cookie missing %s", domain.ErrAuthentication, sapisidCookies[0])
	}
	a.authenticated = true
	return nil
}

func (a *Adapter) ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}

// Tracks returns the most personally-relevant home-feed sections,
// selected by the ranked keyword match on section titles, degrading to
// generic top-result searches when the feed yields nothing.
func (a *Adapter) Tracks(ctx context.Context) ([]domain.Record, error) {
	sections, err := a.feedSections(ctx)
	if err != nil {
		a.logFeedMiss("tracks", err)
		return a.fallbackTracks(ctx), nil
	}

	var out []domain.Record
	for _, kw := range trackSectionKeywords {
		for _, s := range sections {
			if !strings.Contains(strings.ToLower(s.Title), kw) {
				continue
			}
			out = append(out, filterKind(s.Records, domain.KindTrack)...)
		}
	}
	if out = dedupeByID(out); len(out) == 0 {
		return a.fallbackTracks(ctx), nil
	}
	return out, nil
}

// Albums lists album shelves from the home feed. The feed does not
// distinguish album list types, so listType is accepted for interface
// parity only.
func (a *Adapter) Albums(ctx context.Context, listType string) ([]domain.Record, error) {
	sections, err := a.feedSections(ctx)
	if err != nil {
		a.logFeedMiss("albums", err)
		return a.fallbackAlbums(ctx), nil
	}

	var out []domain.Record
	for _, s := range sections {
		out = append(out, filterKind(s.Records, domain.KindAlbum)...)
	}
	if out = dedupeByID(out); len(out) == 0 {
		return a.fallbackAlbums(ctx), nil
	}
	return out, nil
}

func (a *Adapter) Playlists(ctx context.Context) ([]domain.Record, error) {
	sections, err := a.feedSections(ctx)
	if err != nil {
		a.logFeedMiss("playlists", err)
		return nil, nil
	}

	var out []domain.Record
	for _, s := range sections {
		out = append(out, filterKind(s.Records, domain.KindPlaylist)...)
	}
	return dedupeByID(out), nil
}

func (a *Adapter) Artists(ctx context.Context, listType string) ([]domain.Record, error) {
	sections, err := a.feedSections(ctx)
	if err != nil {
		a.logFeedMiss("artists", err)
		return a.fallbackArtists(ctx), nil
	}

	var out []domain.Record
	for _, s := range sections {
		out = append(out, filterKind(s.Records, domain.KindArtist)...)
	}
	if out = dedupeByID(out); len(out) == 0 {
		return a.fallbackArtists(ctx), nil
	}
	return out, nil
}

// Search merges catalog search with generic video search, catalog
// results first, deduped on video id. Searching works without a
// cookie, so this capability never depends on authentication.
func (a *Adapter) Search(ctx context.Context, query string) ([]domain.Record, error) {
	items, err := a.catalogSearch(ctx, query)
	if err != nil {
		a.log.Warn("ytmusic: catalog search failed", logger.String("query", query), logger.Error(err))
	}
	out := mapTrackItems(items)

	if err := a.limiter.Wait(ctx); err != nil {
		return dedupeByID(out), nil
	}
	res, err := a.search.Search(ctx, query)
	if err != nil {
		a.log.Warn("ytmusic: video search failed", logger.String("query", query), logger.Error(err))
		return dedupeByID(out), nil
	}
	for _, r := range res.Results {
		if r.VideoID == "" {
			continue
		}
		out = append(out, domain.Record{
			ID:       domain.FormatID(serviceName, r.VideoID),
			Kind:     domain.KindTrack,
			Service:  serviceName,
			Title:    r.Title,
			Artist:   r.Channel,
			Duration: parseClock(r.Duration),
		})
	}
	return dedupeByID(out), nil
}

// Recommendations returns entries from the feed sections the tracks
// keyword ranking does NOT claim, i.e. the discovery shelves.
func (a *Adapter) Recommendations(ctx context.Context) ([]domain.Record, error) {
	sections, err := a.feedSections(ctx)
	if err != nil {
		a.logFeedMiss("recommendations", err)
		return nil, nil
	}

	var out []domain.Record
	for _, s := range sections {
		if matchesTrackKeywords(s.Title) {
			continue
		}
		out = append(out, s.Records...)
	}
	return dedupeByID(out), nil
}

// Radio starts the seed track's mix queue.
func (a *Adapter) Radio(ctx context.Context, seedID string) ([]domain.Record, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	recs, err := a.feed.mix(ctx, seedID)
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return recs, nil
}

// Profiles is unsupported: the web service exposes no account listing
// through the endpoints this adapter speaks.
func (a *Adapter) Profiles(ctx context.Context) ([]domain.Record, error) {
	return nil, nil
}

// ResolveStreamURL picks the best audio-only format for the track and
// computes its deciphered URL.
func (a *Adapter) ResolveStreamURL(ctx context.Context, nativeID string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}
	video, err := a.videos.GetVideoContext(ctx, nativeID)
	if err != nil {
		return "", domain.Upstream(serviceName, err)
	}

	formats := video.Formats.WithAudioChannels().Type("audio")
	if len(formats) == 0 {
		return "", domain.ErrNoAudioFormat
	}
	best := formats[0]
	for _, f := range formats[1:] {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	u, err := a.videos.GetStreamURLContext(ctx, video, &best)
	if err != nil {
		return "", domain.Upstream(serviceName, err)
	}
	return u, nil
}

func (a *Adapter) feedSections(ctx context.Context) ([]feedSection, error) {
	if !a.ready() {
		return nil, fmt.Errorf("%w: %s", domain.ErrAdapterNotConnected, serviceName)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.feed.homeSections(ctx)
}

func (a *Adapter) logFeedMiss(capability string, err error) {
	if errors.Is(err, domain.ErrAdapterNotConnected) {
		a.log.Debug("ytmusic: home feed skipped, not authenticated",
			logger.String("capability", capability))
		return
	}
	a.log.Warn("ytmusic: home feed unavailable",
		logger.String("capability", capability), logger.Error(err))
}

// catalogSearch runs the music-catalog track search, returning raw
// items so callers can lift album/artist references out of them.
func (a *Adapter) catalogSearch(ctx context.Context, query string) ([]*ytm.TrackItem, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := ytm.TrackSearch(query).Next()
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return result.Tracks, nil
}

// fallbackTracks runs the generic searches. Never errors: worst case
// it returns an empty list.
func (a *Adapter) fallbackTracks(ctx context.Context) []domain.Record {
	var out []domain.Record
	for _, q := range fallbackQueries {
		items, err := a.catalogSearch(ctx, q)
		if err != nil {
			a.log.Warn("ytmusic: fallback search failed", logger.String("query", q), logger.Error(err))
			continue
		}
		out = append(out, mapTrackItems(items)...)
	}
	return dedupeByID(out)
}

func (a *Adapter) fallbackAlbums(ctx context.Context) []domain.Record {
	items, err := a.catalogSearch(ctx, "top albums")
	if err != nil {
		a.log.Warn("ytmusic: album fallback failed", logger.Error(err))
		return nil
	}
	var out []domain.Record
	for _, it := range items {
		if it == nil || it.Album == nil || it.Album.ID == "" {
			continue
		}
		rec := domain.Record{
			ID:      domain.FormatID(serviceName, it.Album.ID),
			Kind:    domain.KindAlbum,
			Service: serviceName,
			Title:   it.Album.Name,
		}
		if len(it.Artists) > 0 {
			rec.Artist = it.Artists[0].Name
		}
		out = append(out, rec)
	}
	return dedupeByID(out)
}

func (a *Adapter) fallbackArtists(ctx context.Context) []domain.Record {
	items, err := a.catalogSearch(ctx, "popular artists")
	if err != nil {
		a.log.Warn("ytmusic: artist fallback failed", logger.Error(err))
		return nil
	}
	var out []domain.Record
	for _, it := range items {
		if it == nil {
			continue
		}
		for _, artist := range it.Artists {
			if artist.ID == "" || artist.Name == "" {
				continue
			}
			out = append(out, domain.Record{
				ID:      domain.FormatID(serviceName, artist.ID),
				Kind:    domain.KindArtist,
				Service: serviceName,
				Title:   artist.Name,
			})
		}
	}
	return dedupeByID(out)
}

func mapTrackItems(items []*ytm.TrackItem) []domain.Record {
	out := make([]domain.Record, 0, len(items))
	for _, it := range items {
		if it == nil || it.VideoID == "" {
			continue
		}
		rec := domain.Record{
			ID:       domain.FormatID(serviceName, it.VideoID),
			Kind:     domain.KindTrack,
			Service:  serviceName,
			Title:    it.Title,
			Duration: it.Duration,
		}
		if len(it.Artists) > 0 {
			rec.Artist = it.Artists[0].Name
		}
		if it.Album != nil {
			rec.Album = it.Album.Name
		}
		if len(it.Thumbnails) > 0 {
			rec.Artwork = it.Thumbnails[len(it.Thumbnails)-1].URL
		}
		out = append(out, rec)
	}
	return out
}

func matchesTrackKeywords(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range trackSectionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func filterKind(recs []domain.Record, kind domain.Kind) []domain.Record {
	var out []domain.Record
	for _, r := range recs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func dedupeByID(recs []domain.Record) []domain.Record {
	if len(recs) < 2 {
		return recs
	}
	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, r := range recs {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
