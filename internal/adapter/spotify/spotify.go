// Package spotify adapts the consumer streaming service through its
// public Web API. It maps the account's saved library, follows,
// playlists, search and seeded recommendations; it has no raw-audio
// capability, so playback of its tracks goes through the relay's
// candidate-search fallback.
package spotify

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	sp "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
)

const serviceName = "spotify"

// pageLimit caps list endpoints. One page is plenty for the merged
// home surface; callers paginate upstream services through their own
// clients when they need more.
const pageLimit = 50

// maxSeedTracks is the API's cap on recommendation seeds.
const maxSeedTracks = 5

// Config is the credential bundle for one account connection. Either
// a live access token or client id/secret plus refresh token works;
// with both present the refresh token keeps the client alive past
// access-token expiry.
type Config struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

type Adapter struct {
	log logger.Logger
	cfg Config

	mu            sync.Mutex
	client        *sp.Client
	authenticated bool
}

func New(cfg Config, log logger.Logger) *Adapter {
	return &Adapter{log: log, cfg: cfg}
}

func (a *Adapter) Name() string { return serviceName }

// Authenticate builds the API client from the stored token material
// and verifies it with a profile call. Idempotent.
func (a *Adapter) Authenticate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authenticated {
		return nil
	}
	if a.cfg.AccessToken == "" && (a.cfg.RefreshToken == "" || a.cfg.ClientID == "") {
		return fmt.Errorf("%w: missing token material", domain.ErrAuthentication)
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(a.cfg.ClientID),
		spotifyauth.WithClientSecret(a.cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopeUserFollowRead,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopeUserReadPrivate,
		),
	)

	token := &oauth2.Token{
		AccessToken:  a.cfg.AccessToken,
		RefreshToken: a.cfg.RefreshToken,
		TokenType:    "Bearer",
	}
	if token.AccessToken == "" {
		// Expired-from-birth token forces an immediate refresh.
		token.Expiry = time.Now().Add(-time.Minute)
	}

	client := sp.New(auth.Client(ctx, token))
	if _, err := client.CurrentUser(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	a.client = client
	a.authenticated = true
	return nil
}

func (a *Adapter) api() *sp.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// Tracks lists the account's saved tracks.
func (a *Adapter) Tracks(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	page, err := client.CurrentUsersTracks(ctx, sp.Limit(pageLimit))
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return mapSavedTracks(page.Tracks), nil
}

// Albums lists the account's saved albums. The service keeps a single
// saved list, so listType is accepted for interface parity only.
func (a *Adapter) Albums(ctx context.Context, listType string) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	page, err := client.CurrentUsersAlbums(ctx, sp.Limit(pageLimit))
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	out := make([]domain.Record, 0, len(page.Albums))
	for _, alb := range page.Albums {
		out = append(out, mapSimpleAlbum(alb.SimpleAlbum))
	}
	return out, nil
}

func (a *Adapter) Playlists(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	page, err := client.CurrentUsersPlaylists(ctx, sp.Limit(pageLimit))
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return mapSimplePlaylists(page.Playlists), nil
}

// Artists lists the artists the account follows; listType is accepted
// for interface parity only.
func (a *Adapter) Artists(ctx context.Context, listType string) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	page, err := client.CurrentUsersFollowedArtists(ctx)
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return mapFullArtists(page.Artists), nil
}

// Search queries all four entity types in a single combined call.
func (a *Adapter) Search(ctx context.Context, query string) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	results, err := client.Search(ctx, query,
		sp.SearchTypeTrack|sp.SearchTypeAlbum|sp.SearchTypeArtist|sp.SearchTypePlaylist,
		sp.Limit(pageLimit))
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}

	var out []domain.Record
	if results.Tracks != nil {
		out = append(out, mapFullTracks(results.Tracks.Tracks)...)
	}
	if results.Albums != nil {
		for _, alb := range results.Albums.Albums {
			out = append(out, mapSimpleAlbum(alb))
		}
	}
	if results.Artists != nil {
		out = append(out, mapFullArtists(results.Artists.Artists)...)
	}
	if results.Playlists != nil {
		out = append(out, mapSimplePlaylists(results.Playlists.Playlists)...)
	}
	return out, nil
}

// Recommendations seeds the recommendation endpoint with the account's
// most recently saved tracks.
func (a *Adapter) Recommendations(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}

	saved, err := client.CurrentUsersTracks(ctx, sp.Limit(maxSeedTracks))
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	seeds := sp.Seeds{}
	for _, tr := range saved.Tracks {
		seeds.Tracks = append(seeds.Tracks, tr.ID)
	}
	if len(seeds.Tracks) == 0 {
		return nil, nil
	}

	recs, err := client.GetRecommendations(ctx, seeds, sp.NewTrackAttributes(), sp.Limit(pageLimit))
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return mapSimpleTracks(recs.Tracks), nil
}

// Radio is unsupported; seed mixes come from the web-music adapter.
func (a *Adapter) Radio(ctx context.Context, seedID string) ([]domain.Record, error) {
	return nil, nil
}

// Profiles returns the authenticated account's profile.
func (a *Adapter) Profiles(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	rec := domain.Record{
		ID:      domain.FormatID(serviceName, user.ID),
		Kind:    domain.KindProfile,
		Service: serviceName,
		Title:   user.DisplayName,
		Artwork: firstImage(user.Images),
	}
	if rec.Title == "" {
		rec.Title = user.ID
	}
	return []domain.Record{rec}, nil
}

func mapSavedTracks(tracks []sp.SavedTrack) []domain.Record {
	out := make([]domain.Record, 0, len(tracks))
	for _, tr := range tracks {
		out = append(out, mapFullTrack(tr.FullTrack))
	}
	return out
}

func mapFullTracks(tracks []sp.FullTrack) []domain.Record {
	out := make([]domain.Record, 0, len(tracks))
	for _, tr := range tracks {
		out = append(out, mapFullTrack(tr))
	}
	return out
}

func mapFullTrack(tr sp.FullTrack) domain.Record {
	rec := domain.Record{
		ID:       domain.FormatID(serviceName, string(tr.ID)),
		Kind:     domain.KindTrack,
		Service:  serviceName,
		Title:    tr.Name,
		Album:    tr.Album.Name,
		Artwork:  firstImage(tr.Album.Images),
		Duration: int(tr.Duration) / 1000,
	}
	if len(tr.Artists) > 0 {
		rec.Artist = tr.Artists[0].Name
	}
	return rec
}

func mapSimpleTracks(tracks []sp.SimpleTrack) []domain.Record {
	out := make([]domain.Record, 0, len(tracks))
	for _, tr := range tracks {
		rec := domain.Record{
			ID:       domain.FormatID(serviceName, string(tr.ID)),
			Kind:     domain.KindTrack,
			Service:  serviceName,
			Title:    tr.Name,
			Duration: int(tr.Duration) / 1000,
		}
		if len(tr.Artists) > 0 {
			rec.Artist = tr.Artists[0].Name
		}
		out = append(out, rec)
	}
	return out
}

func mapSimpleAlbum(alb sp.SimpleAlbum) domain.Record {
	rec := domain.Record{
		ID:      domain.FormatID(serviceName, string(alb.ID)),
		Kind:    domain.KindAlbum,
		Service: serviceName,
		Title:   alb.Name,
		Artwork: firstImage(alb.Images),
		Year:    releaseYear(alb.ReleaseDate),
	}
	if len(alb.Artists) > 0 {
		rec.Artist = alb.Artists[0].Name
	}
	return rec
}

func mapSimplePlaylists(playlists []sp.SimplePlaylist) []domain.Record {
	out := make([]domain.Record, 0, len(playlists))
	for _, pl := range playlists {
		out = append(out, domain.Record{
			ID:         domain.FormatID(serviceName, string(pl.ID)),
			Kind:       domain.KindPlaylist,
			Service:    serviceName,
			Title:      pl.Name,
			Artist:     pl.Owner.DisplayName,
			Artwork:    firstImage(pl.Images),
			TrackCount: int(pl.Tracks.Total),
		})
	}
	return out
}

func mapFullArtists(artists []sp.FullArtist) []domain.Record {
	out := make([]domain.Record, 0, len(artists))
	for _, ar := range artists {
		out = append(out, domain.Record{
			ID:      domain.FormatID(serviceName, string(ar.ID)),
			Kind:    domain.KindArtist,
			Service: serviceName,
			Title:   ar.Name,
			Artwork: firstImage(ar.Images),
		})
	}
	return out
}

// firstImage picks the first variant; the API sorts largest first.
func firstImage(images []sp.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
