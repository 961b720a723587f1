// Package subsonic adapts self-hosted media servers speaking the
// Subsonic REST API (Navidrome, Airsonic, Gonic, ...). Unlike the
// hosted services it can serve its own audio: stream URLs are derived
// locally with the salted-token auth scheme and the server handles
// ranged GETs natively.
package subsonic

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gosubsonic "github.com/dweymouth/go-subsonic/subsonic"

	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
)

const (
	serviceName = "subsonic"

	apiVersion = "1.15.0"
	clientID   = "medley"

	requestTimeout = 15 * time.Second
)

// albumListTypes are the getAlbumList2 orderings the REST API accepts.
var albumListTypes = map[string]bool{
	"newest":               true,
	"recent":               true,
	"frequent":             true,
	"random":               true,
	"starred":              true,
	"alphabeticalByName":   true,
	"alphabeticalByArtist": true,
}

type Adapter struct {
	log      logger.Logger
	baseURL  string
	username string
	password string

	mu            sync.Mutex
	client        *gosubsonic.Client
	authenticated bool
}

func New(baseURL, username, password string, log logger.Logger) *Adapter {
	return &Adapter{
		log:      log,
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
	}
}

func (a *Adapter) Name() string { return serviceName }

// Authenticate opens the REST client and pings the server. Idempotent.
func (a *Adapter) Authenticate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authenticated {
		return nil
	}
	if a.baseURL == "" || a.username == "" || a.password == "" {
		return fmt.Errorf("%w: server url, username and password are required", domain.ErrAuthentication)
	}

	client := &gosubsonic.Client{
		Client:     &http.Client{Timeout: requestTimeout},
		BaseUrl:    a.baseURL,
		User:       a.username,
		ClientName: clientID,
	}
	if err := client.Authenticate(a.password); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	a.client = client
	a.authenticated = true
	return nil
}

func (a *Adapter) api() *gosubsonic.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// Tracks returns a random selection: the REST API has no saved-track
// list, so a rotating sample of the library stands in.
func (a *Adapter) Tracks(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	songs, err := client.GetRandomSongs(map[string]string{"size": "50"})
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return a.mapChildren(songs), nil
}

// Albums lists albums in the requested ordering (newest, frequent,
// random, ...); unrecognized orderings fall back to newest.
func (a *Adapter) Albums(ctx context.Context, listType string) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	if !albumListTypes[listType] {
		listType = "newest"
	}
	albums, err := client.GetAlbumList2(listType, map[string]string{"size": "50"})
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return a.mapAlbums(albums), nil
}

func (a *Adapter) Playlists(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	playlists, err := client.GetPlaylists(nil)
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return a.mapPlaylists(playlists), nil
}

// Artists flattens the server's indexed artist list; listType is
// accepted for interface parity only.
func (a *Adapter) Artists(ctx context.Context, listType string) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	idx, err := client.GetArtists(nil)
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}

	var out []domain.Record
	for _, index := range idx.Index {
		for _, artist := range index.Artist {
			if artist == nil || artist.ID == "" {
				continue
			}
			out = append(out, domain.Record{
				ID:      domain.FormatID(serviceName, artist.ID),
				Kind:    domain.KindArtist,
				Service: serviceName,
				Title:   artist.Name,
				Artwork: a.artworkURL(artist.CoverArt),
			})
		}
	}
	return out, nil
}

// Search runs search3 and merges songs, albums and artists.
func (a *Adapter) Search(ctx context.Context, query string) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	res, err := client.Search3(query, nil)
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}

	var out []domain.Record
	out = append(out, a.mapChildren(res.Song)...)
	out = append(out, a.mapAlbums(res.Album)...)
	for _, artist := range res.Artist {
		if artist == nil || artist.ID == "" {
			continue
		}
		out = append(out, domain.Record{
			ID:      domain.FormatID(serviceName, artist.ID),
			Kind:    domain.KindArtist,
			Service: serviceName,
			Title:   artist.Name,
			Artwork: a.artworkURL(artist.CoverArt),
		})
	}
	return out, nil
}

// Recommendations surfaces a random album shelf for discovery.
func (a *Adapter) Recommendations(ctx context.Context) ([]domain.Record, error) {
	client := a.api()
	if client == nil {
		return nil, nil
	}
	albums, err := client.GetAlbumList2("random", map[string]string{"size": "20"})
	if err != nil {
		return nil, domain.Upstream(serviceName, err)
	}
	return a.mapAlbums(albums), nil
}

// Radio is unsupported; seed mixes come from the web-music adapter.
func (a *Adapter) Radio(ctx context.Context, seedID string) ([]domain.Record, error) {
	return nil, nil
}

// Profiles reports the connected account. The REST API has no profile
// endpoint, so this is assembled locally.
func (a *Adapter) Profiles(ctx context.Context) ([]domain.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.authenticated {
		return nil, nil
	}
	return []domain.Record{{
		ID:      domain.FormatID(serviceName, a.username),
		Kind:    domain.KindProfile,
		Service: serviceName,
		Title:   a.username,
	}}, nil
}

// ResolveStreamURL derives the authenticated rest/stream URL for a
// song id. No upstream call: the URL embeds a fresh salted token and
// the server itself handles range requests.
func (a *Adapter) ResolveStreamURL(ctx context.Context, nativeID string) (string, error) {
	if nativeID == "" {
		return "", domain.ErrTrackUnavailable
	}
	a.mu.Lock()
	ok := a.authenticated
	a.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrAdapterNotConnected, serviceName)
	}
	return a.restURL("stream", nativeID), nil
}

// restURL builds an authenticated REST endpoint URL using the salted
// token scheme: t = md5(password + salt).
func (a *Adapter) restURL(endpoint, id string) string {
	salt := randomSalt()
	token := md5.Sum([]byte(a.password + salt))

	v := url.Values{}
	v.Set("u", a.username)
	v.Set("t", hex.EncodeToString(token[:]))
	v.Set("s", salt)
	v.Set("v", apiVersion)
	v.Set("c", clientID)
	v.Set("id", id)
	return fmt.Sprintf("%s/rest/%s?%s", a.baseURL, endpoint, v.Encode())
}

func (a *Adapter) artworkURL(coverID string) string {
	if coverID == "" {
		return ""
	}
	return a.restURL("getCoverArt", coverID)
}

func randomSalt() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

func (a *Adapter) mapChildren(songs []*gosubsonic.Child) []domain.Record {
	out := make([]domain.Record, 0, len(songs))
	for _, s := range songs {
		if s == nil || s.ID == "" {
			continue
		}
		out = append(out, domain.Record{
			ID:       domain.FormatID(serviceName, s.ID),
			Kind:     domain.KindTrack,
			Service:  serviceName,
			Title:    s.Title,
			Artist:   s.Artist,
			Album:    s.Album,
			Artwork:  a.artworkURL(s.CoverArt),
			Duration: s.Duration,
		})
	}
	return out
}

func (a *Adapter) mapAlbums(albums []*gosubsonic.AlbumID3) []domain.Record {
	out := make([]domain.Record, 0, len(albums))
	for _, alb := range albums {
		if alb == nil || alb.ID == "" {
			continue
		}
		out = append(out, domain.Record{
			ID:         domain.FormatID(serviceName, alb.ID),
			Kind:       domain.KindAlbum,
			Service:    serviceName,
			Title:      alb.Name,
			Artist:     alb.Artist,
			Artwork:    a.artworkURL(alb.CoverArt),
			TrackCount: alb.SongCount,
			Year:       alb.Year,
		})
	}
	return out
}

func (a *Adapter) mapPlaylists(playlists []*gosubsonic.Playlist) []domain.Record {
	out := make([]domain.Record, 0, len(playlists))
	for _, pl := range playlists {
		if pl == nil || pl.ID == "" {
			continue
		}
		out = append(out, domain.Record{
			ID:         domain.FormatID(serviceName, pl.ID),
			Kind:       domain.KindPlaylist,
			Service:    serviceName,
			Title:      pl.Name,
			Artist:     pl.Owner,
			Artwork:    a.artworkURL(pl.CoverArt),
			TrackCount: pl.SongCount,
		})
	}
	return out
}
