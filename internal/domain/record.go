package domain

import (
	"fmt"
	"strings"
)

// Kind discriminates what a Record describes.
type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
	KindProfile  Kind = "profile"
)

// Record is the canonical normalized shape returned by every service
// adapter: tracks, albums, artists, playlists and account profiles all
// use it, regardless of origin.
//
// It is NOT tied to any backing service's payload. Adapters map their
// native responses into Records; aggregation, HTTP and streaming speak
// only this type.
//
// A Record is uniquely identified by its ID, which always embeds the
// originating service name (see FormatID).
type Record struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is "<service>:<nativeId>", globally unique by construction.
	// Per-record operations (radio, stream resolution) parse it to
	// route back to the owning adapter.
	ID string `json:"id"`

	// Kind tells which variant this record is.
	Kind Kind `json:"kind"`

	// Service is the originating service name, duplicated out of ID
	// for display convenience.
	Service string `json:"service"`

	// ─────────────────────────────
	// Display
	// ─────────────────────────────

	// Title is the display name: track title, album/playlist name,
	// artist name or profile display name.
	Title string `json:"title"`

	// Artist is the primary display artist, when the variant has one.
	Artist string `json:"artist,omitempty"`

	// Album is the containing album title, for tracks.
	Album string `json:"album,omitempty"`

	// ─────────────────────────────
	// Optional attributes
	// (absent means the origin service does not expose it)
	// ─────────────────────────────

	// Artwork is a cover-art URL.
	Artwork string `json:"artwork,omitempty"`

	// Duration is the playing time in seconds.
	Duration int `json:"duration,omitempty"`

	// TrackCount is the number of entries in an album or playlist.
	TrackCount int `json:"trackCount,omitempty"`

	// Year is the release year, for albums.
	Year int `json:"year,omitempty"`
}

// FormatID builds the globally unique record id for a native id owned
// by service.
func FormatID(service, nativeID string) string {
	return service + ":" + nativeID
}

// ParseID splits a record id into its originating service name and
// native id. Native ids may themselves contain ':' so only the first
// separator counts.
func ParseID(id string) (service, nativeID string, err error) {
	service, nativeID, ok := strings.Cut(id, ":")
	if !ok || service == "" || nativeID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidMediaID, id)
	}
	return service, nativeID, nil
}
