package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/medley-audio/medley/internal/adapter/spotify"
	"github.com/medley-audio/medley/internal/adapter/subsonic"
	"github.com/medley-audio/medley/internal/adapter/ytmusic"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
)

// Service names accepted by New. Each doubles as the record id prefix
// of the matching adapter.
const (
	ServiceYTMusic  = "ytmusic"
	ServiceSpotify  = "spotify"
	ServiceSubsonic = "subsonic"
)

// Adapter is the capability set every backing service exposes.
//
// Every capability returns normalized records. An adapter that cannot
// support a capability returns an empty sequence, never an error;
// callers must not depend on which services support what. Real
// upstream failures wrap as domain.UpstreamError.
//
// Calling a capability before authentication succeeds yields an empty
// sequence (or degraded public results where the service allows it),
// never an error.
type Adapter interface {
	// Name returns the service name used as the record id prefix.
	Name() string

	// Authenticate is idempotent: a second call while authenticated is
	// a no-op. Missing credentials fail fast with
	// domain.ErrAuthentication, without network I/O.
	Authenticate(ctx context.Context) error

	Tracks(ctx context.Context) ([]domain.Record, error)
	Albums(ctx context.Context, listType string) ([]domain.Record, error)
	Playlists(ctx context.Context) ([]domain.Record, error)
	Artists(ctx context.Context, listType string) ([]domain.Record, error)
	Search(ctx context.Context, query string) ([]domain.Record, error)
	Recommendations(ctx context.Context) ([]domain.Record, error)
	Radio(ctx context.Context, seedID string) ([]domain.Record, error)
	Profiles(ctx context.Context) ([]domain.Record, error)
}

// StreamSource is implemented by adapters that can turn one of their
// native track ids into a short-lived playable URL.
type StreamSource interface {
	ResolveStreamURL(ctx context.Context, nativeID string) (string, error)
}

// Credentials carries everything any adapter might need to connect.
// Each adapter reads only its own fields; the rest stay empty.
type Credentials struct {
	// Web-music: raw Cookie header captured from a browser session.
	Cookie string `json:"cookie,omitempty"`

	// Consumer streaming: OAuth2 app and token material.
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	// Self-hosted: server URL plus account.
	BaseURL  string `json:"baseUrl,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Handle is a session's hold on one connected service: the credential
// bundle it was opened with, the adapter built from it, and whether
// authentication has succeeded yet.
//
// Authentication runs at most once per handle: the first EnsureAuth
// performs it, later calls are no-ops. A handle whose authentication
// failed is dropped by its session, so retrying a connect starts from
// a fresh handle rather than a poisoned one.
type Handle struct {
	Service string
	Creds   Credentials
	Adapter Adapter

	mu            sync.Mutex
	authenticated bool
}

// EnsureAuth authenticates the underlying adapter at most once.
func (h *Handle) EnsureAuth(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.authenticated {
		return nil
	}
	if err := h.Adapter.Authenticate(ctx); err != nil {
		return err
	}
	h.authenticated = true
	return nil
}

// Reset clears the authenticated flag so the next EnsureAuth re-runs
// authentication. Used when switching profiles on the same service.
func (h *Handle) Reset() {
	h.mu.Lock()
	h.authenticated = false
	h.mu.Unlock()
}

// New builds a fresh handle for service from creds. Unknown service
// names fail with domain.ErrUnknownService.
func New(service string, creds Credentials, log logger.Logger) (*Handle, error) {
	var a Adapter
	switch service {
	case ServiceYTMusic:
		a = ytmusic.New(creds.Cookie, log)
	case ServiceSpotify:
		a = spotify.New(spotify.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
		}, log)
	case ServiceSubsonic:
		a = subsonic.New(creds.BaseURL, creds.Username, creds.Password, log)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, service)
	}
	return &Handle{Service: service, Creds: creds, Adapter: a}, nil
}
