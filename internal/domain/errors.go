package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across components. HTTP handlers map these to
// statuses; everything else wraps them with fmt.Errorf + %w.
var (
	ErrAuthentication      = errors.New("authentication failed")
	ErrUnknownService      = errors.New("unknown service")
	ErrAdapterNotConnected = errors.New("service not connected")
	ErrNoAudioFormat       = errors.New("no audio format available")
	ErrNoHealthyNode       = errors.New("no healthy relay nodes")
	ErrTrackUnavailable    = errors.New("track unavailable")
	ErrInvalidMediaID      = errors.New("invalid media id")
)

// UpstreamError wraps a backing-service failure with the service name
// so aggregation logs can attribute it.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError for service. A nil err stays nil.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Err: err}
}
