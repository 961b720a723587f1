package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatParseRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		nativeID string
	}{
		{
			name:     "simple video id",
			service:  "ytmusic",
			nativeID: "dQw4w9WgXcQ",
		},
		{
			name:     "native id containing colon",
			service:  "subsonic",
			nativeID: "al:1234",
		},
		{
			name:     "base62 id",
			service:  "spotify",
			nativeID: "4uLU6hMCjMI75M1A2tKUQC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := FormatID(tt.service, tt.nativeID)
			if !strings.HasPrefix(id, tt.service+":") {
				t.Fatalf("FormatID() = %q, want prefix %q", id, tt.service+":")
			}

			service, nativeID, err := ParseID(id)
			if err != nil {
				t.Fatalf("ParseID(%q) error: %v", id, err)
			}
			if service != tt.service {
				t.Errorf("ParseID(%q) service = %q, want %q", id, service, tt.service)
			}
			if nativeID != tt.nativeID {
				t.Errorf("ParseID(%q) nativeID = %q, want %q", id, nativeID, tt.nativeID)
			}
		})
	}
}

func TestParseIDInvalid(t *testing.T) {
	for _, id := range []string{"", "noseparator", ":leading", "trailing:"} {
		if _, _, err := ParseID(id); !errors.Is(err, ErrInvalidMediaID) {
			t.Errorf("ParseID(%q) error = %v, want ErrInvalidMediaID", id, err)
		}
	}
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("spotify", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("errors.As(err, *UpstreamError) = false, want true")
	}
	if ue.Service != "spotify" {
		t.Errorf("Service = %q, want %q", ue.Service, "spotify")
	}

	if got := Upstream("spotify", nil); got != nil {
		t.Errorf("Upstream(nil) = %v, want nil", got)
	}
}
