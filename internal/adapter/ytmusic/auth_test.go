package ytmusic

import (
	"strings"
	"testing"
	"time"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected map[string]string
	}{
		{
			name: "typical browser export",
			raw:  "VISITOR_INFO1_LIVE=abc123; __Secure-3PAPISID=tok/en123; PREF=f6=40000",
			expected: map[string]string{
				"VISITOR_INFO1_LIVE": "abc123",
				"__Secure-3PAPISID":  "tok/en123",
				"PREF":               "f6=40000",
			},
		},
		{
			name:     "extra whitespace and empty segments",
			raw:      " SID=aaa ;; HSID=bbb ",
			expected: map[string]string{"SID": "aaa", "HSID": "bbb"},
		},
		{
			name:     "empty string",
			raw:      "",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCookies(tt.raw)
			if len(got) != len(tt.expected) {
				t.Fatalf("parseCookies() returned %d entries, want %d", len(got), len(tt.expected))
			}
			for k, v := range tt.expected {
				if got[k] != v {
					t.Errorf("parseCookies()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestSapisidFromPrefersSecureVariant(t *testing.T) {
	cookies := map[string]string{
		"SAPISID":           "legacy",
		"__Secure-3PAPISID": "secure",
	}
	if got := sapisidFrom(cookies); got != "secure" {
		t.Errorf("sapisidFrom() = %q, want %q", got, "secure")
	}

	delete(cookies, "__Secure-3PAPISID")
	if got := sapisidFrom(cookies); got != "legacy" {
		t.Errorf("sapisidFrom() = %q, want %q", got, "legacy")
	}

	if got := sapisidFrom(map[string]string{}); got != "" {
		t.Errorf("sapisidFrom() = %q, want empty", got)
	}
}

func TestSapisidHash(t *testing.T) {
	now := time.Unix(1700000000, 0)

	h1 := sapisidHash("token", originURL, now)
	h2 := sapisidHash("token", originURL, now)
	if h1 != h2 {
		t.Errorf("hash not deterministic: %q vs %q", h1, h2)
	}

	wantPrefix := "SAPISIDHASH 1700000000_"
	if !strings.HasPrefix(h1, wantPrefix) {
		t.Fatalf("hash = %q, want prefix %q", h1, wantPrefix)
	}
	if digest := strings.TrimPrefix(h1, wantPrefix); len(digest) != 40 {
		t.Errorf("digest length = %d, want 40 hex chars", len(digest))
	}

	if other := sapisidHash("other", originURL, now); other == h1 {
		t.Errorf("different tokens produced identical hashes")
	}
}
