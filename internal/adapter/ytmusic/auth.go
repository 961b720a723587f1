package ytmusic

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Cookie names carrying the token used by the SAPISID-hash scheme.
// Newer sessions set the __Secure-3 prefixed variant.
var sapisidCookies = []string{"__Secure-3PAPISID", "SAPISID"}

// parseCookies splits a raw Cookie header into name/value pairs.
func parseCookies(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}

func sapisidFrom(cookies map[string]string) string {
	for _, name := range sapisidCookies {
		if v := cookies[name]; v != "" {
			return v
		}
	}
	return ""
}

// sapisidHash computes the Authorization header value for the internal
// API: "SAPISIDHASH <ts>_<sha1("<ts> <sapisid> <origin>")>".
func sapisidHash(sapisid, origin string, now time.Time) string {
	ts := now.Unix()
	sum := sha1.Sum([]byte(fmt.Sprintf("%d %s %s", ts, sapisid, origin)))
	return fmt.Sprintf("SAPISIDHASH %d_%x", ts, sum)
}
