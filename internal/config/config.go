package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	AccessKey     string // shared secret checked against the X-Access-Key header
	DefaultCookie string // ambient web-music cookie for implicit connects (optional, empty = disabled)

	SessionIdleTTL       time.Duration // sessions idle longer than this get swept (default: 1h)
	SessionSweepInterval time.Duration // interval between registry sweeps (default: 5m)

	StreamCacheTTL      time.Duration // TTL for resolved stream URLs (default: 30m)
	UpstreamTimeout     time.Duration // connect/header budget for upstream audio requests (default: 15s)
	MaxStreamCandidates int           // search candidates tried when a track has no direct source (default: 3)

	// Relay nodes, by precedence: JSON env, discrete fields, YAML file, built-in fallbacks.
	RelayNodesJSON string // JSON array of nodes (ex: [{"host":"...","port":443,"secret":"...","secure":true}])
	RelayHost      string // discrete single-node fields, used when RelayNodesJSON is empty
	RelayPort      int
	RelaySecret    string
	RelaySecure    bool
	RelayNodesFile string // path to a YAML node list (optional)

	ProbeTimeout         time.Duration // per-node health probe budget (default: 3s)
	ReconnectDelay       time.Duration // fixed wait between reconnect attempts (default: 5s)
	MaxReconnectAttempts int           // reconnect attempts before giving up (default: 5)

	// Access restrictions
	AllowedOrigins   []string // optional CORS allowlist (empty = allow any origin)
	AllowedHosts     []string // optional Host header allowlist for /api (empty = any)
	MetricsCIDRs     []string // optional IP/CIDR allowlist for /metrics (empty = public)
	RateBurst        int      // rate-limit bucket capacity per client IP
	RateRefillPerMin int      // tokens refilled per minute per client IP
	TrustProxy       bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	// Best-effort .env load for local development. Deployed environments set vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MEDLEY_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MEDLEY_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MEDLEY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MEDLEY_PRETTY_LOG", true),

		// API access
		AccessKey:     requireEnv("MEDLEY_ACCESS_KEY"),
		DefaultCookie: getenv("MEDLEY_DEFAULT_COOKIE", ""),

		// Sessions
		SessionIdleTTL:       mustDuration("MEDLEY_SESSION_IDLE_TTL", time.Hour),
		SessionSweepInterval: mustDuration("MEDLEY_SESSION_SWEEP_INTERVAL", 5*time.Minute),

		// Streaming
		StreamCacheTTL:      mustDuration("MEDLEY_STREAM_CACHE_TTL", 30*time.Minute),
		UpstreamTimeout:     mustDuration("MEDLEY_UPSTREAM_TIMEOUT", 15*time.Second),
		MaxStreamCandidates: getenvInt("MEDLEY_MAX_STREAM_CANDIDATES", 3),

		// Relay nodes
		RelayNodesJSON: getenv("MEDLEY_RELAY_NODES", ""),
		RelayHost:      getenv("MEDLEY_RELAY_HOST", ""),
		RelayPort:      getenvInt("MEDLEY_RELAY_PORT", 443),
		RelaySecret:    getenv("MEDLEY_RELAY_SECRET", ""),
		RelaySecure:    mustBool("MEDLEY_RELAY_SECURE", true),
		RelayNodesFile: getenv("MEDLEY_RELAY_NODES_FILE", ""),

		ProbeTimeout:         mustDuration("MEDLEY_PROBE_TIMEOUT", 3*time.Second),
		ReconnectDelay:       mustDuration("MEDLEY_RECONNECT_DELAY", 5*time.Second),
		MaxReconnectAttempts: getenvInt("MEDLEY_MAX_RECONNECT_ATTEMPTS", 5),

		// Access restrictions
		AllowedOrigins:   splitAndTrim(getenv("MEDLEY_ALLOWED_ORIGINS", "")),
		AllowedHosts:     splitAndTrim(getenv("MEDLEY_ALLOWED_HOSTS", "")),
		MetricsCIDRs:     splitAndTrim(getenv("MEDLEY_METRICS_CIDRS", "")),
		RateBurst:        getenvInt("MEDLEY_RATE_BURST", 60),
		RateRefillPerMin: getenvInt("MEDLEY_RATE_REFILL_PER_MIN", 120),
		TrustProxy:       mustBool("MEDLEY_TRUST_PROXY", true),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.AccessKey = "***REDACTED***"
		if cfgCopy.DefaultCookie != "" {
			cfgCopy.DefaultCookie = "***REDACTED***"
		}
		if cfgCopy.RelaySecret != "" {
			cfgCopy.RelaySecret = "***REDACTED***"
		}
		if cfgCopy.RelayNodesJSON != "" {
			cfgCopy.RelayNodesJSON = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
