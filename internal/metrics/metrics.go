// Package metrics declares the Prometheus instruments served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks live listening sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medley",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of live listening sessions.",
	})

	// SessionsSwept counts sessions evicted by the idle sweeper.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "session",
		Name:      "swept_total",
		Help:      "Sessions evicted after exceeding the idle TTL.",
	})

	// FanOuts counts aggregation fan-outs by capability.
	FanOuts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "aggregate",
		Name:      "fanouts_total",
		Help:      "Aggregation fan-outs by capability.",
	}, []string{"capability"})

	// AdapterFailures counts adapter calls that errored during fan-out.
	AdapterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "aggregate",
		Name:      "adapter_failures_total",
		Help:      "Adapter calls that returned an error during fan-out.",
	}, []string{"service"})

	// StreamCacheHits counts stream URL resolutions served from cache.
	StreamCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "stream",
		Name:      "cache_hits_total",
		Help:      "Stream URL resolutions served from the cache.",
	})

	// StreamCacheMisses counts stream URL resolutions that went upstream.
	StreamCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "stream",
		Name:      "cache_misses_total",
		Help:      "Stream URL resolutions that required an upstream lookup.",
	})

	// RelayReconnects counts backing node reconnect attempts.
	RelayReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "relay",
		Name:      "reconnects_total",
		Help:      "Backing node reconnect attempts.",
	})

	// HTTPRequests counts handled HTTP requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medley",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Handled HTTP requests.",
	}, []string{"method", "route", "status"})
)
