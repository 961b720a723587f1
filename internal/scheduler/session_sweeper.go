package scheduler

import (
	"context"
	"time"

	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/session"
)

const (
	// DefaultSweepInterval is used when no interval is configured.
	DefaultSweepInterval = 5 * time.Minute
)

// SessionSweeper periodically evicts idle listening sessions.
type SessionSweeper struct {
	registry *session.Registry
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSessionSweeper creates a new session sweeper.
func NewSessionSweeper(reg *session.Registry, log logger.Logger, interval time.Duration) *SessionSweeper {
	if interval == 0 {
		interval = DefaultSweepInterval
	}

	return &SessionSweeper{
		registry: reg,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep process.
func (sw *SessionSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.Sweep()
			case <-sw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper.
func (sw *SessionSweeper) Stop() {
	close(sw.stopCh)
}

// Sweep runs one eviction pass over the registry.
func (sw *SessionSweeper) Sweep() {
	evicted := sw.registry.Sweep(time.Now())
	if evicted > 0 {
		sw.logger.Info("idle sessions evicted",
			logger.Int("count", evicted),
			logger.Int("remaining", sw.registry.Count()))
	} else {
		sw.logger.Debug("no idle sessions to evict")
	}
}
