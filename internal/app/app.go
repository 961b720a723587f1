package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medley-audio/medley/internal/aggregate"
	"github.com/medley-audio/medley/internal/config"
	"github.com/medley-audio/medley/internal/httpserver"
	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/relay"
	"github.com/medley-audio/medley/internal/scheduler"
	"github.com/medley-audio/medley/internal/session"
	nodesrc "github.com/medley-audio/medley/internal/sources/nodes"
	"github.com/medley-audio/medley/internal/stream"
	"github.com/medley-audio/medley/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	registry    *session.Registry
	sweeper     *scheduler.SessionSweeper
	coordinator *relay.Coordinator
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	registry := session.NewRegistry(cfg.SessionIdleTTL, loggerClient)
	engine := aggregate.New(loggerClient, cfg.DefaultCookie)
	streamRelay := stream.NewRelay(stream.Config{
		CacheTTL:        cfg.StreamCacheTTL,
		UpstreamTimeout: cfg.UpstreamTimeout,
		MaxCandidates:   cfg.MaxStreamCandidates,
		DefaultCookie:   cfg.DefaultCookie,
	}, registry, loggerClient)

	sweeper := scheduler.NewSessionSweeper(registry, loggerClient, cfg.SessionSweepInterval)

	// The node list is never empty: Resolve falls back to the built-in
	// public nodes, so a constructor error here is a bug.
	nodes := nodesrc.Resolve(cfg, loggerClient)
	coordinator, err := relay.NewCoordinator(nodes, relay.Config{
		ProbeTimeout:         cfg.ProbeTimeout,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to build relay coordinator: %v", err)
		os.Exit(1)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AccessKey:    cfg.AccessKey,
		AllowedHosts: cfg.AllowedHosts,
		MetricsCIDRs: cfg.MetricsCIDRs,
		TrustProxy:   cfg.TrustProxy,
		Registry:     registry,
		Engine:       engine,
		Stream:       streamRelay,
		Coordinator:  coordinator,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		registry:    registry,
		sweeper:     sweeper,
		coordinator: coordinator,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Medley v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Medley %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the session sweeper (reclaims idle sessions periodically)
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}
	a.logger.Info("session sweeper started",
		logger.Duration("interval", a.cfg.SessionSweepInterval))

	// Start the relay coordinator (connects to a backing node)
	if err := a.coordinator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start relay coordinator: %w", err)
	}
	go a.watchRelay(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop background components before the server drains
	a.sweeper.Stop()
	a.coordinator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Medley stopped cleanly")
	return nil
}

// watchRelay drains coordinator events. Losing the relay for good is an
// error the health endpoint also reflects; track lifecycle chatter stays
// at debug.
func (a *App) watchRelay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.coordinator.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case relay.EventDisconnected:
				a.logger.Error("relay permanently disconnected, node playback disabled",
					logger.String("node", ev.Node))
			case relay.EventReady:
				a.logger.Info("relay node ready",
					logger.String("node", ev.Node))
			case relay.EventTrackException, relay.EventTrackStuck:
				a.logger.Warn("relay reported a track problem",
					logger.String("event", string(ev.Type)),
					logger.String("node", ev.Node))
			default:
				a.logger.Debug("relay event",
					logger.String("event", string(ev.Type)),
					logger.String("node", ev.Node))
			}
		}
	}
}
