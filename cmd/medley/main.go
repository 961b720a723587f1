package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/medley-audio/medley/internal/app"
	"github.com/medley-audio/medley/internal/config"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/relay"
	"github.com/medley-audio/medley/internal/sources/nodes"
	"github.com/medley-audio/medley/internal/version"
)

func main() {
	root := &cli.Command{
		Name:    "medley",
		Usage:   "Session-scoped music aggregation and streaming server",
		Version: version.Version,
		Commands: []*cli.Command{
			serveCommand(),
			nodesCommand(),
		},
		// Bare invocation serves, matching the container entrypoint.
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return app.New().Run()
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ medley: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "load environment from `FILE` before reading config",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if f := cmd.String("env-file"); f != "" {
				if err := godotenv.Load(f); err != nil {
					return fmt.Errorf("load env file %s: %w", f, err)
				}
			}
			return app.New().Run()
		},
	}
}

// nodesCommand probes the backing nodes the server would use, in
// precedence order, without starting anything. Handy for checking env
// wiring before a deploy.
func nodesCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "Probe the resolved backing node list and exit",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-node probe timeout",
				Value: 3 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			log := logger.New("error", false)

			timeout := cmd.Duration("timeout")
			client := &http.Client{Timeout: timeout}

			tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOCKET\tSTATUS")
			for _, n := range nodes.Resolve(cfg, log) {
				probeCtx, cancel := context.WithTimeout(ctx, timeout)
				status := "healthy"
				if err := relay.Probe(probeCtx, client, n); err != nil {
					status = err.Error()
				}
				cancel()
				fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Name(), n.SocketURL(), status)
			}
			return tw.Flush()
		},
	}
}
