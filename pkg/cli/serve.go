package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/adaptation"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/metrics"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/service/mcp"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cli.Command {
	var (
		cfg         config
		metricsAddr string
		httpAddr    string
		watch       bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "metrics-addr",
			Usage:       "Serve prometheus metrics on this address, e.g. :9090",
			Sources:     cli.EnvVars("ADAPTIVE_METRICS_ADDR"),
			Destination: &metricsAddr,
		},
		&cli.StringFlag{
			Name:        "http-addr",
			Usage:       "Serve MCP over streamable HTTP on this address instead of stdio",
			Sources:     cli.EnvVars("ADAPTIVE_HTTP_ADDR"),
			Destination: &httpAddr,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Aliases:     []string{"w"},
			Usage:       "Reload Rego policies when files in --policy-dir change",
			Sources:     cli.EnvVars("ADAPTIVE_WATCH"),
			Destination: &watch,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg, backendNone)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Expose the engine as an MCP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watch && cfg.policyDir == "" {
				return goerr.New("--watch requires --policy-dir")
			}

			e, err := cfg.newEngine(ctx, true)
			if err != nil {
				return err
			}
			defer e.Close()

			var opts []mcp.Option
			var collector *metrics.Collector
			if metricsAddr != "" {
				collector = metrics.New(e.uc)
				opts = append(opts, mcp.WithObserver(collector))
			}
			server := mcp.New(e.uc, opts...)

			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				// the transport returning ends the whole command
				defer stop()
				if httpAddr != "" {
					return server.ServeHTTP(ctx, httpAddr)
				}
				return server.RunStdio(ctx)
			})

			if collector != nil {
				eg.Go(func() error {
					return collector.Serve(ctx, metricsAddr)
				})
			}

			if watch {
				w := adaptation.NewWatcher(e.rego)
				eg.Go(func() error {
					return w.Run(ctx)
				})
			}

			if err := eg.Wait(); err != nil {
				return err
			}
			logging.From(ctx).Info("server stopped")
			return nil
		},
	}
}
