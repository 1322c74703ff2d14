package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/httputil"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/server"
	"github.com/matzehuels/orgchart/pkg/session"
	"github.com/matzehuels/orgchart/pkg/watcher"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [file|url]",
		Short: "Serve the chart with an interactive viewer",
		Long: `Serve starts an HTTP server for the entity tree in file. Every visitor gets a
session with its own collapse state; the viewer posts toggles and clicks back to
the session. With --watch the tree is reloaded whenever the file changes.`,
		Example: `  orgchart serve holding.json
  orgchart serve holding.json --addr :8080 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), args[0], cfg)
		},
	}

	cmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().Bool("watch", false, "reload the tree when the file changes")
	cmd.Flags().Duration("session-ttl", session.DefaultTTL, "idle time before a session is dropped")
	cmd.Flags().Bool("metrics", true, "expose prometheus metrics at /metrics")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, cfg *Config) error {
	if cfg.Serve.Watch && (input == "-" || httputil.IsURL(input)) {
		return fmt.Errorf("--watch needs a local file")
	}
	tree, err := c.loadTree(ctx, cfg, input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := session.NewMemoryStore(cfg.Serve.SessionTTL, nil)
	defer store.Close()
	go store.RunCleanup(ctx, cleanupInterval(cfg.Serve.SessionTTL))

	scfg := server.Config{
		Options: cfg.pipelineOptions(),
		Store:   store,
		Logger:  c.Logger,
	}
	if cfg.Serve.Metrics {
		scfg.Metrics = metricsHandler()
		defer observability.Reset()
	}

	srv, err := server.New(tree, scfg)
	if err != nil {
		return err
	}

	if cfg.Serve.Watch {
		if err := c.watchTree(ctx, input, srv); err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Serve.Addr, err)
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/"
	printSuccess("Serving %s", StyleHighlight.Render(tree.Label()))
	printKeyValue("URL", StyleLink.Render(url))
	printKeyValue("Sessions", fmt.Sprintf("expire after %s idle", cfg.Serve.SessionTTL))
	if cfg.Serve.Watch {
		printKeyValue("Watching", input)
	}
	printDetail("Press Ctrl+C to stop")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down", "sessions", store.Len())
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	return httpSrv.Shutdown(shutdownCtx)
}

// metricsHandler installs prometheus hooks on a fresh registry and returns
// its handler.
func metricsHandler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetChartHooks(hooks)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// watchTree reloads srv whenever input changes. A tree that fails to load
// is logged and the current one kept.
func (c *CLI) watchTree(ctx context.Context, input string, srv *server.Server) error {
	fw, err := watcher.New(input, watcher.Options{Logger: c.Logger})
	if err != nil {
		return err
	}
	go fw.Run(ctx)
	go func() {
		for ch := range fw.Changes() {
			tree, err := pipeline.Load(ch.Path, nil)
			if err != nil {
				c.Logger.Warn("reload failed", "path", ch.Path, "err", err)
				continue
			}
			if err := srv.Reload(tree); err != nil {
				c.Logger.Warn("reload failed", "path", ch.Path, "err", err)
				continue
			}
			printInfo("Reloaded %s", StyleHighlight.Render(tree.Label()))
		}
	}()
	return nil
}

// cleanupInterval sweeps a few times per TTL, at most once a minute.
func cleanupInterval(ttl time.Duration) time.Duration {
	d := ttl / 4
	if d <= 0 || d > time.Minute {
		return time.Minute
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
