package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/raoulx24/heapsnap/internal/config"
	"github.com/raoulx24/heapsnap/internal/logging"
	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/profiler"
	"github.com/raoulx24/heapsnap/internal/watcher"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the snapshot lifecycle inside this process until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.yaml",
				EnvVars: []string{"HEAPSNAP_CONFIG"},
				Value:   "config.yaml",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"))
		},
	}
}

// host owns the running Manager and swaps it on reload.
type host struct {
	log     logging.Logger
	metrics *metrics.Metrics
	mgr     *profiler.Manager
}

// apply swaps in a Manager for cfg. An invalid cfg is rejected before the
// running Manager is touched, so its timers and pending deletions survive a
// bad reload.
func (h *host) apply(cfg config.Profiler) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	next := profiler.New(cfg,
		profiler.WithLogger(h.log),
		profiler.WithMetrics(h.metrics),
	)
	if h.mgr != nil {
		h.mgr.Stop()
	}
	if err := next.Start(); err != nil {
		next.Stop()
		h.mgr = nil
		return err
	}
	h.mgr = next
	return nil
}

func (h *host) stop() {
	if h.mgr != nil {
		h.mgr.Stop()
	}
}

func run(parent context.Context, path string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg := logging.New(cfg.Logging, os.Stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	h := &host{log: logg, metrics: metrics.New(reg)}

	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics, reg, logg)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := h.apply(cfg.Profiler); err != nil {
		return fmt.Errorf("starting profiler: %w", err)
	}
	defer h.stop()

	// Hot reload on SIGHUP or, when enabled, on config file change
	reloadCh := make(chan struct{}, 1)
	trigger := func() {
		select {
		case reloadCh <- struct{}{}:
		default:
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				trigger()
			}
		}
	}()

	if cfg.ConfigReload.Enabled {
		w := watcher.New(path, cfg.ConfigReload, logg, trigger)
		go func() {
			if err := w.Start(ctx); err != nil {
				logg.Error("config watcher stopped", "error", err)
			}
		}()
	}

	logg.Info("heapsnap running", "config", path, "dir", cfg.Profiler.Dir)

	for {
		select {
		case <-ctx.Done():
			logg.Info("shutting down")
			return nil

		case <-reloadCh:
			newCfg, err := config.Load(path)
			if err != nil {
				logg.Error("config reload failed", "error", err)
				continue
			}
			if err := h.apply(newCfg.Profiler); err != nil {
				logg.Error("config reload: profiler restart failed", "error", err)
				continue
			}
			logg.Info("config reloaded")
		}
	}
}

func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logg logging.Logger) *http.Server {
	p := cfg.Path
	if p == "" {
		p = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(p, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logg.Info("metrics listening", "addr", cfg.Listen, "path", p)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
