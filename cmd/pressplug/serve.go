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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ferro-labs/pressplug"
	"github.com/ferro-labs/pressplug/internal/inspect"
	"github.com/ferro-labs/pressplug/internal/logging"
	"github.com/ferro-labs/pressplug/internal/metrics"
	"github.com/ferro-labs/pressplug/internal/version"
	"github.com/ferro-labs/pressplug/internal/watch"
)

func newServeCmd() *cobra.Command {
	var (
		lf      ledgerFlags
		addr    string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve <config-file>",
		Short: "Register plugins and serve the inspect API",
		Long: `Run a registration pass, then serve the read-only inspect API:

  GET /health            pass status (no token required)
  GET /hooks[/{name}]    hook contributors
  GET /options[/{name}]  option values and contributors
  GET /report            outcomes of the current pass
  GET /ledger            recorded passes (when a ledger is configured)
  GET /metrics           Prometheus metrics

The config file is watched and every change triggers a new pass. A pass
that fails leaves the previous one in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}

			var opts []pressplug.SiteOption
			store, err := lf.open(cfg)
			if err != nil {
				return err
			}
			var reader inspect.LedgerReader
			if store != nil {
				defer func() { _ = store.Close() }()
				opts = append(opts, pressplug.WithLedger(store))
				reader = store
			}

			site, err := pressplug.New(*cfg, opts...)
			if err != nil {
				return err
			}
			if _, err := site.LoadPlugins(cmd.Context()); err != nil {
				return err
			}

			if !cmd.Flags().Changed("addr") && cfg.Inspect.Addr != "" {
				addr = cfg.Inspect.Addr
			}
			srv := &http.Server{
				Addr:         addr,
				Handler:      newRouter(site, reader, cfg.Inspect.Token),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logging.Logger.Info("inspect API listening", "addr", addr, "version", version.Short())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logging.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			if !noWatch {
				g.Go(func() error {
					return watch.New(path, 0).Run(gctx, func(ctx context.Context) {
						reload(ctx, site, path)
					})
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}
			logging.Logger.Info("server stopped")
			return nil
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", pressplug.DefaultInspectAddr, "Listen address; overrides inspect.addr")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not re-register when the config file changes")
	return cmd
}

// newRouter builds the HTTP router.
func newRouter(site *pressplug.Site, reader inspect.LedgerReader, token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	h := &inspect.Handlers{Source: site, Ledger: reader, Token: token}
	r.Mount("/", h.Routes())
	return r
}

// reload re-reads the config at path and runs a new pass on site. Failures
// are logged and counted; the previous pass stays current.
func reload(ctx context.Context, site *pressplug.Site, path string) {
	log := logging.FromContext(ctx)
	cfg, err := loadConfig(path)
	if err == nil {
		err = site.SetConfig(*cfg)
	}
	if err == nil {
		_, err = site.LoadPlugins(ctx)
	}
	if err != nil {
		metrics.Reloads.WithLabelValues("error").Inc()
		log.Error("config reload failed", "path", path, "error", err)
		return
	}
	metrics.Reloads.WithLabelValues("success").Inc()
	log.Info("config reloaded", "path", path, "pass_id", site.PassID())
}
