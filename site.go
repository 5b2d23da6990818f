// Package pressplug loads the plugins of a static-site build and assembles
// the hooks and options they contribute.
//
// The Site type is the main entry point: create one with New from a [Config]
// (usually read with [LoadConfig]), then call LoadPlugins to run a
// registration pass. The resulting [plugin.Registry] exposes the lifecycle
// hooks (ready, compiled, updated, generated) and the accumulated option
// values for the build pipeline to consume.
package pressplug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ferro-labs/pressplug/internal/ledger"
	"github.com/ferro-labs/pressplug/internal/logging"
	"github.com/ferro-labs/pressplug/internal/metrics"
	"github.com/ferro-labs/pressplug/plugin"
)

// Site runs registration passes for one configuration.
type Site struct {
	mu       sync.RWMutex
	config   Config
	resolver plugin.Resolver
	ledger   ledger.Writer
	log      *slog.Logger

	registry *plugin.Registry
	report   *plugin.Report
	passID   string
}

// SiteOption configures a Site.
type SiteOption func(*Site)

// WithResolver replaces the default resolver (a cache over the default
// catalog). A resolver with a Purge method is purged at the start of every
// LoadPlugins so catalog changes between passes are picked up.
func WithResolver(r plugin.Resolver) SiteOption {
	return func(s *Site) { s.resolver = r }
}

// WithLedger records every pass in w.
func WithLedger(w ledger.Writer) SiteOption {
	return func(s *Site) { s.ledger = w }
}

// WithLogger sets the base logger. Defaults to the logging package logger.
func WithLogger(l *slog.Logger) SiteOption {
	return func(s *Site) { s.log = l }
}

// New creates a Site for cfg.
func New(cfg Config, opts ...SiteOption) (*Site, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Site{
		config:   cfg,
		resolver: plugin.NewCachingResolver(plugin.DefaultCatalog, 0, 0),
		ledger:   ledger.NoopWriter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the current configuration.
func (s *Site) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig replaces the configuration used by the next LoadPlugins call.
// The current registry is kept until that pass succeeds.
func (s *Site) SetConfig(cfg Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// AmbientValues returns the values every plugin factory sees in its context:
// the free-form context entries of the config overlaid with sourceDir,
// outDir, base and isProd.
func (s *Site) AmbientValues() map[string]any {
	return ambientValues(s.Config())
}

func ambientValues(cfg Config) map[string]any {
	values := make(map[string]any, len(cfg.Context)+4)
	for k, v := range cfg.Context {
		values[k] = v
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = filepath.Join(cfg.SourceDir, ".press", "dist")
	}
	base := cfg.Base
	if base == "" {
		base = "/"
	}
	values[plugin.KeySourceDir] = cfg.SourceDir
	values[plugin.KeyOutDir] = outDir
	values[plugin.KeyBase] = base
	values[plugin.KeyIsProd] = cfg.Production
	return values
}

// LoadPlugins runs a registration pass over the configured plugin list and
// makes its registry current. On a registration failure the partial report
// is returned with the error and the previous registry stays current.
func (s *Site) LoadPlugins(ctx context.Context) (*plugin.Report, error) {
	start := time.Now()
	passID := logging.NewPassID()
	ctx = logging.WithPassID(ctx, passID)
	log := s.logger(ctx)
	cfg := s.Config()

	if p, ok := s.resolver.(interface{ Purge() }); ok {
		p.Purge()
	}

	registry := plugin.NewRegistry(
		plugin.WithContext(plugin.NewContext(ambientValues(cfg))),
		plugin.WithResolver(s.resolver),
		plugin.WithLogger(log),
	)

	log.Info("registration started", "plugins", len(cfg.Plugins))
	report, err := registry.UseByConfigs(cfg.Plugins)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.PassDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if lerr := ledger.WriteReport(ctx, s.ledger, passID, report, err); lerr != nil {
		log.Warn("ledger write failed", "error", lerr)
	}

	if err != nil {
		var regErr *plugin.RegistrationError
		if errors.As(err, &regErr) {
			log.Error("registration failed", "plugin", regErr.Plugin, "index", regErr.Index, "error", regErr.Err)
		}
		return report, err
	}

	log.Info("registration finished",
		"applied", report.Count(plugin.StatusApplied),
		"disabled", report.Count(plugin.StatusDisabled),
		"diagnostics", len(report.Diagnostics()),
		"duration", time.Since(start),
	)

	s.mu.Lock()
	s.registry, s.report, s.passID = registry, report, passID
	s.mu.Unlock()
	return report, nil
}

// Registry returns the registry of the last successful pass, or nil.
func (s *Site) Registry() *plugin.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// Report returns the report of the last successful pass, or nil.
func (s *Site) Report() *plugin.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// PassID returns the id of the last successful pass.
func (s *Site) PassID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passID
}

func (s *Site) logger(ctx context.Context) *slog.Logger {
	if s.log != nil {
		if id := logging.PassIDFromContext(ctx); id != "" {
			return s.log.With("pass_id", id)
		}
		return s.log
	}
	return logging.FromContext(ctx)
}
