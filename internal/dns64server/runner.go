package dns64server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nat64lab/dns64ng/internal/config"
	"github.com/nat64lab/dns64ng/internal/querylog"
	"github.com/nat64lab/dns64ng/internal/statusapi"
	"github.com/nat64lab/dns64ng/internal/upstreamclient"
)

// Runner orchestrates resolver startup and graceful shutdown, grounded
// on internal/server/runner.go's signal-driven lifecycle.
type Runner struct {
	logger *slog.Logger

	// StatusAPI, when Enabled, starts an introspection HTTP server
	// (loopback by default) alongside the resolver. QueryLog is optional even when
	// StatusAPI is enabled; a nil store just means /querylog returns
	// an empty list and no query is ever persisted.
	StatusAPI config.StatusAPIConfig
	QueryLog  *querylog.Store
}

// NewRunner creates a Runner logging through logger. StatusAPI stays
// disabled until the caller sets r.StatusAPI.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run starts the resolver with cfg and blocks until SIGINT/SIGTERM.
func (r *Runner) Run(cfg config.ResolverConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return r.RunWithContext(ctx, cfg)
}

// RunWithContext starts the resolver and blocks until ctx is cancelled or
// the listener fails.
func (r *Runner) RunWithContext(ctx context.Context, cfg config.ResolverConfig) error {
	handler := &Handler{
		Logger:            r.logger,
		Prefix:            cfg.Prefix,
		ResponseMaxLength: cfg.ResponseMaxLength,
		QueryLog:          r.QueryLog,
		QueryLogLimit:     r.StatusAPI.QueryLogLimit,
	}
	srv := &Server{
		Logger:  r.logger,
		Handler: handler,
		UpstreamConfig: upstreamclient.Config{
			Servers:        cfg.Servers,
			Mode:           cfg.SelectionMode,
			Timeout:        cfg.Timeout,
			ResendAttempts: cfg.ResendAttempts,
		},
		NumWorkers:        cfg.NumThreads,
		ResponseMaxLength: cfg.ResponseMaxLength,
	}

	addr := net.JoinHostPort("::", fmt.Sprintf("%d", cfg.Port))
	r.logStartup(cfg, addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	var api *statusapi.Server
	if r.StatusAPI.Enabled {
		api = statusapi.New(r.StatusAPI, r.QueryLog, func() statusapi.DNSStatsResponse {
			s := handler.Stats()
			return statusapi.DNSStatsResponse{
				QueriesTotal:   s.QueriesTotal,
				Synthesized:    s.Synthesized,
				PassedThrough:  s.PassedThrough,
				UpstreamErrors: s.UpstreamErrors,
			}
		}, r.logger)
		go func() {
			if err := api.ListenAndServe(); err != nil {
				r.logger.Error("status api exited with error", "err", err)
			}
		}()
		r.logger.Info("status api listening", "addr", api.Addr())
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			if api != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				_ = api.Shutdown(shutdownCtx)
				cancel()
			}
			return err
		}
	}

	srv.Stop()
	if api != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("status api shutdown error", "err", err)
		}
	}
	return nil
}

const shutdownTimeout = 5 * time.Second

func (r *Runner) logStartup(cfg config.ResolverConfig, addr string) {
	if r.logger == nil {
		return
	}
	r.logger.Info("dns64 resolver listening",
		"addr", addr,
		"upstreams", len(cfg.Servers),
		"prefix", cfg.Prefix.String(),
		"workers", cfg.NumThreads,
	)
}
