// Package statusapi provides a read-only introspection HTTP server for
// the DNS64 resolver: health, runtime/host/DNS statistics, and a recent
// query log. It never accepts writes and carries no zone, filtering, or
// cluster-management surface.
package statusapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nat64lab/dns64ng/internal/config"
	"github.com/nat64lab/dns64ng/internal/querylog"
	"github.com/nat64lab/dns64ng/internal/statusapi/middleware"
)

// Server is the status API's HTTP listener.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to cfg.Host:cfg.Port. statsFunc is polled on
// every /stats request; it may be nil, in which case /stats reports zero
// DNS counters.
func New(cfg config.StatusAPIConfig, queryLog *querylog.Store, statsFunc DNSStatsFunc, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := NewHandler(queryLog, statsFunc)
	RegisterRoutes(engine, h, cfg.APIKey)
	mountDashboard(engine, logger)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks until the server stops or fails. It returns nil
// on a clean Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
