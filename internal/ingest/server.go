// Package ingest is a reference receiver for metricspush deliveries.
package ingest

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/and161185/metricspush/internal/ingest/middleware"
	"github.com/and161185/metricspush/storage"
)

// DefaultMaxBodyBytes bounds an ingest body both on the wire and after decompression.
const DefaultMaxBodyBytes int64 = 10 << 20

const shutdownTimeout = 10 * time.Second

// Config configures the receiver.
type Config struct {
	Addr             string
	PublicKey        crypto.PublicKey // nil accepts payloads without checking signatures
	RequireSignature bool
	HashKey          string
	TrustedSubnet    string
	MaxBodyBytes     int64
}

type Server struct {
	storage storage.Storage
	config  Config
	logger  *zap.SugaredLogger
	router  http.Handler
	now     func() time.Time
}

func NewServer(st storage.Storage, cfg Config, logger *zap.SugaredLogger) (*Server, error) {
	if cfg.RequireSignature && cfg.PublicKey == nil {
		return nil, errors.New("signatures required but no public key configured")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	trusted, err := middleware.TrustedCIDR(cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		storage: st,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.LimitBody(cfg.MaxBodyBytes))
	router.Use(middleware.LogMiddleware(logger))
	router.Get("/ping", srv.PingHandler)
	router.Group(func(r chi.Router) {
		r.Use(middleware.CompressMiddleware)
		r.Get("/runners", srv.ListRunnersHandler)
		r.Get("/runners/{runner}/metrics", srv.GetMetricsHandler)
	})
	router.Group(func(r chi.Router) {
		r.Use(trusted)
		r.Use(middleware.VerifyHashMiddleware(cfg.HashKey))
		r.Use(middleware.DecompressMiddleware)
		r.Post("/ingest", srv.IngestHandler)
	})
	srv.router = router

	return srv, nil
}

// Handler returns the routed receiver.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              srv.config.Addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Infow("receiver listening", "addr", srv.config.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	srv.logger.Infow("shutting down receiver")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
