// Package server exposes schedule computations over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/maypok86/otter/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/internal/config"
)

// cachedResponse is a rendered schedule body.
type cachedResponse struct {
	contentType string
	body        []byte
}

// Server serves schedules, health and metrics.
type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	router   chi.Router
	registry *prometheus.Registry
	baseOpts []duskgrid.Option
	cache    *otter.Cache[string, cachedResponse]
	metrics  *httpMetrics
	now      func() time.Time

	httpServer *http.Server
}

// New builds a server from cfg. The altitude provider is built once and
// shared by every request, so its memo cache (if any) spans requests.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := newHTTPMetrics(registry)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger.With().Str("component", "server").Logger(),
		registry: registry,
		baseOpts: opts,
		metrics:  metrics,
		now:      time.Now,
	}
	if cfg.HTTP.CacheEntries > 0 {
		s.cache = otter.Must(&otter.Options[string, cachedResponse]{
			MaximumSize:      cfg.HTTP.CacheEntries,
			ExpiryCalculator: otter.ExpiryWriting[string, cachedResponse](cfg.HTTP.CacheTTL),
		})
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.HTTPBind,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(tracingMiddleware("duskgrid-http"))
	r.Use(s.metrics.middleware)
	if s.cfg.HTTP.Timeout > 0 {
		r.Use(middleware.Timeout(s.cfg.HTTP.Timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/schedule", s.handleSchedule)
		r.Get("/bands", s.handleBands)
	})
	r.Method(http.MethodGet, s.cfg.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
