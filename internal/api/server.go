// File: internal/api/server.go
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/orderlens/internal/config"
)

// Server hosts the HTTP API.
type Server struct {
	cfg        config.ServerConfig
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer builds the router and its middleware.
func NewServer(cfg config.ServerConfig, workflow Workflow, logger *zap.Logger) *Server {
	logger = logger.Named("api")

	var limiter *rate.Limiter
	if cfg.LoginRatePerMinute > 0 {
		burst := cfg.LoginBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.LoginRatePerMinute/60), burst)
	}
	var logins *semaphore.Weighted
	if cfg.MaxConcurrentLogins > 0 {
		logins = semaphore.NewWeighted(cfg.MaxConcurrentLogins)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           NewRouter(cfg, NewHandlers(logger, workflow, limiter, logins), logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter assembles middleware and routes.
func NewRouter(cfg config.ServerConfig, handlers *Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	handlers.RegisterRoutes(r)
	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("Request handled",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("API server starting", zap.String("address", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}
