package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spacesedan/sentilens/internal/models"
	"github.com/spacesedan/sentilens/internal/sinks"
)

type analyzer interface {
	Analyze(ctx context.Context, raw string) (models.AnalysisResponse, error)
}

type healthReporter interface {
	Snapshot() map[string]bool
}

type Options struct {
	Analyzer       analyzer
	RateLimitStore middleware.RateLimiterStore
	RateLimit      int
	RateWindow     time.Duration
	Sinks          *sinks.Dispatcher // optional
	Health         healthReporter    // optional
	AllowedOrigins []string
}

type Server struct {
	echo     *echo.Echo
	handler  http.Handler
	analyzer analyzer
	sinks    *sinks.Dispatcher
	health   healthReporter
	httpSrv  *http.Server
}

func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = echo.ExtractIPDirect()
	e.HTTPErrorHandler = errorHandler

	s := &Server{
		echo:     e,
		analyzer: opts.Analyzer,
		sinks:    opts.Sinks,
		health:   opts.Health,
	}

	e.Use(requestLogger())
	e.Use(middleware.Recover())

	e.GET("/", s.handleRoot)
	e.POST("/analyze", s.handleAnalyze, newRateLimiter(opts.RateLimitStore, opts.RateLimit, opts.RateWindow))
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(e)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("[Server] Listening", slog.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("[Server] failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones, then waits for
// pending sink publications.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("[Server] failed to shutdown server: %w", err)
		}
	}
	s.sinks.Wait()
	return nil
}
