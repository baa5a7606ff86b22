package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/interfaces/httpserver/handlers"
	"masterful/services/chat-api/internal/interfaces/httpserver/middlewares"
	"masterful/services/chat-api/internal/interfaces/httpserver/routes"
	v1 "masterful/services/chat-api/internal/interfaces/httpserver/routes/v1"
)

// ProviderSet provides the HTTP server and its route tree.
var ProviderSet = wire.NewSet(
	handlers.ProviderSet,
	routes.ProviderSet,
	New,
)

// HTTPServer wraps the gin engine and its lifecycle.
type HTTPServer struct {
	cfg    *config.Config
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

// New builds the HTTP server with the full middleware chain and routes.
func New(cfg *config.Config, v1Routes *v1.Routes, log zerolog.Logger) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.RequestID())
	engine.Use(middlewares.CORS())
	engine.Use(middlewares.RequestLoggerWithLogger(log))
	engine.Use(middlewares.Metrics())
	if cfg.EnableTracing {
		engine.Use(middlewares.Tracing(cfg.ServiceName))
	}

	registerCoreRoutes(engine, cfg)
	v1Routes.Register(engine)

	return &HTTPServer{
		cfg:    cfg,
		engine: engine,
		log:    log.With().Str("component", "http-server").Logger(),
	}
}

// registerCoreRoutes mounts health and metrics endpoints outside /v1.
func registerCoreRoutes(engine *gin.Engine, cfg *config.Config) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// Run starts the listener and blocks until the context is cancelled, then
// drains in-flight requests within the configured shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.log.Info().Msg("shutting down http server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
