package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/janhq/client-sim/internal/config"
	"github.com/janhq/client-sim/internal/interfaces/httpserver/handlers"
	v1 "github.com/janhq/client-sim/internal/interfaces/httpserver/routes/v1"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// Dependencies maps a dependency name to a func reporting its current state on /readyz.
type Dependencies map[string]func() string

// New constructs the HTTP server with default middleware and routes. Extra
// middleware (tracing, metrics) runs before the routes.
func New(cfg *config.Config, log zerolog.Logger, conv handlers.Conversation, redact func(string) string, deps Dependencies, middleware ...gin.HandlerFunc) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware...)

	registerPublicRoutes(engine, cfg, conv, deps)

	conversationHandler := handlers.NewConversationHandler(conv, redact, log)
	v1.NewRoutes(conversationHandler).Register(engine)

	return &HttpServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerPublicRoutes(engine *gin.Engine, cfg *config.Config, conv handlers.Conversation, deps Dependencies) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"status":  "ok",
		})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		body := gin.H{"status": "ready"}
		if len(deps) > 0 {
			states := make(map[string]string, len(deps))
			for name, state := range deps {
				states[name] = state()
			}
			body["dependencies"] = states
		}
		if conv.Status().State.IsTerminal() {
			body["status"] = "terminated"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
