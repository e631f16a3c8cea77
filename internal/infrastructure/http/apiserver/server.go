// Package apiserver provides the JSON platform API HTTP server
package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/handlers"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/middleware"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Dependencies are the services the API exposes
type Dependencies struct {
	Accounts   inbound.AccountService
	Catalog    inbound.CatalogService
	Favorites  inbound.FavoriteService
	Insights   inbound.InsightService
	Consultant inbound.ConsultantService
	Auth       *security.AuthService
	Validator  *security.Validator
	Health     *healthcheck.HealthCheck
	Metrics    *monitoring.MetricsCollector
}

// Server is the platform API HTTP server
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	deps       Dependencies
	middleware *middleware.Middleware
	engine     *gin.Engine
	server     *http.Server
	cancel     context.CancelFunc
}

// NewServer creates the API server and its routes
func NewServer(cfg *config.Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	s := &Server{
		config:     cfg,
		logger:     logger.Named("api-server"),
		deps:       deps,
		middleware: middleware.New(cfg, logger),
	}

	engine, err := s.setupRoutes()
	if err != nil {
		return nil, err
	}
	s.engine = engine

	s.server = &http.Server{
		Addr:           cfg.APIListenAddr(),
		Handler:        h2c.NewHandler(engine, &http2.Server{}),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// setupRoutes configures the gin engine
func (s *Server) setupRoutes() (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		return nil, err
	}

	mw := s.middleware
	engine.Use(
		mw.RequestID(),
		mw.Logger(),
		mw.Recovery(),
		mw.Tracing(),
		mw.Security(),
		mw.CORS(),
		mw.ErrorHandler(),
	)
	if s.deps.Metrics != nil && s.config.Monitoring.EnableMetrics {
		engine.Use(s.deps.Metrics.HTTPMiddleware())
		engine.GET(s.config.Monitoring.MetricsPath, gin.WrapH(s.deps.Metrics.Handler()))
	}

	if s.deps.Health != nil {
		engine.GET(s.config.Monitoring.HealthCheckPath, s.deps.Health.Handler())
		engine.GET("/health/live", s.deps.Health.LivenessHandler())
		engine.GET(s.config.Monitoring.ReadinessPath, s.deps.Health.ReadinessHandler())
	}

	authH := handlers.NewAuthHandler(s.deps.Accounts, s.logger)
	plantH := handlers.NewPlantHandler(s.deps.Catalog, s.logger)
	favoriteH := handlers.NewFavoriteHandler(s.deps.Favorites, s.logger)
	functionH := handlers.NewFunctionHandler(s.deps.Insights, s.deps.Consultant, s.deps.Validator, s.logger)
	requireAuth := s.deps.Auth.AuthMiddleware()

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/openapi.yaml", ServeOpenAPISpec)
		v1.GET("/docs", ServeSwaggerUI)

		auth := v1.Group("/auth")
		auth.POST("/register", mw.RateLimit(nil), authH.Register)
		auth.POST("/login", mw.RateLimit(nil), authH.Login)
		auth.POST("/logout", requireAuth, authH.Logout)
		auth.GET("/session", requireAuth, authH.Session)

		v1.GET("/plants", plantH.List)
		v1.GET("/plants/:id", plantH.Get)

		favorites := v1.Group("/favorites", requireAuth)
		favorites.GET("", favoriteH.List)
		favorites.POST("/:plantID", favoriteH.Add)
		favorites.DELETE("/:plantID", favoriteH.Remove)
		favorites.POST("/:plantID/toggle", favoriteH.Toggle)
	}

	functions := engine.Group("/functions/v1",
		mw.RateLimit(handlers.AbortFunctionError),
		mw.BodyLimit(s.config.Server.MaxBodyBytes, handlers.AbortFunctionError),
	)
	{
		functions.POST("/analyze-plant", functionH.AnalyzePlant)
		functions.POST("/ai-plant-consultant", functionH.Consult)
	}

	engine.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, apperrors.NewNotFoundError("route"))
	})

	return engine, nil
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start binds the listener and serves in the background
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.middleware.Limiter().Run(runCtx, s.config.RateLimit.CleanupInterval)

	s.logger.Info("Starting platform API server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("h2c", true),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down platform API server")
	if s.cancel != nil {
		s.cancel()
	}
	return s.server.Shutdown(ctx)
}
