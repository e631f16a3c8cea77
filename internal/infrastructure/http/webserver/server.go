// Package webserver provides the HTMX front-end: catalog, favorites, analysis
// dialog, consultant and sign-in pages, backed by the platform API
package webserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/hotreload"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/middleware"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Dependencies are the collaborators of the web server
type Dependencies struct {
	API      *APIClient
	Sessions *SessionStore
	Health   *healthcheck.HealthCheck
	Metrics  *monitoring.MetricsCollector
}

// WebServer represents the web frontend HTTP server
type WebServer struct {
	config   *config.Config
	logger   *zap.Logger
	api      *APIClient
	sessions *SessionStore
	renderer *Renderer
	health   *healthcheck.HealthCheck
	metrics  *monitoring.MetricsCollector
	limiter  *middleware.IPRateLimiter
	upgrader websocket.Upgrader
	router   chi.Router
	server   *http.Server
	cancel   context.CancelFunc
}

// NewWebServer creates a new web frontend server instance
func NewWebServer(cfg *config.Config, deps Dependencies, logger *zap.Logger) (*WebServer, error) {
	log := logger.Named("web-server")

	templatesDir := ""
	if cfg.Web.WatchTemplates {
		templatesDir = cfg.Web.TemplatesDir
	}
	renderer, err := NewRenderer(templatesDir, log)
	if err != nil {
		return nil, err
	}

	s := &WebServer{
		config:   cfg,
		logger:   log,
		api:      deps.API,
		sessions: deps.Sessions,
		renderer: renderer,
		health:   deps.Health,
		metrics:  deps.Metrics,
		limiter:  middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
	}
	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.WebListenAddr(),
		Handler:           h2c.NewHandler(s.router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Web.APITimeout + 10*time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// setupRoutes configures the web frontend routes
func (s *WebServer) setupRoutes() chi.Router {
	r := chi.NewRouter()

	var observer middleware.HTTPObserver
	if s.metrics != nil {
		observer = s.metrics
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(s.logger, observer))
	r.Use(chimiddleware.Recoverer)
	if s.config.Web.EnableCompression {
		r.Use(middleware.Compression(s.config.Web.CompressionLevel))
	}
	r.Use(middleware.SecureHeaders(s.config.IsProduction()))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles()))))
	r.Get("/favicon.ico", s.handleFavicon)

	if s.health != nil {
		r.Get("/health", s.health.ServeHealth)
		r.Get("/health/live", s.health.ServeLiveness)
		r.Get("/health/ready", s.health.ServeReadiness)
	}
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleHome)
		r.Get("/ws/consultant", s.handleConsultantSocket)
		r.Get("/auth", s.handleAuthPage)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Use(s.csrf)

			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/logout", s.handleLogout)

			r.Route("/htmx", func(r chi.Router) {
				r.Post("/plants/{id}/favorite", s.handleToggleFavorite)
				r.Get("/plants/{id}/dialog", s.handlePlantDialog)
				r.Post("/plants/{id}/analyze", s.handleAnalyzePlant)
				r.Post("/consultant", s.handleConsultant)
			})
		})
	})

	return r
}

// Handler returns the HTTP handler, for tests and embedding
func (s *WebServer) Handler() http.Handler {
	return s.server.Handler
}

// Renderer returns the template renderer
func (s *WebServer) Renderer() *Renderer {
	return s.renderer
}

// Start binds the listener and serves in the background. In development the
// template directory is watched and reparsed on change.
func (s *WebServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.limiter.Run(runCtx, s.config.RateLimit.CleanupInterval)
	go s.sessions.Run(runCtx, s.config.Web.SessionSweep)

	if s.config.Web.WatchTemplates && s.config.Web.TemplatesDir != "" {
		if err := s.watchTemplates(runCtx); err != nil {
			s.logger.Warn("Template watcher disabled", zap.Error(err))
		}
	}

	s.logger.Info("Starting Web Frontend server",
		zap.String("address", ln.Addr().String()),
		zap.String("api_url", s.api.BaseURL()),
		zap.String("mode", "HTMX-templates"),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server stopped", zap.Error(err))
		}
	}()

	return nil
}

func (s *WebServer) watchTemplates(ctx context.Context) error {
	watcher, err := hotreload.NewFileWatcher(hotreload.DefaultDebounceDelay, s.logger)
	if err != nil {
		return err
	}
	watcher.RegisterHandler(hotreload.NewTemplateHandler(s.renderer, s.logger))
	if err := watcher.AddWatchPath(s.config.Web.TemplatesDir); err != nil {
		return err
	}

	go watcher.Run(ctx)
	s.logger.Info("Watching templates", zap.String("dir", s.config.Web.TemplatesDir))
	return nil
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down Web Frontend server")
	if s.cancel != nil {
		s.cancel()
	}
	return s.server.Shutdown(ctx)
}

// rateLimit throttles state-changing requests per client address
func (s *WebServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.RateLimit.Enable {
			next.ServeHTTP(w, r)
			return
		}

		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}

		if !s.limiter.Allow(ip) {
			s.logger.Warn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "60")
			triggerToast(w, ErrorToast(ToastErrorTitle, "Rate limit exceeded"))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// csrf requires the session's token on unsafe requests, from the
// X-CSRF-Token header HTMX sends or the csrf_token form field
func (s *WebServer) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		session := SessionFromContext(r.Context())
		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.PostFormValue("csrf_token")
		}

		if session == nil || token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(session.CSRFToken)) != 1 {
			s.logger.Warn("Invalid CSRF token",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *WebServer) handleFavicon(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(staticFiles(), "favicon.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}
