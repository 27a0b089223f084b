package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/wordspira/internal/config"
	"github.com/dgallion1/wordspira/internal/pipeline"
	"github.com/dgallion1/wordspira/internal/spira"
)

// LoginFunc probes Spira with creds and lists the visible projects.
type LoginFunc func(ctx context.Context, creds pipeline.Credentials) ([]spira.Project, error)

// Server is the HTTP API server for wordspira.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	login        LoginFunc
	openSettings pipeline.SettingsOpener
	stats        *spira.CallStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, login LoginFunc, open pipeline.SettingsOpener, stats *spira.CallStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		login:        login,
		openSettings: open,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.WordspiraAPIKey, s.log))

		r.Post("/api/login", s.handleLogin)

		r.Post("/api/styles", s.handleStyles)
		r.Put("/api/styles/{docID}/{kind}", s.handleConfirmStyles)

		r.Post("/api/push", s.handlePush)
		r.Get("/api/push/{jobID}/status", s.handlePushStatus)

		r.Get("/api/stats/tracker", s.handleTrackerStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// credentials fills blank request credentials from the configured defaults.
func (s *Server) credentials(c pipeline.Credentials) pipeline.Credentials {
	if c.URL == "" {
		c.URL = s.cfg.SpiraURL
	}
	if c.Username == "" {
		c.Username = s.cfg.SpiraUsername
	}
	if c.APIKey == "" {
		c.APIKey = s.cfg.SpiraAPIKey
	}
	return c
}
