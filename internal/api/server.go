package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Novanna/doc-verifier/internal/config"
	"github.com/Novanna/doc-verifier/internal/pipeline"
)

// Server is the HTTP API server for doc-verifier.
type Server struct {
	router   chi.Router
	verifier *pipeline.Verifier
	log      *slog.Logger
	cfg      *config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(v *pipeline.Verifier, log *slog.Logger, cfg *config.Config) *Server {
	s := &Server{
		verifier: v,
		log:      log,
		cfg:      cfg,
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

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/doc-verification", s.handleVerify)
		r.Get("/doc-verification/{requestID}", s.handleResult)
		r.Get("/doc-verification/{requestID}/report", s.handleReport)
		r.Get("/templates", s.handleTemplates)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
