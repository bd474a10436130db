// Package rest is the HTTP gateway: the authenticated public list
// endpoint, the validation callback, and the operator admin surface.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
	"github.com/adonnan/form-blocker/internal/blocker/repos/settings"
	"github.com/adonnan/form-blocker/internal/blocker/services/formcheck"
	"github.com/adonnan/form-blocker/internal/blocker/services/ingest"
)

// Options carries the dependencies and knobs for the gateway.
type Options struct {
	Lists          *blocklist.Repository
	Ingest         *ingest.Service
	Checks         *formcheck.Service
	Settings       *settings.Service
	AdminToken     string
	AllowedOrigins []string
	Logger         log.Logger
}

// Server routes HTTP requests to the blocker services.
type Server struct {
	router     chi.Router
	lists      *blocklist.Repository
	ingest     *ingest.Service
	checks     *formcheck.Service
	settings   *settings.Service
	adminToken string
	logger     log.Logger
}

// New constructs the Server and mounts all routes.
func New(opts Options) *Server {
	s := &Server{
		lists:      opts.Lists,
		ingest:     opts.Ingest,
		checks:     opts.Checks,
		settings:   opts.Settings,
		adminToken: opts.AdminToken,
		logger:     opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-Token"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/list", s.handleGetList)
		r.Post("/validate", s.handleValidate)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/blocklist", s.handleRawBlocklist)
		r.Post("/blocklist", s.handleUpload)
		r.Post("/api-key", s.handleRegenerateKey)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})

	s.router = r
	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// apiError is the machine-readable error body enumerated in the external
// contract.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, apiError{Code: code, Message: message})
}
