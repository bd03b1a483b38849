// Package http provides the HTTP transport layer for the heritage API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/config"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/service"
)

// MediaPrefix is the URL path stored media files are served under.
const MediaPrefix = "/media/"

// Server is the HTTP server for the heritage API.
type Server struct {
	httpServer     *http.Server
	router         *chi.Mux
	siteService    *service.SiteService
	authService    *service.AuthService
	mediaDir       string
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.Config,
	siteService *service.SiteService,
	authService *service.AuthService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		siteService:    siteService,
		authService:    authService,
		mediaDir:       cfg.MediaDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get(MediaPrefix+"{name}", s.handleServeMedia)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Route("/sites", func(r chi.Router) {
			// Public reads
			r.Get("/", s.handleListSites)
			r.Get("/search", s.handleSearchSites)
			r.Get("/nearby", s.handleNearbySites)
			r.Get("/popular", s.handlePopularSites)
			r.Get("/category/{category}", s.handleSitesByCategory)
			r.Get("/{id}", s.handleGetSite)
			r.Get("/{id}/events", s.handleListEvents)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("sites", "write"))
					r.Post("/", s.handleCreateSite)
					r.Put("/{id}", s.handleUpdateSite)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("sites", "delete"))
					r.Delete("/{id}", s.handleDeleteSite)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("media", "write"))
					r.Post("/{id}/media", s.handleAttachMedia)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("events", "write"))
					r.Post("/{id}/events", s.handleCreateEvent)
				})
			})
		})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	if name == "." || name == "/" {
		s.writeError(w, domain.ErrNotFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.mediaDir, name))
}

// Response helpers

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	var resp api.Error

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		resp = api.Error{Error: "resource not found", Code: api.CodeNotFound}

	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
		resp = api.Error{Error: "resource already exists", Code: api.CodeAlreadyExists}

	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		resp = api.Error{Error: err.Error(), Code: api.CodeInvalidInput}
		var ves domain.ValidationErrors
		var ve domain.ValidationError
		if errors.As(err, &ves) {
			resp.Details = ves.Fields()
		} else if errors.As(err, &ve) {
			resp.Details = map[string]string{ve.Field: ve.Message}
		}

	case errors.Is(err, domain.ErrInvalidCredential):
		status = http.StatusUnauthorized
		resp = api.Error{Error: "invalid credentials", Code: api.CodeInvalidCredentials}

	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		resp = api.Error{Error: "unauthorized", Code: api.CodeUnauthorized}

	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		resp = api.Error{Error: "forbidden", Code: api.CodeForbidden}

	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		resp = api.Error{Error: "conflict", Code: api.CodeConflict}

	default:
		s.logger.Error("unhandled error", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		resp = api.Error{Error: "internal server error", Code: api.CodeInternal}
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Context helpers

type contextKey string

const (
	userClaimsKey contextKey = "user_claims"
)

func setUserClaims(ctx context.Context, claims *userClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

func getUserClaims(ctx context.Context) *userClaims {
	if claims, ok := ctx.Value(userClaimsKey).(*userClaims); ok {
		return claims
	}
	return nil
}
