// Package web provides the HTTP API for the inventory dashboard.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/inventory"
	webmw "github.com/JonMunkholm/inventory/internal/web/middleware"
)

// Server is the HTTP server for the inventory service.
type Server struct {
	service *inventory.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *inventory.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes. Timeouts and
// compression are applied per route group because the event stream must
// outlive the request timeout and flush unbuffered.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(webmw.RateLimiter(webmw.RateLimitConfig{
			RequestsPerSecond: s.cfg.Rate.RequestsPerSecond,
			Burst:             s.cfg.Rate.Burst,
		}))
	}
}

// setupRoutes configures all HTTP routes. Reads are bounded by the request
// timeout; writes by the upload timeout, which may be longer.
func (s *Server) setupRoutes() {
	s.router.Get("/api/events", s.handleEvents)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.With(middleware.Timeout(s.cfg.Server.RequestTimeout)).Get("/healthz", s.handleHealth)

		r.Route("/api", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

				r.Get("/data", s.handleData)
				r.Get("/rows", s.handleRows)
				r.Get("/summary", s.handleSummary)
				r.Get("/aggregate/{field}", s.handleAggregate)
				r.Get("/timeseries", s.handleTimeSeries)
				r.Get("/download", s.handleDownload)
				r.Get("/history", s.handleHistory)
			})

			// Writes share a stricter per-client budget.
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					perMinute := s.cfg.Rate.UploadPerMinute
					r.Use(webmw.RateLimiter(webmw.RateLimitConfig{
						RequestsPerSecond: float64(perMinute) / 60,
						Burst:             perMinute,
					}))
				}
				r.Use(middleware.Timeout(s.cfg.Upload.Timeout))

				r.Post("/preview", s.handlePreview)
				r.Post("/upload", s.handleUpload)
				r.Delete("/delete", s.handleDelete)
			})
		})
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server. Event streams only end when the
// service closes its subscriptions, so callers close the service first.
// Connections still open when ctx expires are closed forcibly.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return s.server.Close()
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
}
