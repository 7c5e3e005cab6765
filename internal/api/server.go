package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/wodagoat/wodagoat-data/internal/api/handler"
	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, verifier *auth.Verifier, metricsHandler http.Handler, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Metrics
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// Admin API: every route requires an administrator caller.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(verifier, logger))

		r.Route("/enrichment", func(r chi.Router) {
			r.Post("/scan", h.ScanEnrichment)
			r.Post("/apply", h.ApplyEnrichment)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/parse", h.ParseImport)
			r.Post("/preview", h.PreviewImport)
			r.Post("/commit", h.CommitImport)
		})
	})

	return r
}
