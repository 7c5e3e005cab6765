// Package handler provides HTTP handlers for the admin API. Handlers decode
// the request, call the pipeline services and encode their result objects;
// authorization has already happened in middleware.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/wodagoat/wodagoat-data/internal/api/respond"
	"github.com/wodagoat/wodagoat-data/internal/athlete"
	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/cache"
	"github.com/wodagoat/wodagoat-data/internal/csvimport"
	"github.com/wodagoat/wodagoat-data/internal/enrich"
	"github.com/wodagoat/wodagoat-data/internal/metrics"
)

// maxBodyBytes bounds request bodies, CSV uploads included.
const maxBodyBytes = 10 << 20

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Enricher is the enrichment service surface used by the handlers.
type Enricher interface {
	Scan(ctx context.Context, caller auth.Caller, target enrich.Target) (*enrich.ScanResult, error)
	ApplySuggestions(ctx context.Context, caller auth.Caller, athleteID string, suggestions []enrich.Suggestion) (*enrich.ApplyResult, error)
}

// Deps are the handler dependencies.
type Deps struct {
	Store    Pinger
	Importer csvimport.Store
	Enricher Enricher
	Cache    *cache.Cache
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store    Pinger
	importer csvimport.Store
	enricher Enricher
	cache    *cache.Cache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		store:    d.Store,
		importer: d.Importer,
		enricher: d.Enricher,
		cache:    d.Cache,
		metrics:  d.Metrics,
		logger:   d.Logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "WoDaGOAT Data Admin API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"pipelines": []string{
			"enrichment",
			"csv_import",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies store connectivity.
// @Summary Database health check
// @Description Verifies record store connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("Store health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns lookup cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// readBody reads a bounded raw body.
func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

// writeAuthError maps caller errors that slip past middleware. It reports
// whether err was one.
func writeAuthError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
	case errors.Is(err, auth.ErrForbidden):
		respond.WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		return false
	}
	return true
}

// parseMapping converts a JSON header→field object into a csvimport.Mapping.
func parseMapping(raw map[string]string) (csvimport.Mapping, error) {
	m := make(csvimport.Mapping, len(raw))
	for header, target := range raw {
		f, err := csvimport.ParseTarget(target)
		if err != nil {
			return nil, err
		}
		m[header] = f
	}
	return m, nil
}

// importTargets lists the mapping targets for documentation responses.
func importTargets() []athlete.Field {
	return append(append([]athlete.Field{}, athlete.ImportFields...), athlete.FieldUnmapped)
}
