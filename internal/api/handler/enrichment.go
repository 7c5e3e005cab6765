package handler

import (
	"errors"
	"net/http"

	"github.com/wodagoat/wodagoat-data/internal/api/respond"
	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/enrich"
	"github.com/wodagoat/wodagoat-data/internal/store"
)

// ScanRequest selects the athletes to scan. Exactly one field must be set.
type ScanRequest struct {
	AthleteID  string   `json:"athlete_id,omitempty"`
	AthleteIDs []string `json:"athlete_ids,omitempty"`
	All        bool     `json:"all,omitempty"`
}

// ApplyRequest carries the operator-approved suggestions for one athlete.
type ApplyRequest struct {
	AthleteID   string              `json:"athlete_id"`
	Suggestions []enrich.Suggestion `json:"suggestions"`
}

// ScanEnrichment builds suggestions for empty athlete fields.
// @Summary Scan athletes for enrichment suggestions
// @Description Looks up each targeted athlete (at most 20) and proposes values for empty country, nationality, positions and picture fields. Nothing is written.
// @Tags enrichment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ScanRequest true "Scan target"
// @Success 200 {object} enrich.ScanResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/admin/enrichment/scan [post]
func (h *Handler) ScanEnrichment(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON", err.Error())
		return
	}

	target := enrich.Target{ID: req.AthleteID, IDs: req.AthleteIDs, All: req.All}
	result, err := h.enricher.Scan(r.Context(), auth.FromContext(r.Context()), target)
	if err != nil {
		switch {
		case writeAuthError(w, err):
		case errors.Is(err, enrich.ErrInvalidTarget):
			respond.WriteError(w, http.StatusBadRequest, "INVALID_TARGET", err.Error())
		case errors.Is(err, store.ErrNotFound):
			respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Athlete not found")
		default:
			h.logger.Error("Enrichment scan failed", "error", err)
			respond.WriteErrorDetail(w, http.StatusInternalServerError, "SCAN_FAILED", "Enrichment scan failed", err.Error())
		}
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// ApplyEnrichment writes approved suggestions to one athlete.
// @Summary Apply approved suggestions
// @Description Re-validates each suggested value and writes the survivors in one update. An empty applied_fields list means nothing was written.
// @Tags enrichment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ApplyRequest true "Approved suggestions"
// @Success 200 {object} enrich.ApplyResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/admin/enrichment/apply [post]
func (h *Handler) ApplyEnrichment(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON", err.Error())
		return
	}
	if req.AthleteID == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_ATHLETE_ID", "athlete_id is required")
		return
	}

	result, err := h.enricher.ApplySuggestions(r.Context(), auth.FromContext(r.Context()), req.AthleteID, req.Suggestions)
	if err != nil {
		switch {
		case writeAuthError(w, err):
		case errors.Is(err, store.ErrNotFound):
			respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Athlete not found")
		default:
			h.logger.Error("Applying suggestions failed", "athlete_id", req.AthleteID, "error", err)
			respond.WriteErrorDetail(w, http.StatusInternalServerError, "APPLY_FAILED", "Applying suggestions failed", err.Error())
		}
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}
