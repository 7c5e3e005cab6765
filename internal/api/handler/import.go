package handler

import (
	"errors"
	"net/http"

	"github.com/wodagoat/wodagoat-data/internal/api/respond"
	"github.com/wodagoat/wodagoat-data/internal/athlete"
	"github.com/wodagoat/wodagoat-data/internal/csvimport"
)

// sampleRows is how many data rows the parse step echoes back.
const sampleRows = 5

// ImportRequest is a CSV upload plus its column mapping.
type ImportRequest struct {
	CSV        string            `json:"csv"`
	Mapping    map[string]string `json:"mapping"`
	UpdateMode bool              `json:"update_mode"`
}

// ParseResponse describes an uploaded CSV before mapping.
type ParseResponse struct {
	Headers          []string          `json:"headers"`
	RowCount         int               `json:"row_count"`
	Sample           [][]string        `json:"sample"`
	SuggestedMapping csvimport.Mapping `json:"suggested_mapping"`
	Targets          []athlete.Field   `json:"targets"`
}

// PreviewResponse lists what a commit would send to the store.
type PreviewResponse struct {
	Athletes   []athlete.Candidate   `json:"athletes"`
	Duplicates []csvimport.Duplicate `json:"duplicates"`
	Dropped    int                   `json:"dropped"`
	UpdateMode bool                  `json:"update_mode"`
}

// ParseImport parses a raw CSV upload.
// @Summary Parse a CSV upload
// @Description Splits the upload into headers and rows and suggests a column mapping. The body is the raw CSV text.
// @Tags import
// @Accept plain
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ParseResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/admin/import/parse [post]
func (h *Handler) ParseImport(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(w, r)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	wiz := csvimport.NewWizard(h.importer, h.metrics, h.logger)
	if err := wiz.Upload(text); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_CSV", wiz.Err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, ParseResponse{
		Headers:          wiz.Table.Headers,
		RowCount:         len(wiz.Table.Rows),
		Sample:           wiz.Table.Sample(sampleRows),
		SuggestedMapping: wiz.Mapping,
		Targets:          importTargets(),
	})
}

// PreviewImport maps a CSV and reports duplicates without writing.
// @Summary Preview a mapped CSV import
// @Description Applies the mapping, drops rows without a name and flags rows whose exact name already exists.
// @Tags import
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImportRequest true "CSV and mapping"
// @Success 200 {object} PreviewResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/admin/import/preview [post]
func (h *Handler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.mappedWizard(w, r)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, PreviewResponse{
		Athletes:   wiz.Candidates,
		Duplicates: wiz.Duplicates,
		Dropped:    len(wiz.Table.Rows) - len(wiz.Candidates),
		UpdateMode: wiz.UpdateMode,
	})
}

// CommitImport writes a mapped CSV to the store in one batch.
// @Summary Commit a CSV import
// @Description Sends every mapped athlete to the store in one batch. Existing names are skipped, or updated when update_mode is set. Per-row failures are listed in errors.
// @Tags import
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImportRequest true "CSV and mapping"
// @Success 200 {object} athlete.ImportResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/admin/import/commit [post]
func (h *Handler) CommitImport(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.mappedWizard(w, r)
	if !ok {
		return
	}
	result, err := wiz.Commit(r.Context())
	if err != nil {
		h.logger.Error("CSV import failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "IMPORT_FAILED", wiz.Err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// mappedWizard runs upload and mapping for an ImportRequest, writing the
// error response itself when either step fails.
func (h *Handler) mappedWizard(w http.ResponseWriter, r *http.Request) (*csvimport.Wizard, bool) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON", err.Error())
		return nil, false
	}
	mapping, err := parseMapping(req.Mapping)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MAPPING", err.Error())
		return nil, false
	}

	wiz := csvimport.NewWizard(h.importer, h.metrics, h.logger)
	wiz.SetUpdateMode(req.UpdateMode)
	if err := wiz.Upload(req.CSV); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_CSV", wiz.Err)
		return nil, false
	}
	if err := wiz.Map(r.Context(), mapping); err != nil {
		if errors.Is(err, csvimport.ErrNameNotMapped) || errors.Is(err, csvimport.ErrDuplicateTarget) ||
			errors.Is(err, csvimport.ErrUnknownTarget) {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_MAPPING", wiz.Err)
		} else {
			h.logger.Error("Duplicate detection failed", "error", err)
			respond.WriteError(w, http.StatusInternalServerError, "PREVIEW_FAILED", wiz.Err)
		}
		return nil, false
	}
	return wiz, true
}
