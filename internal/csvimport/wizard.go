package csvimport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
	"github.com/wodagoat/wodagoat-data/internal/metrics"
)

// Step is a wizard stage.
type Step string

const (
	StepUpload   Step = "upload"
	StepMapping  Step = "mapping"
	StepPreview  Step = "preview"
	StepImport   Step = "import"
	StepComplete Step = "complete"
)

// Store is what the wizard needs from the record store.
type Store interface {
	NameLookup
	BulkUpsert(ctx context.Context, rows []athlete.Candidate, updateMode bool) (athlete.ImportResult, error)
}

// Wizard drives one import through upload, mapping, preview, import and
// complete. A failing call leaves the wizard at the step it was called in,
// keeps earlier state and sets Err. A Wizard is not safe for concurrent use.
type Wizard struct {
	Step       Step
	Table      *Table
	Mapping    Mapping
	Candidates []athlete.Candidate
	Duplicates []Duplicate
	UpdateMode bool
	Result     *athlete.ImportResult
	// Err is the user-facing message of the last failure, cleared by the
	// next call.
	Err string

	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewWizard returns a wizard at the upload step.
func NewWizard(store Store, m *metrics.Metrics, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{Step: StepUpload, store: store, metrics: m, logger: logger}
}

// Upload parses raw CSV text and advances to mapping with a suggested
// mapping.
func (w *Wizard) Upload(text string) error {
	if err := w.begin(StepUpload, "upload"); err != nil {
		return err
	}
	t, err := Parse(text)
	if err != nil {
		return w.fail(err)
	}
	w.Table = t
	w.Mapping = SuggestMapping(t.Headers)
	w.Step = StepMapping
	w.logger.Info("CSV uploaded", "columns", len(t.Headers), "rows", len(t.Rows))
	return nil
}

// Map applies a column mapping, builds candidates, detects duplicates and
// advances to preview.
func (w *Wizard) Map(ctx context.Context, mapping Mapping) error {
	if err := w.begin(StepMapping, "map"); err != nil {
		return err
	}
	if err := mapping.Validate(); err != nil {
		return w.fail(err)
	}
	candidates := BuildCandidates(w.Table, mapping)
	dups, err := DetectDuplicates(ctx, w.store, candidates, w.UpdateMode)
	if err != nil {
		return w.fail(err)
	}
	w.Mapping = mapping
	w.Candidates = candidates
	w.Duplicates = dups
	w.Step = StepPreview
	w.logger.Info("CSV mapped", "athletes", len(candidates), "duplicates", len(dups),
		"dropped", len(w.Table.Rows)-len(candidates))
	return nil
}

// SetUpdateMode toggles update mode and relabels detected duplicates
// without querying the store again.
func (w *Wizard) SetUpdateMode(on bool) {
	w.UpdateMode = on
	for i := range w.Duplicates {
		w.Duplicates[i].WillBeUpdated = on
	}
}

// Commit sends every candidate to the store in a single batch and advances
// to complete. Per-row failures are part of the result, not an error.
func (w *Wizard) Commit(ctx context.Context) (*athlete.ImportResult, error) {
	if err := w.begin(StepPreview, "commit"); err != nil {
		return nil, err
	}
	w.Step = StepImport
	result, err := w.store.BulkUpsert(ctx, w.Candidates, w.UpdateMode)
	if err != nil {
		w.Step = StepPreview
		return nil, w.fail(fmt.Errorf("import athletes: %w", err))
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	w.Result = &result
	w.Step = StepComplete

	w.metrics.ImportRows(metrics.RowInserted, result.InsertedCount)
	w.metrics.ImportRows(metrics.RowUpdated, result.UpdatedCount)
	w.metrics.ImportRows(metrics.RowSkipped, result.SkippedCount)
	w.metrics.ImportRows(metrics.RowFailed, len(result.Errors))
	w.logger.Info("CSV import complete", "summary", result.Summary())
	for _, e := range result.Errors {
		w.logger.Warn("Import row error", "error", e)
	}
	return w.Result, nil
}

// Back returns to the previous step: preview to mapping, mapping to upload.
// Other steps are unchanged.
func (w *Wizard) Back() {
	w.Err = ""
	switch w.Step {
	case StepPreview:
		w.Step = StepMapping
	case StepMapping:
		w.Step = StepUpload
	}
}

// Reset discards all state and returns to upload.
func (w *Wizard) Reset() {
	*w = Wizard{Step: StepUpload, store: w.store, metrics: w.metrics, logger: w.logger}
}

func (w *Wizard) begin(want Step, action string) error {
	w.Err = ""
	if w.Step != want {
		return w.fail(fmt.Errorf("cannot %s at step %s", action, w.Step))
	}
	return nil
}

func (w *Wizard) fail(err error) error {
	w.Err = err.Error()
	w.logger.Warn("Import step failed", "step", w.Step, "error", err)
	return err
}
