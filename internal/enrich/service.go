// Package enrich suggests values for empty athlete fields from an external
// biographical summary, and merges operator-approved suggestions back into
// the stored record.
//
// The flow per athlete is Lookup -> Extract -> Validate/Normalize ->
// BuildSuggestions. Nothing is written during a scan; ApplySuggestions
// re-validates every approved value before a single update.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/external"
	"github.com/wodagoat/wodagoat-data/internal/metrics"
)

// MaxScanBatch caps the athletes processed by one scan.
const MaxScanBatch = 20

// ErrInvalidTarget means a scan target selects nothing or several modes.
var ErrInvalidTarget = errors.New("scan target must set exactly one of id, ids or all")

// --------------------------------------------------------------------------
// Collaborators
// --------------------------------------------------------------------------

// Store is the subset of the record store used by enrichment.
type Store interface {
	Get(ctx context.Context, id string) (athlete.Record, error)
	GetMany(ctx context.Context, ids []string, limit int) ([]athlete.Record, error)
	ListIncomplete(ctx context.Context, limit int) ([]athlete.Record, error)
	UpdateFields(ctx context.Context, id string, u athlete.Update) error
}

// Lookup fetches a biographical summary by athlete name. A missing summary
// is reported as external.ErrNotFound.
type Lookup interface {
	FetchSummary(ctx context.Context, name string) (*external.Summary, error)
	Source() string
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Target selects the athletes to scan. Exactly one mode must be set.
type Target struct {
	ID  string
	IDs []string
	All bool
}

func (t Target) validate() error {
	modes := 0
	if t.ID != "" {
		modes++
	}
	if len(t.IDs) > 0 {
		modes++
	}
	if t.All {
		modes++
	}
	if modes != 1 {
		return ErrInvalidTarget
	}
	return nil
}

// AthleteSuggestions groups the suggestions found for one athlete.
type AthleteSuggestions struct {
	AthleteID   string       `json:"athlete_id"`
	AthleteName string       `json:"athlete_name"`
	Suggestions []Suggestion `json:"suggestions"`
}

// ScanResult tracks counts and errors from a scan. SuggestionsFound counts
// athletes with at least one suggestion, not suggestions.
type ScanResult struct {
	Processed          int                  `json:"processed"`
	SuggestionsFound   int                  `json:"suggestions_found"`
	Errors             []string             `json:"errors"`
	AthleteSuggestions []AthleteSuggestions `json:"athlete_suggestions"`
}

// AddErrorf records a formatted error message.
func (r *ScanResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the scan.
func (r *ScanResult) Summary() string {
	return fmt.Sprintf("processed=%d with_suggestions=%d errors=%d",
		r.Processed, r.SuggestionsFound, len(r.Errors))
}

// ApplyResult lists the fields actually written. An empty list means no
// write happened, which is not an error.
type ApplyResult struct {
	AthleteID     string          `json:"athlete_id"`
	AppliedFields []athlete.Field `json:"applied_fields"`
}

// --------------------------------------------------------------------------
// Service
// --------------------------------------------------------------------------

// Service runs enrichment scans and applies approved suggestions.
type Service struct {
	store     Store
	lookup    Lookup
	extractor *Extractor
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService wires a Service. A nil extractor selects the embedded rules.
func NewService(store Store, lookup Lookup, extractor *Extractor, m *metrics.Metrics, logger *slog.Logger) *Service {
	if extractor == nil {
		extractor = DefaultExtractor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		lookup:    lookup,
		extractor: extractor,
		metrics:   m,
		logger:    logger,
	}
}

// Scan builds suggestions for the targeted athletes, one at a time.
// Per-athlete failures are recorded in the result and never abort the
// batch; authorization and target resolution failures are fatal.
func (s *Service) Scan(ctx context.Context, caller auth.Caller, target Target) (*ScanResult, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	records, err := s.resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Enrichment scan started", "athletes", len(records), "caller", caller.UserID)
	start := time.Now()

	result := &ScanResult{Errors: []string{}, AthleteSuggestions: []AthleteSuggestions{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		suggestions, err := s.scanOne(ctx, rec)
		result.Processed++
		s.metrics.AthleteScanned(err != nil)
		if err != nil {
			result.AddErrorf("%s: %v", rec.Name, err)
			continue
		}
		if len(suggestions) == 0 {
			continue
		}
		result.SuggestionsFound++
		result.AthleteSuggestions = append(result.AthleteSuggestions, AthleteSuggestions{
			AthleteID:   rec.ID,
			AthleteName: rec.Name,
			Suggestions: suggestions,
		})
		for _, sg := range suggestions {
			s.metrics.Suggested(string(sg.Field))
		}
	}

	s.logger.Info("Enrichment scan complete",
		"duration", time.Since(start).Round(time.Millisecond),
		"summary", result.Summary())
	for _, e := range result.Errors {
		s.logger.Warn("Enrichment error", "error", e)
	}
	return result, nil
}

// resolve turns a target into at most MaxScanBatch records.
func (s *Service) resolve(ctx context.Context, target Target) ([]athlete.Record, error) {
	if err := target.validate(); err != nil {
		return nil, err
	}
	switch {
	case target.ID != "":
		rec, err := s.store.Get(ctx, target.ID)
		if err != nil {
			return nil, fmt.Errorf("load athlete %s: %w", target.ID, err)
		}
		return []athlete.Record{rec}, nil
	case len(target.IDs) > 0:
		ids := target.IDs
		if len(ids) > MaxScanBatch {
			ids = ids[:MaxScanBatch]
		}
		records, err := s.store.GetMany(ctx, ids, MaxScanBatch)
		if err != nil {
			return nil, fmt.Errorf("load athletes: %w", err)
		}
		return records, nil
	default:
		records, err := s.store.ListIncomplete(ctx, MaxScanBatch)
		if err != nil {
			return nil, fmt.Errorf("list incomplete athletes: %w", err)
		}
		return records, nil
	}
}

// scanOne runs lookup, extraction and diffing for one athlete. A missing
// summary yields no suggestions and no error.
func (s *Service) scanOne(ctx context.Context, rec athlete.Record) ([]Suggestion, error) {
	if !rec.NeedsEnrichment() {
		return nil, nil
	}
	summary, err := s.lookup.FetchSummary(ctx, rec.Name)
	if errors.Is(err, external.ErrNotFound) {
		s.logger.Info("No reference data for athlete", "athlete_id", rec.ID, "name", rec.Name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	candidates := s.extractor.Candidates(summary.Extract, summary.ImageURL)
	return BuildSuggestions(rec, candidates, s.lookup.Source()), nil
}

// ApplySuggestions writes approved suggestions to an athlete record. Every
// value is validated again (positions are also re-normalized); values that
// fail are dropped without error. Nothing is written when no field
// survives.
func (s *Service) ApplySuggestions(ctx context.Context, caller auth.Caller, athleteID string, suggestions []Suggestion) (*ApplyResult, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return nil, fmt.Errorf("athlete id is required")
	}

	update := buildUpdate(suggestions)
	result := &ApplyResult{AthleteID: athleteID, AppliedFields: update.Fields()}
	if result.AppliedFields == nil {
		result.AppliedFields = []athlete.Field{}
	}
	if update.IsEmpty() {
		s.logger.Info("No valid suggestions to apply", "athlete_id", athleteID, "submitted", len(suggestions))
		return result, nil
	}

	if err := s.store.UpdateFields(ctx, athleteID, update); err != nil {
		return nil, fmt.Errorf("update athlete %s: %w", athleteID, err)
	}
	for _, f := range result.AppliedFields {
		s.metrics.Applied(string(f))
	}
	s.logger.Info("Suggestions applied",
		"athlete_id", athleteID, "fields", result.AppliedFields, "caller", caller.UserID)
	return result, nil
}

// buildUpdate keeps only suggestions whose values still validate.
func buildUpdate(suggestions []Suggestion) athlete.Update {
	var u athlete.Update
	for _, sg := range suggestions {
		switch sg.Field {
		case athlete.FieldCountryOfOrigin:
			if v, ok := sg.SuggestedValue.(string); ok && IsValidCountryOrNationality(v) {
				v = strings.TrimSpace(v)
				u.CountryOfOrigin = &v
			}
		case athlete.FieldNationality:
			if v, ok := sg.SuggestedValue.(string); ok && IsValidCountryOrNationality(v) {
				v = strings.TrimSpace(v)
				u.Nationality = &v
			}
		case athlete.FieldPositions:
			if positions := validPositions(toStrings(sg.SuggestedValue)); len(positions) > 0 {
				u.Positions = positions
			}
		case athlete.FieldProfilePictureURL:
			if v, ok := sg.SuggestedValue.(string); ok && IsValidProfilePictureURL(v) {
				v = strings.TrimSpace(v)
				u.ProfilePictureURL = &v
			}
		}
	}
	return u
}

// toStrings accepts the shapes a positions value takes in Go callers and
// after a JSON round trip.
func toStrings(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{vals}
	default:
		return nil
	}
}
