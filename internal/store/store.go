// Package store persists athlete records. Postgres (pgx) backs production;
// SQLite (modernc) backs local runs and tests. Both implement Store with the
// same batch import semantics.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

const (
	AthletesTable  = "athletes"
	UserRolesTable = "user_roles"

	roleAdmin = "admin"
)

// ErrNotFound is returned when an athlete id does not exist.
var ErrNotFound = errors.New("athlete not found")

// Store is the record store contract consumed by the pipelines.
type Store interface {
	Get(ctx context.Context, id string) (athlete.Record, error)
	GetMany(ctx context.Context, ids []string, limit int) ([]athlete.Record, error)
	ListIncomplete(ctx context.Context, limit int) ([]athlete.Record, error)
	UpdateFields(ctx context.Context, id string, u athlete.Update) error
	// BulkUpsert reconciles candidates by exact name: existing names are
	// skipped, or overwritten with the non-empty incoming fields when
	// updateMode is set; unknown names are inserted. Per-row failures land
	// in ImportResult.Errors; only batch-level failures return an error.
	BulkUpsert(ctx context.Context, rows []athlete.Candidate, updateMode bool) (athlete.ImportResult, error)
	// ExistingNames maps each stored name in names to a record id.
	ExistingNames(ctx context.Context, names []string) (map[string]string, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Ping(ctx context.Context) error
	Close()
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// nilEmpty returns nil for empty strings (maps to SQL NULL).
func nilEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// normalizeDate validates a YYYY-MM-DD value. Empty input yields nil.
func normalizeDate(field athlete.Field, s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q (want YYYY-MM-DD)", field, s)
	}
	return t.Format("2006-01-02"), nil
}

// candidateDates validates both date columns of a candidate.
func candidateDates(c athlete.Candidate) (dob, dod interface{}, err error) {
	if dob, err = normalizeDate(athlete.FieldDateOfBirth, c.DateOfBirth); err != nil {
		return nil, nil, err
	}
	if dod, err = normalizeDate(athlete.FieldDateOfDeath, c.DateOfDeath); err != nil {
		return nil, nil, err
	}
	return dob, dod, nil
}

// uniqueNames trims and deduplicates names, dropping empties.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// rowError formats a per-row import failure.
func rowError(result *athlete.ImportResult, index int, name string, err error) {
	result.AddErrorf("Row %d (%s): %v", index+1, name, err)
}

// candidateNames collects the names of a batch.
func candidateNames(rows []athlete.Candidate) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names
}

// nilBool maps an absent flag to SQL NULL.
func nilBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}
