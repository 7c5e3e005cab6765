// Package athlete defines the canonical athlete shapes shared by the
// enrichment and import pipelines and the record store. These structs are the
// contract between pipelines and storage: pipelines produce and consume
// them, store implementations map them to table rows.
package athlete

import (
	"fmt"
	"strings"
	"time"
)

// Field names a writable athlete column. Values match the database column
// names and the JSON keys used on the admin API.
type Field string

const (
	FieldName              Field = "name"
	FieldCountryOfOrigin   Field = "country_of_origin"
	FieldNationality       Field = "nationality"
	FieldDateOfBirth       Field = "date_of_birth"
	FieldDateOfDeath       Field = "date_of_death"
	FieldIsActive          Field = "is_active"
	FieldPositions         Field = "positions"
	FieldProfilePictureURL Field = "profile_picture_url"

	// FieldUnmapped marks an import column that should be ignored.
	FieldUnmapped Field = "unmapped"
)

// ImportFields are the targets a CSV column may be mapped to.
var ImportFields = []Field{
	FieldName,
	FieldCountryOfOrigin,
	FieldNationality,
	FieldDateOfBirth,
	FieldDateOfDeath,
	FieldIsActive,
	FieldPositions,
	FieldProfilePictureURL,
}

// EnrichableFields are the fields the enrichment pipeline may fill.
var EnrichableFields = []Field{
	FieldCountryOfOrigin,
	FieldNationality,
	FieldPositions,
	FieldProfilePictureURL,
}

// IsImportField reports whether f is a valid CSV mapping target.
func IsImportField(f Field) bool {
	for _, x := range ImportFields {
		if x == f {
			return true
		}
	}
	return false
}

// IsEnrichable reports whether f may be written by the enrichment pipeline.
func IsEnrichable(f Field) bool {
	for _, x := range EnrichableFields {
		if x == f {
			return true
		}
	}
	return false
}

// Record is a stored athlete row. Fields outside EnrichableFields are passed
// through untouched by enrichment.
type Record struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CountryOfOrigin   string    `json:"country_of_origin,omitempty"`
	Nationality       string    `json:"nationality,omitempty"`
	Positions         []string  `json:"positions,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	DateOfBirth       string    `json:"date_of_birth,omitempty"` // "YYYY-MM-DD"
	DateOfDeath       string    `json:"date_of_death,omitempty"`
	IsActive          *bool     `json:"is_active,omitempty"`
	CareerStartYear   *int      `json:"career_start_year,omitempty"`
	CareerEndYear     *int      `json:"career_end_year,omitempty"`
	Clubs             []string  `json:"clubs,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsEmpty reports whether the record has no value for an enrichable field.
// Unknown fields are never considered empty.
func (r Record) IsEmpty(f Field) bool {
	switch f {
	case FieldCountryOfOrigin:
		return strings.TrimSpace(r.CountryOfOrigin) == ""
	case FieldNationality:
		return strings.TrimSpace(r.Nationality) == ""
	case FieldPositions:
		return len(r.Positions) == 0
	case FieldProfilePictureURL:
		return strings.TrimSpace(r.ProfilePictureURL) == ""
	default:
		return false
	}
}

// Value returns the record's current value for an enrichable field, or nil
// when the field is empty.
func (r Record) Value(f Field) interface{} {
	if r.IsEmpty(f) {
		return nil
	}
	switch f {
	case FieldCountryOfOrigin:
		return r.CountryOfOrigin
	case FieldNationality:
		return r.Nationality
	case FieldPositions:
		return r.Positions
	case FieldProfilePictureURL:
		return r.ProfilePictureURL
	default:
		return nil
	}
}

// NeedsEnrichment reports whether any enrichable field is empty.
func (r Record) NeedsEnrichment() bool {
	for _, f := range EnrichableFields {
		if r.IsEmpty(f) {
			return true
		}
	}
	return false
}

// Update is a partial write of enrichable fields. Nil pointers and a nil
// Positions slice leave the stored value untouched.
type Update struct {
	CountryOfOrigin   *string
	Nationality       *string
	Positions         []string
	ProfilePictureURL *string
}

// Fields lists the fields set on the update, in EnrichableFields order.
func (u Update) Fields() []Field {
	var fields []Field
	if u.CountryOfOrigin != nil {
		fields = append(fields, FieldCountryOfOrigin)
	}
	if u.Nationality != nil {
		fields = append(fields, FieldNationality)
	}
	if u.Positions != nil {
		fields = append(fields, FieldPositions)
	}
	if u.ProfilePictureURL != nil {
		fields = append(fields, FieldProfilePictureURL)
	}
	return fields
}

// IsEmpty reports whether the update would write nothing.
func (u Update) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Candidate is an athlete parsed from one import row: the writable subset of
// Record. Empty strings and nil pointers mean "not provided".
type Candidate struct {
	Name              string   `json:"name"`
	CountryOfOrigin   string   `json:"country_of_origin,omitempty"`
	Nationality       string   `json:"nationality,omitempty"`
	DateOfBirth       string   `json:"date_of_birth,omitempty"`
	DateOfDeath       string   `json:"date_of_death,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
	Positions         []string `json:"positions,omitempty"`
	ProfilePictureURL string   `json:"profile_picture_url,omitempty"`
}

// ImportResult tallies the outcome of one bulk import. Each row lands in
// exactly one of the three counts; failed rows also add an Errors entry.
type ImportResult struct {
	InsertedCount int      `json:"inserted_count"`
	UpdatedCount  int      `json:"updated_count"`
	SkippedCount  int      `json:"skipped_count"`
	Errors        []string `json:"errors"`
}

// AddErrorf records a formatted per-row error message.
func (r *ImportResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the import.
func (r *ImportResult) Summary() string {
	return fmt.Sprintf("inserted=%d updated=%d skipped=%d errors=%d",
		r.InsertedCount, r.UpdatedCount, r.SkippedCount, len(r.Errors))
}

// DedupePositions trims labels, drops empties and removes case-insensitive
// duplicates, keeping the first spelling seen.
func DedupePositions(positions []string) []string {
	if positions == nil {
		return nil
	}
	seen := make(map[string]bool, len(positions))
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
