package enrich

import (
	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

// Confidence grades a suggestion. Only ConfidenceHigh is produced today;
// medium and low are reserved for a looser extraction mode.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Suggestion proposes a value for one empty athlete field.
type Suggestion struct {
	Field          athlete.Field `json:"field"`
	CurrentValue   interface{}   `json:"current_value"`
	SuggestedValue interface{}   `json:"suggested_value"`
	Confidence     Confidence    `json:"confidence"`
	Source         string        `json:"source"`
}

// BuildSuggestions diffs validated candidates against the stored record. A
// suggestion is emitted only when the record field is empty and a candidate
// exists; populated fields are never proposed for replacement.
func BuildSuggestions(rec athlete.Record, c Candidates, source string) []Suggestion {
	var out []Suggestion
	add := func(f athlete.Field, value interface{}) {
		if !rec.IsEmpty(f) {
			return
		}
		out = append(out, Suggestion{
			Field:          f,
			CurrentValue:   rec.Value(f),
			SuggestedValue: value,
			Confidence:     ConfidenceHigh,
			Source:         source,
		})
	}

	if c.CountryOfOrigin != "" {
		add(athlete.FieldCountryOfOrigin, c.CountryOfOrigin)
	}
	if c.Nationality != "" {
		add(athlete.FieldNationality, c.Nationality)
	}
	if len(c.Positions) > 0 {
		add(athlete.FieldPositions, c.Positions)
	}
	if c.ProfilePictureURL != "" {
		add(athlete.FieldProfilePictureURL, c.ProfilePictureURL)
	}
	return out
}
