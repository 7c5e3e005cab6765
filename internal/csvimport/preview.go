package csvimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

// NameLookup finds existing records by exact name.
type NameLookup interface {
	ExistingNames(ctx context.Context, names []string) (map[string]string, error)
}

// Duplicate is a parsed athlete whose name already exists in the store.
type Duplicate struct {
	Name          string `json:"name"`
	ExistingID    string `json:"existing_id"`
	WillBeUpdated bool   `json:"will_be_updated"`
}

// BuildCandidates applies mapping to every row. Rows without a name are
// dropped without being reported. The mapping must already be valid.
func BuildCandidates(t *Table, mapping Mapping) []athlete.Candidate {
	candidates := make([]athlete.Candidate, 0, len(t.Rows))
	for _, row := range t.Rows {
		var c athlete.Candidate
		for i, header := range t.Headers {
			target, ok := mapping[header]
			if !ok {
				continue
			}
			assign(&c, target, t.Cell(row, i))
		}
		if c.Name == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func assign(c *athlete.Candidate, target athlete.Field, value string) {
	value = strings.TrimSpace(value)
	switch target {
	case athlete.FieldName:
		c.Name = value
	case athlete.FieldCountryOfOrigin:
		c.CountryOfOrigin = value
	case athlete.FieldNationality:
		c.Nationality = value
	case athlete.FieldDateOfBirth:
		c.DateOfBirth = value
	case athlete.FieldDateOfDeath:
		c.DateOfDeath = value
	case athlete.FieldIsActive:
		if value != "" {
			b := parseBool(value)
			c.IsActive = &b
		}
	case athlete.FieldPositions:
		c.Positions = splitPositions(value)
	case athlete.FieldProfilePictureURL:
		c.ProfilePictureURL = value
	}
}

// parseBool treats true, yes and 1 (any case) as true, anything else false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}

// splitPositions splits a cell on semicolons. Empty and repeated tokens are
// dropped; the first spelling of a repeated label wins.
func splitPositions(s string) []string {
	return athlete.DedupePositions(strings.Split(s, ";"))
}

// DetectDuplicates flags candidates whose exact name exists in the store.
func DetectDuplicates(ctx context.Context, lookup NameLookup, candidates []athlete.Candidate, updateMode bool) ([]Duplicate, error) {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	existing, err := lookup.ExistingNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("check existing athletes: %w", err)
	}

	dups := []Duplicate{}
	for _, c := range candidates {
		if id, ok := existing[c.Name]; ok {
			dups = append(dups, Duplicate{Name: c.Name, ExistingID: id, WillBeUpdated: updateMode})
		}
	}
	return dups, nil
}
