package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

var (
	// ErrNameNotMapped means no column targets the name field.
	ErrNameNotMapped = errors.New("a column must be mapped to name")
	// ErrDuplicateTarget means two columns claim the same field.
	ErrDuplicateTarget = errors.New("a field may be mapped from only one column")
	// ErrUnknownTarget means a column targets a field that cannot be imported.
	ErrUnknownTarget = errors.New("unknown target field")
)

// Mapping assigns CSV headers to athlete fields. Headers mapped to
// athlete.FieldUnmapped (or absent) are ignored.
type Mapping map[string]athlete.Field

// Validate checks that exactly one column targets name and no field is
// claimed twice.
func (m Mapping) Validate() error {
	seen := make(map[athlete.Field]string, len(m))
	for header, target := range m {
		if target == "" || target == athlete.FieldUnmapped {
			continue
		}
		if !athlete.IsImportField(target) {
			return fmt.Errorf("%w: %q for column %q", ErrUnknownTarget, target, header)
		}
		if prev, ok := seen[target]; ok {
			return fmt.Errorf("%w: %s is mapped from %q and %q", ErrDuplicateTarget, target, prev, header)
		}
		seen[target] = header
	}
	if _, ok := seen[athlete.FieldName]; !ok {
		return ErrNameNotMapped
	}
	return nil
}

// ParseTarget accepts a field in snake_case or camelCase. Empty input and
// "unmapped" yield athlete.FieldUnmapped.
func ParseTarget(s string) (athlete.Field, error) {
	key := fieldKey(s)
	if key == "" || key == fieldKey(string(athlete.FieldUnmapped)) {
		return athlete.FieldUnmapped, nil
	}
	for _, f := range athlete.ImportFields {
		if fieldKey(string(f)) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// ParseMapping parses "Header=field,Header2=field2".
func ParseMapping(spec string) (Mapping, error) {
	m := Mapping{}
	for _, pair := range strings.Split(spec, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		header, target, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid mapping %q (want Header=field)", pair)
		}
		f, err := ParseTarget(target)
		if err != nil {
			return nil, err
		}
		m[strings.TrimSpace(header)] = f
	}
	return m, nil
}

// headerAliases maps normalized header spellings to fields beyond the field
// names themselves.
var headerAliases = map[string]athlete.Field{
	"fullname":     athlete.FieldName,
	"player":       athlete.FieldName,
	"athlete":      athlete.FieldName,
	"country":      athlete.FieldCountryOfOrigin,
	"birthcountry": athlete.FieldCountryOfOrigin,
	"dob":          athlete.FieldDateOfBirth,
	"birthdate":    athlete.FieldDateOfBirth,
	"dod":          athlete.FieldDateOfDeath,
	"active":       athlete.FieldIsActive,
	"position":     athlete.FieldPositions,
	"photo":        athlete.FieldProfilePictureURL,
	"image":        athlete.FieldProfilePictureURL,
	"pictureurl":   athlete.FieldProfilePictureURL,
}

// SuggestMapping pre-fills a mapping from header names. Each field is
// claimed by the first matching header; the rest stay unmapped.
func SuggestMapping(headers []string) Mapping {
	m := make(Mapping, len(headers))
	claimed := map[athlete.Field]bool{}
	for _, h := range headers {
		target, err := ParseTarget(h)
		if err != nil || target == athlete.FieldUnmapped {
			target = headerAliases[fieldKey(h)]
		}
		if target == "" || claimed[target] {
			m[h] = athlete.FieldUnmapped
			continue
		}
		claimed[target] = true
		m[h] = target
	}
	return m
}

// fieldKey lowercases s and drops separators so "countryOfOrigin",
// "country_of_origin" and "Country of origin" compare equal.
func fieldKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r == '_' || r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
