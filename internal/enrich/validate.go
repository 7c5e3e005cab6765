package enrich

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Term lists
// --------------------------------------------------------------------------

// Terms that show an extracted country/nationality is sentence debris
// rather than a place or demonym.
var countryDenylist = []string{
	"professional", "footballer", "football", "soccer", "player",
	"club", "league", "international", "retired", "former",
	"team", "national", "coach", "manager",
	"striker", "midfielder", "defender", "goalkeeper", "forward", "winger",
}

// Generic terms that never belong in a position label.
var positionDenylist = []string{
	"professional", "footballer", "player", "club", "league",
	"international", "retired", "former", "team", "national",
	"coach", "manager",
}

// Bare directional/anatomical fragments left over when a position phrase is
// split badly ("left" from "left and right back").
var positionFragments = map[string]bool{
	"left": true, "right": true, "centre": true, "center": true,
	"back": true, "front": true, "wide": true, "inside": true,
	"outside": true, "full": true, "half": true,
}

// A position must be, or end with, one of these families.
var positionSuffixes = []string{
	"back", "midfielder", "winger", "forward", "striker", "goalkeeper", "defender",
}

var picturePlaceholders = map[string]bool{
	"placeholder": true, "n/a": true, "null": true, "undefined": true, "": true,
}

// Hosts and extensions trusted to serve a real portrait.
var pictureAllowlist = []string{
	".jpg", ".jpeg", ".png", ".webp",
	"upload.wikimedia.org", "wikipedia.org", "wikimedia.org",
}

const (
	minFieldLen      = 3
	maxFieldLen      = 25
	minPictureURLLen = 10
)

// --------------------------------------------------------------------------
// Validators
// --------------------------------------------------------------------------

// IsValidCountryOrNationality accepts free-text country names and demonyms
// of reasonable length that contain no denylisted term.
func IsValidCountryOrNationality(value string) bool {
	v := strings.TrimSpace(value)
	if !lengthInRange(v) {
		return false
	}
	return !containsAny(strings.ToLower(v), countryDenylist)
}

// IsValidPosition accepts labels ending in a known position family. Bare
// fragments, denylisted terms and numbers are rejected first.
func IsValidPosition(value string) bool {
	v := strings.TrimSpace(value)
	if !lengthInRange(v) {
		return false
	}
	lower := strings.ToLower(v)
	if positionFragments[lower] {
		return false
	}
	if containsAny(lower, positionDenylist) {
		return false
	}
	if isNumeric(lower) {
		return false
	}
	for _, suffix := range positionSuffixes {
		if lower == suffix || strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// IsValidProfilePictureURL accepts http(s) URLs pointing at a known image
// extension or a trusted media host.
func IsValidProfilePictureURL(value string) bool {
	v := strings.TrimSpace(value)
	lower := strings.ToLower(v)
	if picturePlaceholders[lower] {
		return false
	}
	if len(v) < minPictureURLLen || !strings.HasPrefix(lower, "http") {
		return false
	}
	return containsAny(lower, pictureAllowlist)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func lengthInRange(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= minFieldLen && n <= maxFieldLen
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
