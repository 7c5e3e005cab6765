package enrich

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

//go:embed rules.yaml
var defaultRules []byte

// Match modes for a rule.
const (
	ModeFirst = "first"
	ModeAll   = "all"
)

// Rule is one extraction pattern. The first capture group of Pattern is the
// raw value; it is written to every field in Fields.
type Rule struct {
	Name    string          `yaml:"name"`
	Fields  []athlete.Field `yaml:"fields"`
	Mode    string          `yaml:"mode"`
	Pattern string          `yaml:"pattern"`

	re *regexp.Regexp
}

// RuleSet is an ordered list of rules plus the separators used to split raw
// captures into tokens.
type RuleSet struct {
	Separators []string `yaml:"separators"`
	Rules      []Rule   `yaml:"rules"`
}

// Extraction holds unvalidated tokens per field. It must pass through
// Validate before any value is used.
type Extraction map[athlete.Field][]string

// Extractor applies a RuleSet to summary text.
type Extractor struct {
	rules      []Rule
	separators []string
}

// DefaultExtractor builds an Extractor from the embedded rule set.
func DefaultExtractor() *Extractor {
	e, err := LoadExtractor(bytes.NewReader(defaultRules))
	if err != nil {
		panic(fmt.Sprintf("embedded extraction rules: %v", err))
	}
	return e
}

// LoadExtractorFile builds an Extractor from a YAML rules file. An empty path
// selects the embedded defaults.
func LoadExtractorFile(path string) (*Extractor, error) {
	if path == "" {
		return DefaultExtractor(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadExtractor(f)
}

// LoadExtractor parses and compiles a YAML rule set.
func LoadExtractor(r io.Reader) (*Extractor, error) {
	var set RuleSet
	if err := yaml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(set.Rules) == 0 {
		return nil, fmt.Errorf("rule set is empty")
	}
	for i := range set.Rules {
		rule := &set.Rules[i]
		if rule.Mode == "" {
			rule.Mode = ModeFirst
		}
		if rule.Mode != ModeFirst && rule.Mode != ModeAll {
			return nil, fmt.Errorf("rule %q: unknown mode %q", rule.Name, rule.Mode)
		}
		if len(rule.Fields) == 0 {
			return nil, fmt.Errorf("rule %q: no target fields", rule.Name)
		}
		for _, f := range rule.Fields {
			if !athlete.IsEnrichable(f) {
				return nil, fmt.Errorf("rule %q: field %q is not enrichable", rule.Name, f)
			}
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: compile pattern: %w", rule.Name, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("rule %q: pattern has no capture group", rule.Name)
		}
		rule.re = re
	}
	return &Extractor{rules: set.Rules, separators: set.Separators}, nil
}

// Rules returns the compiled rules in evaluation order.
func (e *Extractor) Rules() []Rule {
	return e.rules
}

// Extract runs the rule cascade over text. For each field, the first rule
// (in order) producing any capture decides that field's tokens.
func (e *Extractor) Extract(text string) Extraction {
	out := Extraction{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	for _, rule := range e.rules {
		var pending []athlete.Field
		for _, f := range rule.Fields {
			if _, decided := out[f]; !decided {
				pending = append(pending, f)
			}
		}
		if len(pending) == 0 {
			continue
		}
		captures := rule.captures(text)
		if len(captures) == 0 {
			continue
		}
		var tokens []string
		for _, c := range captures {
			tokens = append(tokens, e.split(c)...)
		}
		if len(tokens) == 0 {
			continue
		}
		for _, f := range pending {
			out[f] = tokens
		}
	}
	return out
}

func (r Rule) captures(text string) []string {
	if r.Mode == ModeAll {
		var out []string
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			if c := strings.TrimSpace(m[1]); c != "" {
				out = append(out, c)
			}
		}
		return out
	}
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	if c := strings.TrimSpace(m[1]); c != "" {
		return []string{c}
	}
	return nil
}

// split breaks a raw capture on the configured separators.
func (e *Extractor) split(capture string) []string {
	parts := []string{capture}
	for _, sep := range e.separators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Validation of extracted values
// --------------------------------------------------------------------------

// Candidates are extracted values that passed field validation. Positions
// are normalized and deduplicated.
type Candidates struct {
	Nationality       string
	CountryOfOrigin   string
	Positions         []string
	ProfilePictureURL string
}

// Validate filters raw extraction tokens through the field validators. For
// single-valued fields the first valid token is kept.
func Validate(x Extraction, imageURL string) Candidates {
	var c Candidates
	c.Nationality = firstValid(x[athlete.FieldNationality], IsValidCountryOrNationality)
	c.CountryOfOrigin = firstValid(x[athlete.FieldCountryOfOrigin], IsValidCountryOrNationality)
	c.Positions = validPositions(x[athlete.FieldPositions])
	if IsValidProfilePictureURL(imageURL) {
		c.ProfilePictureURL = strings.TrimSpace(imageURL)
	}
	return c
}

// Candidates is Extract followed by Validate.
func (e *Extractor) Candidates(text, imageURL string) Candidates {
	return Validate(e.Extract(text), imageURL)
}

func firstValid(tokens []string, valid func(string) bool) string {
	for _, t := range tokens {
		if valid(t) {
			return strings.TrimSpace(t)
		}
	}
	return ""
}

// validPositions validates, then normalizes, then deduplicates.
func validPositions(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !IsValidPosition(t) {
			continue
		}
		out = append(out, StandardizePosition(strings.TrimSpace(t)))
	}
	out = athlete.DedupePositions(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
