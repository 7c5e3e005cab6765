package enrich

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

func TestBuildSuggestionsOnlyForEmptyFields(t *testing.T) {
	rec := athlete.Record{
		ID:          "a1",
		Name:        "Pelé",
		Nationality: "Brazilian",
		Positions:   []string{"Forward"},
	}
	c := Candidates{
		Nationality:       "Portuguese",
		CountryOfOrigin:   "Brazilian",
		Positions:         []string{"Striker"},
		ProfilePictureURL: wikimediaImage,
	}

	got := BuildSuggestions(rec, c, "wikipedia")
	want := []Suggestion{
		{
			Field:          athlete.FieldCountryOfOrigin,
			SuggestedValue: "Brazilian",
			Confidence:     ConfidenceHigh,
			Source:         "wikipedia",
		},
		{
			Field:          athlete.FieldProfilePictureURL,
			SuggestedValue: wikimediaImage,
			Confidence:     ConfidenceHigh,
			Source:         "wikipedia",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildSuggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSuggestionsWhitespaceCountsAsEmpty(t *testing.T) {
	rec := athlete.Record{Nationality: "   "}
	got := BuildSuggestions(rec, Candidates{Nationality: "Brazilian"}, "wikipedia")
	if assert.Len(t, got, 1) {
		assert.Equal(t, athlete.FieldNationality, got[0].Field)
		assert.Nil(t, got[0].CurrentValue)
	}
}

func TestBuildSuggestionsNoCandidates(t *testing.T) {
	assert.Empty(t, BuildSuggestions(athlete.Record{Name: "Nobody"}, Candidates{}, "wikipedia"))
}
