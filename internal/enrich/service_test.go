package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/external"
	"github.com/wodagoat/wodagoat-data/internal/metrics"
)

var (
	errNoSuchAthlete = errors.New("no such athlete")
	admin            = auth.Caller{UserID: "u1", Admin: true}
)

// --------------------------------------------------------------------------
// Fakes
// --------------------------------------------------------------------------

type fakeStore struct {
	records   map[string]athlete.Record
	order     []string
	updates   int
	lastLimit int
}

func newFakeStore(recs ...athlete.Record) *fakeStore {
	s := &fakeStore{records: map[string]athlete.Record{}}
	for _, r := range recs {
		s.records[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id string) (athlete.Record, error) {
	r, ok := s.records[id]
	if !ok {
		return athlete.Record{}, errNoSuchAthlete
	}
	return r, nil
}

func (s *fakeStore) GetMany(_ context.Context, ids []string, limit int) ([]athlete.Record, error) {
	s.lastLimit = limit
	var out []athlete.Record
	for _, id := range ids {
		if r, ok := s.records[id]; ok && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListIncomplete(_ context.Context, limit int) ([]athlete.Record, error) {
	s.lastLimit = limit
	var out []athlete.Record
	for _, id := range s.order {
		if r := s.records[id]; r.NeedsEnrichment() && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateFields(_ context.Context, id string, u athlete.Update) error {
	r, ok := s.records[id]
	if !ok {
		return errNoSuchAthlete
	}
	s.updates++
	if u.CountryOfOrigin != nil {
		r.CountryOfOrigin = *u.CountryOfOrigin
	}
	if u.Nationality != nil {
		r.Nationality = *u.Nationality
	}
	if u.Positions != nil {
		r.Positions = u.Positions
	}
	if u.ProfilePictureURL != nil {
		r.ProfilePictureURL = *u.ProfilePictureURL
	}
	s.records[id] = r
	return nil
}

type fakeLookup struct {
	summaries map[string]*external.Summary
	errs      map[string]error
	calls     []string
}

func (l *fakeLookup) FetchSummary(_ context.Context, name string) (*external.Summary, error) {
	l.calls = append(l.calls, name)
	if err, ok := l.errs[name]; ok {
		return nil, err
	}
	if s, ok := l.summaries[name]; ok {
		return s, nil
	}
	return nil, external.ErrNotFound
}

func (l *fakeLookup) Source() string { return "wikipedia" }

func newTestService(st Store, lk Lookup) *Service {
	return NewService(st, lk, nil, metrics.New(), nil)
}

// --------------------------------------------------------------------------
// Scan
// --------------------------------------------------------------------------

func TestScanSingleAthleteEndToEnd(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Test Player", DateOfBirth: "1990-01-01"})
	lk := &fakeLookup{summaries: map[string]*external.Summary{
		"Test Player": {Title: "Test Player", Extract: "Test Player is a Brazilian striker who plays for Santos."},
	}}
	svc := newTestService(st, lk)

	result, err := svc.Scan(context.Background(), admin, Target{ID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.SuggestionsFound)
	assert.Empty(t, result.Errors)
	require.Len(t, result.AthleteSuggestions, 1)

	want := []Suggestion{
		{Field: athlete.FieldCountryOfOrigin, SuggestedValue: "Brazilian", Confidence: ConfidenceHigh, Source: "wikipedia"},
		{Field: athlete.FieldNationality, SuggestedValue: "Brazilian", Confidence: ConfidenceHigh, Source: "wikipedia"},
		{Field: athlete.FieldPositions, SuggestedValue: []string{"Striker"}, Confidence: ConfidenceHigh, Source: "wikipedia"},
	}
	got := result.AthleteSuggestions[0]
	assert.Equal(t, "a1", got.AthleteID)
	assert.Equal(t, "Test Player", got.AthleteName)
	if diff := cmp.Diff(want, got.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}

	applied, err := svc.ApplySuggestions(context.Background(), admin, "a1", got.Suggestions)
	require.NoError(t, err)
	assert.ElementsMatch(t, []athlete.Field{
		athlete.FieldCountryOfOrigin, athlete.FieldNationality, athlete.FieldPositions,
	}, applied.AppliedFields)

	rec := st.records["a1"]
	assert.Equal(t, "Brazilian", rec.Nationality)
	assert.Equal(t, "Brazilian", rec.CountryOfOrigin)
	assert.Equal(t, []string{"Striker"}, rec.Positions)
	assert.Equal(t, "Test Player", rec.Name)
	assert.Equal(t, "1990-01-01", rec.DateOfBirth)
	assert.Empty(t, rec.ProfilePictureURL)
}

func TestScanNeverSuggestsOverPopulatedField(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Ronaldo", Nationality: "Brazilian"})
	lk := &fakeLookup{summaries: map[string]*external.Summary{
		"Ronaldo": {Extract: "Ronaldo is a Portuguese professional footballer who plays as a forward for Al Nassr."},
	}}

	result, err := newTestService(st, lk).Scan(context.Background(), admin, Target{ID: "a1"})
	require.NoError(t, err)
	require.Len(t, result.AthleteSuggestions, 1)
	for _, sg := range result.AthleteSuggestions[0].Suggestions {
		assert.NotEqual(t, athlete.FieldNationality, sg.Field)
	}
}

func TestScanRecordsPerAthleteErrors(t *testing.T) {
	st := newFakeStore(
		athlete.Record{ID: "a1", Name: "Broken"},
		athlete.Record{ID: "a2", Name: "Missing"},
		athlete.Record{ID: "a3", Name: "Found"},
	)
	lk := &fakeLookup{
		errs: map[string]error{"Broken": errors.New("connection reset")},
		summaries: map[string]*external.Summary{
			"Found": {Extract: "Found is an English footballer."},
		},
	}

	result, err := newTestService(st, lk).Scan(context.Background(), admin, Target{IDs: []string{"a1", "a2", "a3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.SuggestionsFound)
	assert.Equal(t, []string{"Broken: lookup: connection reset"}, result.Errors)
	assert.Equal(t, "a3", result.AthleteSuggestions[0].AthleteID)
}

func TestScanSkipsCompleteRecords(t *testing.T) {
	st := newFakeStore(athlete.Record{
		ID: "a1", Name: "Complete", Nationality: "French", CountryOfOrigin: "France",
		Positions: []string{"Striker"}, ProfilePictureURL: wikimediaImage,
	})
	lk := &fakeLookup{}

	result, err := newTestService(st, lk).Scan(context.Background(), admin, Target{ID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Empty(t, lk.calls)
}

func TestScanAllIsCapped(t *testing.T) {
	var recs []athlete.Record
	for i := 0; i < 30; i++ {
		recs = append(recs, athlete.Record{ID: fmt.Sprintf("a%02d", i), Name: fmt.Sprintf("Player %d", i)})
	}
	st := newFakeStore(recs...)
	lk := &fakeLookup{}

	result, err := newTestService(st, lk).Scan(context.Background(), admin, Target{All: true})
	require.NoError(t, err)
	assert.Equal(t, MaxScanBatch, result.Processed)
	assert.Equal(t, MaxScanBatch, st.lastLimit)
	assert.Len(t, lk.calls, MaxScanBatch)
}

func TestScanIDsAreTruncated(t *testing.T) {
	var recs []athlete.Record
	var ids []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("a%02d", i)
		recs = append(recs, athlete.Record{ID: id, Name: id})
		ids = append(ids, id)
	}
	st := newFakeStore(recs...)

	result, err := newTestService(st, &fakeLookup{}).Scan(context.Background(), admin, Target{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, MaxScanBatch, result.Processed)
}

func TestScanFatalErrors(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Someone"})
	svc := newTestService(st, &fakeLookup{})
	ctx := context.Background()

	_, err := svc.Scan(ctx, auth.Caller{}, Target{ID: "a1"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.Scan(ctx, auth.Caller{UserID: "u2"}, Target{ID: "a1"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Scan(ctx, admin, Target{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.Scan(ctx, admin, Target{ID: "a1", All: true})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.Scan(ctx, admin, Target{ID: "nope"})
	assert.ErrorIs(t, err, errNoSuchAthlete)
}

func TestScanCanceledContext(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Someone"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(st, &fakeLookup{}).Scan(ctx, admin, Target{ID: "a1"})
	assert.ErrorIs(t, err, context.Canceled)
}

// --------------------------------------------------------------------------
// ApplySuggestions
// --------------------------------------------------------------------------

func TestApplySuggestionsIsIdempotent(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Someone"})
	svc := newTestService(st, &fakeLookup{})
	suggestions := []Suggestion{{Field: athlete.FieldNationality, SuggestedValue: "Brazilian"}}

	first, err := svc.ApplySuggestions(context.Background(), admin, "a1", suggestions)
	require.NoError(t, err)
	second, err := svc.ApplySuggestions(context.Background(), admin, "a1", suggestions)
	require.NoError(t, err)

	assert.Equal(t, []athlete.Field{athlete.FieldNationality}, first.AppliedFields)
	assert.Equal(t, first.AppliedFields, second.AppliedFields)
	assert.Equal(t, "Brazilian", st.records["a1"].Nationality)
}

func TestApplySuggestionsRevalidates(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Someone"})
	svc := newTestService(st, &fakeLookup{})

	result, err := svc.ApplySuggestions(context.Background(), admin, "a1", []Suggestion{
		{Field: athlete.FieldNationality, SuggestedValue: "professional footballer"},
		{Field: athlete.FieldProfilePictureURL, SuggestedValue: "placeholder"},
		{Field: athlete.FieldPositions, SuggestedValue: []string{"left", "42"}},
		{Field: athlete.FieldDateOfBirth, SuggestedValue: "1990-01-01"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.AppliedFields)
	assert.NotNil(t, result.AppliedFields)
	assert.Zero(t, st.updates)
}

func TestApplySuggestionsAfterJSONRoundTrip(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Someone"})
	svc := newTestService(st, &fakeLookup{})

	var suggestions []Suggestion
	require.NoError(t, json.Unmarshal([]byte(`[
		{"field": "positions", "suggested_value": ["center back", "goalkeeper", "Centre-back"]},
		{"field": "profile_picture_url", "suggested_value": "`+wikimediaImage+`"}
	]`), &suggestions))

	result, err := svc.ApplySuggestions(context.Background(), admin, "a1", suggestions)
	require.NoError(t, err)
	assert.Equal(t, []athlete.Field{athlete.FieldPositions, athlete.FieldProfilePictureURL}, result.AppliedFields)
	assert.Equal(t, []string{"Centre-back", "Goalkeeper"}, st.records["a1"].Positions)
	assert.Equal(t, wikimediaImage, st.records["a1"].ProfilePictureURL)
}

func TestApplySuggestionsErrors(t *testing.T) {
	st := newFakeStore(athlete.Record{ID: "a1", Name: "Someone"})
	svc := newTestService(st, &fakeLookup{})
	ctx := context.Background()
	suggestions := []Suggestion{{Field: athlete.FieldNationality, SuggestedValue: "Brazilian"}}

	_, err := svc.ApplySuggestions(ctx, auth.Caller{UserID: "u2"}, "a1", suggestions)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.ApplySuggestions(ctx, admin, "  ", suggestions)
	assert.Error(t, err)

	_, err = svc.ApplySuggestions(ctx, admin, "missing", suggestions)
	assert.ErrorIs(t, err, errNoSuchAthlete)
}
