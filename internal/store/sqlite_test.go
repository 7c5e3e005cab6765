package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "athletes.db"), nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func boolPtr(b bool) *bool { return &b }

func TestSQLite_BulkUpsertInsertsNewNames(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	result, err := s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "John Smith", Nationality: "English", Positions: []string{"Striker"}, DateOfBirth: "1990-01-02"},
		{Name: "Jane Doe", IsActive: boolPtr(true)},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.InsertedCount)
	assert.Empty(t, result.Errors)

	names, err := s.ExistingNames(ctx, []string{"John Smith", "Nobody"})
	require.NoError(t, err)
	require.Contains(t, names, "John Smith")
	assert.NotContains(t, names, "Nobody")

	rec, err := s.Get(ctx, names["John Smith"])
	require.NoError(t, err)
	assert.Equal(t, "English", rec.Nationality)
	assert.Equal(t, []string{"Striker"}, rec.Positions)
	assert.Equal(t, "1990-01-02", rec.DateOfBirth)
	assert.Nil(t, rec.IsActive)
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestSQLite_BulkUpsertSkipsOrUpdatesExisting(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.BulkUpsert(ctx, []athlete.Candidate{{Name: "John Smith", Nationality: "English"}}, false)
	require.NoError(t, err)

	skipped, err := s.BulkUpsert(ctx, []athlete.Candidate{{Name: "John Smith", Nationality: "Scottish"}}, false)
	require.NoError(t, err)
	assert.Equal(t, athlete.ImportResult{SkippedCount: 1, Errors: []string{}}, skipped)

	updated, err := s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "John Smith", CountryOfOrigin: "Scotland"},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UpdatedCount)

	names, err := s.ExistingNames(ctx, []string{"John Smith"})
	require.NoError(t, err)
	rec, err := s.Get(ctx, names["John Smith"])
	require.NoError(t, err)
	assert.Equal(t, "Scotland", rec.CountryOfOrigin)
	assert.Equal(t, "English", rec.Nationality, "empty incoming values keep stored data")
}

func TestSQLite_BulkUpsertRowFailureIsIsolated(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	result, err := s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "Good One"},
		{Name: "Bad Date", DateOfBirth: "02/01/1990"},
		{Name: "Good Two"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.InsertedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 2 (Bad Date)")

	names, err := s.ExistingNames(ctx, []string{"Good One", "Bad Date", "Good Two"})
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestSQLite_BulkUpsertRepeatedNameInBatch(t *testing.T) {
	s := newTestSQLite(t)

	result, err := s.BulkUpsert(context.Background(), []athlete.Candidate{
		{Name: "Twin"},
		{Name: "Twin"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.InsertedCount)
	assert.Equal(t, 1, result.SkippedCount)
}

func TestSQLite_ListIncompleteAndUpdateFields(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "Complete", CountryOfOrigin: "Brazil", Nationality: "Brazilian",
			Positions: []string{"Striker"}, ProfilePictureURL: "https://upload.wikimedia.org/a.jpg"},
		{Name: "Partial", Nationality: "Brazilian"},
	}, false)
	require.NoError(t, err)

	incomplete, err := s.ListIncomplete(ctx, 20)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, "Partial", incomplete[0].Name)

	country := "Brazil"
	err = s.UpdateFields(ctx, incomplete[0].ID, athlete.Update{
		CountryOfOrigin: &country,
		Positions:       []string{"Defender"},
	})
	require.NoError(t, err)

	rec, err := s.Get(ctx, incomplete[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Brazil", rec.CountryOfOrigin)
	assert.Equal(t, "Brazilian", rec.Nationality)
	assert.Equal(t, []string{"Defender"}, rec.Positions)
}

func TestSQLite_ListIncompleteTreatsBlankAsMissing(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "Blank Nationality", CountryOfOrigin: "Brazil", Nationality: "Brazilian",
			Positions: []string{"Striker"}, ProfilePictureURL: "https://upload.wikimedia.org/a.jpg"},
	}, false)
	require.NoError(t, err)

	incomplete, err := s.ListIncomplete(ctx, 20)
	require.NoError(t, err)
	require.Empty(t, incomplete)

	names, err := s.ExistingNames(ctx, []string{"Blank Nationality"})
	require.NoError(t, err)
	blank := "   "
	require.NoError(t, s.UpdateFields(ctx, names["Blank Nationality"], athlete.Update{Nationality: &blank}))

	incomplete, err = s.ListIncomplete(ctx, 20)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, "Blank Nationality", incomplete[0].Name)
	assert.True(t, incomplete[0].NeedsEnrichment())
}

func TestSQLite_BulkUpsertDedupesPositions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "A", Positions: []string{"Striker", "Striker", " striker ", "Winger"}},
	}, false)
	require.NoError(t, err)
	_, err = s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "A", Positions: []string{"Winger", "winger"}},
	}, false)
	require.NoError(t, err)

	names, err := s.ExistingNames(ctx, []string{"A"})
	require.NoError(t, err)
	rec, err := s.Get(ctx, names["A"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Striker", "Winger"}, rec.Positions)

	_, err = s.BulkUpsert(ctx, []athlete.Candidate{
		{Name: "A", Positions: []string{"Winger", "winger"}},
	}, true)
	require.NoError(t, err)
	rec, err = s.Get(ctx, names["A"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Winger"}, rec.Positions)
}

func TestSQLite_UpdateFieldsUnknownID(t *testing.T) {
	s := newTestSQLite(t)
	v := "Brazil"
	err := s.UpdateFields(context.Background(), "missing", athlete.Update{CountryOfOrigin: &v})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_GetManyKeepsRequestOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.BulkUpsert(ctx, []athlete.Candidate{{Name: "A"}, {Name: "B"}, {Name: "C"}}, false)
	require.NoError(t, err)
	names, err := s.ExistingNames(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)

	records, err := s.GetMany(ctx, []string{names["C"], "missing", names["A"], names["B"]}, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "C", records[0].Name)
	assert.Equal(t, "A", records[1].Name)
}

func TestSQLite_IsAdmin(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ok, err := s.IsAdmin(ctx, "curator")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.GrantAdmin(ctx, "curator"))
	ok, err = s.IsAdmin(ctx, "curator")
	require.NoError(t, err)
	assert.True(t, ok)
}
