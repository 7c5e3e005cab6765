package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
)

const sqliteColumns = `id, name, country_of_origin, nationality, positions, profile_picture_url,
	date_of_birth, date_of_death, is_active, career_start_year, career_end_year, clubs, updated_at`

// nowUTC returns the current UTC time as an RFC 3339 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// SQLite is a Store backed by a local SQLite file (or ":memory:").
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and applies the schema.
// The parent directory is created when missing.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serializes writers, and ":memory:" is per
	// connection.
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: conn, logger: logger}, nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() { _ = s.db.Close() }

// GrantAdmin records the administrator role for a user.
func (s *SQLite) GrantAdmin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)", userID, roleAdmin)
	if err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

func (s *SQLite) Get(ctx context.Context, id string) (athlete.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteColumns+" FROM athletes WHERE id = ?", id)
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return athlete.Record{}, ErrNotFound
	}
	if err != nil {
		return athlete.Record{}, fmt.Errorf("query athlete: %w", err)
	}
	return rec, nil
}

// GetMany returns the records for ids in request order. Unknown ids are
// omitted.
func (s *SQLite) GetMany(ctx context.Context, ids []string, limit int) ([]athlete.Record, error) {
	if len(ids) == 0 {
		return []athlete.Record{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteColumns+" FROM athletes WHERE id IN ("+placeholders(len(ids))+")", toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query athletes: %w", err)
	}
	found, err := collectSQLiteRecords(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]athlete.Record, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]athlete.Record, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok && (limit <= 0 || len(out) < limit) {
			out = append(out, r)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *SQLite) ListIncomplete(ctx context.Context, limit int) ([]athlete.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sqliteColumns+` FROM athletes
		WHERE TRIM(COALESCE(country_of_origin, '')) = '' OR TRIM(COALESCE(nationality, '')) = ''
		   OR COALESCE(positions, '') IN ('', '[]', 'null') OR TRIM(COALESCE(profile_picture_url, '')) = ''
		ORDER BY name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query incomplete athletes: %w", err)
	}
	return collectSQLiteRecords(rows)
}

func (s *SQLite) ExistingNames(ctx context.Context, names []string) (map[string]string, error) {
	return sqliteExistingNames(ctx, s.db, uniqueNames(names))
}

func (s *SQLite) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role = ?", userID, roleAdmin).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query role: %w", err)
	}
	return n > 0, nil
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// UpdateFields sets only the fields present on u.
func (s *SQLite) UpdateFields(ctx context.Context, id string, u athlete.Update) error {
	if u.IsEmpty() {
		return nil
	}
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.CountryOfOrigin != nil {
		set("country_of_origin", *u.CountryOfOrigin)
	}
	if u.Nationality != nil {
		set("nationality", *u.Nationality)
	}
	if u.Positions != nil {
		set("positions", jsonList(athlete.DedupePositions(u.Positions)))
	}
	if u.ProfilePictureURL != nil {
		set("profile_picture_url", *u.ProfilePictureURL)
	}
	set("updated_at", nowUTC())
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE athletes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update athlete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpsert runs the whole batch in one transaction with a savepoint per
// row, so a failed row rolls back alone.
func (s *SQLite) BulkUpsert(ctx context.Context, rows []athlete.Candidate, updateMode bool) (athlete.ImportResult, error) {
	result := athlete.ImportResult{Errors: []string{}}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := sqliteExistingNames(ctx, tx, uniqueNames(candidateNames(rows)))
	if err != nil {
		return result, err
	}

	for i, c := range rows {
		id, exists := existing[c.Name]
		if exists && !updateMode {
			result.SkippedCount++
			continue
		}

		if _, err := tx.ExecContext(ctx, "SAVEPOINT import_row"); err != nil {
			return result, fmt.Errorf("savepoint row %d: %w", i+1, err)
		}
		if exists {
			err = sqliteUpdateFromCandidate(ctx, tx, id, c)
		} else {
			id = uuid.NewString()
			err = sqliteInsertCandidate(ctx, tx, id, c)
		}
		if err != nil {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO import_row"); rbErr != nil {
				return result, fmt.Errorf("rollback row %d: %w", i+1, rbErr)
			}
			_, _ = tx.ExecContext(ctx, "RELEASE import_row")
			rowError(&result, i, c.Name, err)
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE import_row"); err != nil {
			return result, fmt.Errorf("release row %d: %w", i+1, err)
		}

		if exists {
			result.UpdatedCount++
		} else {
			result.InsertedCount++
			existing[c.Name] = id
		}
	}

	if err := tx.Commit(); err != nil {
		return athlete.ImportResult{}, fmt.Errorf("commit tx: %w", err)
	}
	s.logger.Info("Bulk upsert complete", "rows", len(rows), "update_mode", updateMode, "summary", result.Summary())
	return result, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqliteExistingNames maps names to ids; the oldest record wins on duplicates.
func sqliteExistingNames(ctx context.Context, q sqlQuerier, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx,
		"SELECT id, name FROM athletes WHERE name IN ("+placeholders(len(names))+") ORDER BY created_at, rowid",
		toArgs(names)...)
	if err != nil {
		return nil, fmt.Errorf("query existing names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan existing name: %w", err)
		}
		if _, ok := out[name]; !ok {
			out[name] = id
		}
	}
	return out, rows.Err()
}

func sqliteInsertCandidate(ctx context.Context, tx *sql.Tx, id string, c athlete.Candidate) error {
	dob, dod, err := candidateDates(c)
	if err != nil {
		return err
	}
	now := nowUTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO athletes (id, name, country_of_origin, nationality, positions,
			profile_picture_url, date_of_birth, date_of_death, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, nilEmpty(c.CountryOfOrigin), nilEmpty(c.Nationality), jsonList(athlete.DedupePositions(c.Positions)),
		nilEmpty(c.ProfilePictureURL), dob, dod, nilBool(c.IsActive), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// sqliteUpdateFromCandidate overwrites stored columns with the non-empty
// incoming values; empty incoming values keep what is stored.
func sqliteUpdateFromCandidate(ctx context.Context, tx *sql.Tx, id string, c athlete.Candidate) error {
	dob, dod, err := candidateDates(c)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE athletes SET
			country_of_origin   = COALESCE(?, country_of_origin),
			nationality         = COALESCE(?, nationality),
			positions           = COALESCE(?, positions),
			profile_picture_url = COALESCE(?, profile_picture_url),
			date_of_birth       = COALESCE(?, date_of_birth),
			date_of_death       = COALESCE(?, date_of_death),
			is_active           = COALESCE(?, is_active),
			updated_at          = ?
		WHERE id = ?`,
		nilEmpty(c.CountryOfOrigin), nilEmpty(c.Nationality), jsonList(athlete.DedupePositions(c.Positions)),
		nilEmpty(c.ProfilePictureURL), dob, dod, nilBool(c.IsActive), nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func collectSQLiteRecords(rows *sql.Rows) ([]athlete.Record, error) {
	defer rows.Close()
	out := []athlete.Record{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (athlete.Record, error) {
	var (
		rec                                   athlete.Record
		country, nationality, picture         sql.NullString
		positions, clubs, dob, dod, updatedAt sql.NullString
		active                                sql.NullBool
		startYear, endYear                    sql.NullInt64
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &country, &nationality, &positions, &picture,
		&dob, &dod, &active, &startYear, &endYear, &clubs, &updatedAt,
	)
	if err != nil {
		return athlete.Record{}, err
	}
	rec.CountryOfOrigin = nullStr(country)
	rec.Nationality = nullStr(nationality)
	rec.ProfilePictureURL = nullStr(picture)
	rec.DateOfBirth = nullStr(dob)
	rec.DateOfDeath = nullStr(dod)
	if rec.Positions, err = parseJSONList(positions); err != nil {
		return athlete.Record{}, fmt.Errorf("positions: %w", err)
	}
	if rec.Clubs, err = parseJSONList(clubs); err != nil {
		return athlete.Record{}, fmt.Errorf("clubs: %w", err)
	}
	if active.Valid {
		v := active.Bool
		rec.IsActive = &v
	}
	if startYear.Valid {
		v := int(startYear.Int64)
		rec.CareerStartYear = &v
	}
	if endYear.Valid {
		v := int(endYear.Int64)
		rec.CareerEndYear = &v
	}
	if updatedAt.Valid {
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt.String)
	}
	return rec, nil
}

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// jsonList encodes a list column; empty lists are stored as NULL.
func jsonList(values []string) interface{} {
	if len(values) == 0 {
		return nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(b)
}

func parseJSONList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" || ns.String == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
