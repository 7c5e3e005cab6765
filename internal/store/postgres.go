package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wodagoat/wodagoat-data/internal/athlete"
	"github.com/wodagoat/wodagoat-data/internal/db"
)

// Postgres is the production Store over a pgx pool.
type Postgres struct {
	pool   *db.Pool
	logger *slog.Logger
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *db.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

// MigratePostgres applies PostgresSchema over a plain connection. The pool
// cannot be used before the tables exist because it prepares statements
// against them on connect.
func MigratePostgres(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.HealthCheck(ctx) }

func (p *Postgres) Close() { p.pool.Close() }

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

func (p *Postgres) Get(ctx context.Context, id string) (athlete.Record, error) {
	rec, err := scanPgRecord(p.pool.QueryRow(ctx, db.StmtAthleteByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return athlete.Record{}, ErrNotFound
	}
	if err != nil {
		return athlete.Record{}, fmt.Errorf("query athlete: %w", err)
	}
	return rec, nil
}

func (p *Postgres) GetMany(ctx context.Context, ids []string, limit int) ([]athlete.Record, error) {
	if len(ids) == 0 {
		return []athlete.Record{}, nil
	}
	rows, err := p.pool.Query(ctx, db.StmtAthletesByIDs, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("query athletes: %w", err)
	}
	return collectPgRecords(rows)
}

func (p *Postgres) ListIncomplete(ctx context.Context, limit int) ([]athlete.Record, error) {
	rows, err := p.pool.Query(ctx, db.StmtAthletesIncomplete, limit)
	if err != nil {
		return nil, fmt.Errorf("query incomplete athletes: %w", err)
	}
	return collectPgRecords(rows)
}

func (p *Postgres) ExistingNames(ctx context.Context, names []string) (map[string]string, error) {
	return pgExistingNames(ctx, p.pool, uniqueNames(names))
}

func (p *Postgres) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var ok bool
	if err := p.pool.QueryRow(ctx, db.StmtUserIsAdmin, userID, roleAdmin).Scan(&ok); err != nil {
		return false, fmt.Errorf("query role: %w", err)
	}
	return ok, nil
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// GrantAdmin records the administrator role for a user.
func (p *Postgres) GrantAdmin(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx,
		"INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING", userID, roleAdmin)
	if err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}

// UpdateFields sets only the fields present on u.
func (p *Postgres) UpdateFields(ctx context.Context, id string, u athlete.Update) error {
	if u.IsEmpty() {
		return nil
	}
	args := []interface{}{id}
	var sets []string
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.CountryOfOrigin != nil {
		set("country_of_origin", *u.CountryOfOrigin)
	}
	if u.Nationality != nil {
		set("nationality", *u.Nationality)
	}
	if u.Positions != nil {
		set("positions", athlete.DedupePositions(u.Positions))
	}
	if u.ProfilePictureURL != nil {
		set("profile_picture_url", *u.ProfilePictureURL)
	}
	sets = append(sets, "updated_at = NOW()")

	tag, err := p.pool.Exec(ctx,
		"UPDATE athletes SET "+strings.Join(sets, ", ")+" WHERE id::text = $1", args...)
	if err != nil {
		return fmt.Errorf("update athlete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpsert runs the whole batch in one transaction with a savepoint per
// row, so a failed row rolls back alone.
func (p *Postgres) BulkUpsert(ctx context.Context, rows []athlete.Candidate, updateMode bool) (athlete.ImportResult, error) {
	result := athlete.ImportResult{Errors: []string{}}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := pgExistingNames(ctx, tx, uniqueNames(candidateNames(rows)))
	if err != nil {
		return result, err
	}

	for i, c := range rows {
		id, exists := existing[c.Name]
		if exists && !updateMode {
			result.SkippedCount++
			continue
		}

		sp, err := tx.Begin(ctx) // savepoint
		if err != nil {
			return result, fmt.Errorf("savepoint row %d: %w", i+1, err)
		}
		if exists {
			err = pgUpdateFromCandidate(ctx, sp, id, c)
		} else {
			id = uuid.NewString()
			err = pgInsertCandidate(ctx, sp, id, c)
		}
		if err != nil {
			_ = sp.Rollback(ctx)
			rowError(&result, i, c.Name, err)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			rowError(&result, i, c.Name, err)
			continue
		}

		if exists {
			result.UpdatedCount++
		} else {
			result.InsertedCount++
			existing[c.Name] = id
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return athlete.ImportResult{}, fmt.Errorf("commit tx: %w", err)
	}
	p.logger.Info("Bulk upsert complete", "rows", len(rows), "update_mode", updateMode, "summary", result.Summary())
	return result, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// querier is satisfied by the pool and by transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgExistingNames maps names to ids; the oldest record wins on duplicates.
func pgExistingNames(ctx context.Context, q querier, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, db.StmtAthleteIDsByName, names)
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

func pgInsertCandidate(ctx context.Context, tx pgx.Tx, id string, c athlete.Candidate) error {
	dob, dod, err := candidateDates(c)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO athletes (id, name, country_of_origin, nationality, positions,
			profile_picture_url, date_of_birth, date_of_death, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::date, $9, NOW())`,
		id, c.Name, nilEmpty(c.CountryOfOrigin), nilEmpty(c.Nationality), nilSlice(athlete.DedupePositions(c.Positions)),
		nilEmpty(c.ProfilePictureURL), dob, dod, c.IsActive,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// pgUpdateFromCandidate overwrites stored columns with the non-empty incoming
// values; empty incoming values keep what is stored.
func pgUpdateFromCandidate(ctx context.Context, tx pgx.Tx, id string, c athlete.Candidate) error {
	dob, dod, err := candidateDates(c)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE athletes SET
			country_of_origin   = COALESCE($2, country_of_origin),
			nationality         = COALESCE($3, nationality),
			positions           = COALESCE($4, positions),
			profile_picture_url = COALESCE($5, profile_picture_url),
			date_of_birth       = COALESCE($6::date, date_of_birth),
			date_of_death       = COALESCE($7::date, date_of_death),
			is_active           = COALESCE($8, is_active),
			updated_at          = NOW()
		WHERE id::text = $1`,
		id, nilEmpty(c.CountryOfOrigin), nilEmpty(c.Nationality), nilSlice(athlete.DedupePositions(c.Positions)),
		nilEmpty(c.ProfilePictureURL), dob, dod, c.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func collectPgRecords(rows pgx.Rows) ([]athlete.Record, error) {
	defer rows.Close()
	out := []athlete.Record{}
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanPgRecord scans one row selected with db.AthleteColumns.
func scanPgRecord(row pgx.Row) (athlete.Record, error) {
	var rec athlete.Record
	var country, nationality, picture, dob, dod *string
	err := row.Scan(
		&rec.ID, &rec.Name, &country, &nationality, &rec.Positions,
		&picture, &dob, &dod,
		&rec.IsActive, &rec.CareerStartYear, &rec.CareerEndYear, &rec.Clubs, &rec.UpdatedAt,
	)
	if err != nil {
		return athlete.Record{}, err
	}
	rec.CountryOfOrigin = deref(country)
	rec.Nationality = deref(nationality)
	rec.ProfilePictureURL = deref(picture)
	rec.DateOfBirth = deref(dob)
	rec.DateOfDeath = deref(dod)
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nilSlice maps an empty slice to SQL NULL.
func nilSlice(s []string) interface{} {
	if len(s) == 0 {
		return nil
	}
	return s
}
