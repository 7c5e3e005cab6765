package store

// PostgresSchema creates the tables the service reads and writes. The hosted
// database normally owns these; the DDL exists for local databases.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS athletes (
	id                  UUID PRIMARY KEY,
	name                TEXT NOT NULL,
	country_of_origin   TEXT,
	nationality         TEXT,
	positions           TEXT[],
	profile_picture_url TEXT,
	date_of_birth       DATE,
	date_of_death       DATE,
	is_active           BOOLEAN,
	career_start_year   INTEGER,
	career_end_year     INTEGER,
	clubs               TEXT[],
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_athletes_name ON athletes (name);

CREATE TABLE IF NOT EXISTS user_roles (
	user_id TEXT NOT NULL,
	role    TEXT NOT NULL,
	PRIMARY KEY (user_id, role)
);
`

// sqliteSchema mirrors PostgresSchema. Arrays are stored as JSON text and
// dates as YYYY-MM-DD text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS athletes (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	country_of_origin   TEXT,
	nationality         TEXT,
	positions           TEXT,
	profile_picture_url TEXT,
	date_of_birth       TEXT,
	date_of_death       TEXT,
	is_active           INTEGER,
	career_start_year   INTEGER,
	career_end_year     INTEGER,
	clubs               TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_athletes_name ON athletes (name);

CREATE TABLE IF NOT EXISTS user_roles (
	user_id TEXT NOT NULL,
	role    TEXT NOT NULL,
	PRIMARY KEY (user_id, role)
);
`
