package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the repositories.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS mirror_runs (
	id          TEXT PRIMARY KEY,
	seed        TEXT NOT NULL,
	only_host   TEXT NOT NULL DEFAULT '',
	output_root TEXT NOT NULL,
	phase       TEXT NOT NULL,
	pages       INTEGER NOT NULL DEFAULT 0,
	assets      INTEGER NOT NULL DEFAULT 0,
	failures    INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS mirror_outcomes (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL,
	page_url    TEXT NOT NULL,
	raw         TEXT NOT NULL,
	url         TEXT NOT NULL,
	role        TEXT NOT NULL,
	category    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS mirror_outcomes_run_id_idx ON mirror_outcomes (run_id);
`

// EnsureSchema creates the tables used by the repositories if they are missing.
func EnsureSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, schema)
	return err
}
