package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs   []execCall
	execErr error
	row     fakeRow
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.row.sql = sql
	f.row.args = args
	return &f.row
}

type fakeRow struct {
	sql    string
	args   []any
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, EnsureSchema(context.Background(), db))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS mirror_runs")
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS mirror_outcomes")
}

func TestRunRepoSave(t *testing.T) {
	db := &fakeDB{}
	repo := NewRunRepo(db)
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := repo.Save(context.Background(), &entity.MirrorRun{
		ID:         "run-1",
		Seed:       "http://example.com/",
		OnlyHost:   "example.com",
		OutputRoot: "/tmp/out",
		Phase:      entity.PhaseDone,
		Pages:      2,
		Assets:     1,
		StartedAt:  started,
	})
	require.NoError(t, err)
	require.Len(t, db.execs, 1)
	assert.True(t, strings.Contains(db.execs[0].sql, "ON CONFLICT (id) DO UPDATE"))
	assert.Equal(t, "run-1", db.execs[0].args[0])
	assert.Equal(t, "done", db.execs[0].args[4])
	assert.Equal(t, 2, db.execs[0].args[5])
	assert.Equal(t, started, db.execs[0].args[10])
}

func TestRunRepoFindByID(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(time.Minute)
	db := &fakeDB{row: fakeRow{values: []any{
		"run-1", "http://example.com/", "", "/tmp/out", "done",
		2, 1, 0, 3, "", started, &finished,
	}}}
	repo := NewRunRepo(db)

	run, err := repo.FindByID(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []any{"run-1"}, db.row.args)
	assert.Equal(t, entity.PhaseDone, run.Phase)
	assert.Equal(t, 2, run.Pages)
	assert.Equal(t, 3, run.Skipped)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, finished, *run.FinishedAt)
}

func TestRunRepoFindByIDNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	_, err := NewRunRepo(db).FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

func TestOutcomeRepoSave(t *testing.T) {
	db := &fakeDB{}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := NewOutcomeRepo(db).Save(context.Background(), &entity.DiscoveryOutcome{
		RunID:    "run-1",
		PageURL:  "http://example.com/",
		Raw:      "/style.css",
		URL:      "http://example.com/style.css",
		Role:     entity.RoleStylesheet,
		Category: entity.CategoryStylesheet,
		Kind:     entity.OutcomeDownloaded,
		At:       at,
	})
	require.NoError(t, err)
	require.Len(t, db.execs, 1)
	assert.Equal(t, []any{
		"run-1", "http://example.com/", "/style.css", "http://example.com/style.css",
		"stylesheet", "stylesheet", "downloaded", "", at,
	}, db.execs[0].args)
}

func TestOutcomeRepoSavePropagatesError(t *testing.T) {
	db := &fakeDB{execErr: errors.New("connection reset")}
	err := NewOutcomeRepo(db).Save(context.Background(), &entity.DiscoveryOutcome{RunID: "run-1"})
	assert.EqualError(t, err, "connection reset")
}
