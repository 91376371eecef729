package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

// RunRepoImpl provides a concrete implementation for the RunRepository interface using PostgreSQL.
type RunRepoImpl struct {
	db DB
}

// NewRunRepo creates a new instance of RunRepoImpl.
func NewRunRepo(db DB) *RunRepoImpl {
	return &RunRepoImpl{db: db}
}

// Save stores or updates a run record.
func (r *RunRepoImpl) Save(ctx context.Context, run *entity.MirrorRun) error {
	query := `
		INSERT INTO mirror_runs (id, seed, only_host, output_root, phase, pages, assets, failures, skipped, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			phase = EXCLUDED.phase,
			pages = EXCLUDED.pages,
			assets = EXCLUDED.assets,
			failures = EXCLUDED.failures,
			skipped = EXCLUDED.skipped,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at;
	`
	_, err := r.db.Exec(ctx, query,
		run.ID,
		run.Seed,
		run.OnlyHost,
		run.OutputRoot,
		string(run.Phase),
		run.Pages,
		run.Assets,
		run.Failures,
		run.Skipped,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// FindByID retrieves a run record by id.
func (r *RunRepoImpl) FindByID(ctx context.Context, id string) (*entity.MirrorRun, error) {
	query := `
		SELECT id, seed, only_host, output_root, phase, pages, assets, failures, skipped, error, started_at, finished_at
		FROM mirror_runs
		WHERE id = $1;
	`
	var run entity.MirrorRun
	var phase string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Seed,
		&run.OnlyHost,
		&run.OutputRoot,
		&phase,
		&run.Pages,
		&run.Assets,
		&run.Failures,
		&run.Skipped,
		&run.Error,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Phase = entity.RunPhase(phase)
	return &run, nil
}
