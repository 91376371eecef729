package repository

import (
	"context"
	"errors"

	"github.com/user/site-mirror/internal/entity"
)

var ErrRunNotFound = errors.New("mirror run not found")

// RunRepository stores mirror run records.
type RunRepository interface {
	// Save creates or updates the run record.
	Save(ctx context.Context, run *entity.MirrorRun) error
	// FindByID returns ErrRunNotFound when no run has the id.
	FindByID(ctx context.Context, id string) (*entity.MirrorRun, error)
}

// OutcomeRepository stores per-discovery outcomes for later inspection.
type OutcomeRepository interface {
	Save(ctx context.Context, outcome *entity.DiscoveryOutcome) error
}
