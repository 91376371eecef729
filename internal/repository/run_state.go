package repository

import "context"

// RunStateStore hands out the visited registry and frontier for one run.
// State lives only for the duration of the run.
type RunStateStore interface {
	Open(ctx context.Context, runID string) (VisitedRepository, FrontierRepository, error)
	// Discard drops everything stored for runID.
	Discard(ctx context.Context, runID string) error
}
