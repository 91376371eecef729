package memory

import (
	"context"

	"github.com/user/site-mirror/internal/repository"
)

// RunStateStoreImpl hands out fresh in-process state for every run.
type RunStateStoreImpl struct{}

// NewRunStateStore creates an in-memory run state store.
func NewRunStateStore() *RunStateStoreImpl {
	return &RunStateStoreImpl{}
}

// Open returns a new visited set and frontier.
func (s *RunStateStoreImpl) Open(_ context.Context, _ string) (repository.VisitedRepository, repository.FrontierRepository, error) {
	return NewVisitedRepo(), NewFrontierRepo(), nil
}

// Discard is a no-op; the state is garbage collected with the run.
func (s *RunStateStoreImpl) Discard(_ context.Context, _ string) error {
	return nil
}
