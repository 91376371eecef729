package memory

import (
	"context"
	"sync"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

// RunRepoImpl keeps run records in a map. Used when no database is configured.
type RunRepoImpl struct {
	mu   sync.RWMutex
	runs map[string]entity.MirrorRun
}

// NewRunRepo creates an empty run repository.
func NewRunRepo() *RunRepoImpl {
	return &RunRepoImpl{runs: make(map[string]entity.MirrorRun)}
}

// Save stores a copy of run.
func (r *RunRepoImpl) Save(_ context.Context, run *entity.MirrorRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

// FindByID returns a copy of the stored run.
func (r *RunRepoImpl) FindByID(_ context.Context, id string) (*entity.MirrorRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	return &run, nil
}
