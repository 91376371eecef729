package memory

import (
	"context"
	"sync"
)

// VisitedRepoImpl is an in-process visited set.
type VisitedRepoImpl struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedRepo creates an empty visited set.
func NewVisitedRepo() *VisitedRepoImpl {
	return &VisitedRepoImpl{seen: make(map[string]struct{})}
}

// TryClaim records url unless it was already claimed.
func (r *VisitedRepoImpl) TryClaim(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[url]; ok {
		return false, nil
	}
	r.seen[url] = struct{}{}
	return true, nil
}

// Len returns the number of claimed URLs.
func (r *VisitedRepoImpl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
