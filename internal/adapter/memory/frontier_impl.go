package memory

import (
	"context"
	"sync"
)

// FrontierRepoImpl is an in-process LIFO frontier.
type FrontierRepoImpl struct {
	mu    sync.Mutex
	stack []string
}

// NewFrontierRepo creates an empty frontier.
func NewFrontierRepo() *FrontierRepoImpl {
	return &FrontierRepoImpl{}
}

// Push adds url on top of the stack.
func (r *FrontierRepoImpl) Push(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = append(r.stack, url)
	return nil
}

// Pop removes the most recently pushed url.
func (r *FrontierRepoImpl) Pop(_ context.Context) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.stack)
	if n == 0 {
		return "", false, nil
	}
	url := r.stack[n-1]
	r.stack = r.stack[:n-1]
	return url, true, nil
}

// Size returns the number of pending URLs.
func (r *FrontierRepoImpl) Size(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.stack)), nil
}
