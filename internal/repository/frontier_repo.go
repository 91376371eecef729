package repository

import "context"

// FrontierRepository is the pending-page stack of a run. Pop returns the most
// recently pushed URL, which makes the traversal depth-first.
type FrontierRepository interface {
	// Push adds a page URL on top of the stack.
	Push(ctx context.Context, url string) error
	// Pop removes and returns the top URL. ok is false when the frontier is empty.
	Pop(ctx context.Context) (url string, ok bool, err error)
	// Size returns the current number of pending URLs.
	Size(ctx context.Context) (int64, error)
}
