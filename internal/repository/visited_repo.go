package repository

import "context"

// VisitedRepository tracks the normalized URLs a run has claimed.
type VisitedRepository interface {
	// TryClaim records url and returns true if it was not claimed before,
	// false otherwise. Check and insert happen atomically.
	TryClaim(ctx context.Context, url string) (bool, error)
}
