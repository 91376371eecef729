package usecase

import "errors"

var (
	ErrInvalidSeed   = errors.New("invalid seed url")
	ErrNavigation    = errors.New("page navigation failed")
	ErrExtraction    = errors.New("resource extraction failed")
	ErrPersist       = errors.New("writing content failed")
	ErrResourceFetch = errors.New("resource fetch failed")
	// ErrState marks failures of the visited registry or frontier backend.
	// They abort the run whatever the page error policy says.
	ErrState = errors.New("run state unavailable")
)
