package entity

import "time"

// OutcomeKind is the terminal result for one discovered URL.
type OutcomeKind string

const (
	OutcomeEnqueued          OutcomeKind = "enqueued"
	OutcomeDownloaded        OutcomeKind = "downloaded"
	OutcomeRendered          OutcomeKind = "rendered"
	OutcomeSkippedOutOfScope OutcomeKind = "skipped_out_of_scope"
	OutcomeSkippedDuplicate  OutcomeKind = "skipped_duplicate"
	OutcomeSkippedInvalid    OutcomeKind = "skipped_invalid"
	OutcomeFailed            OutcomeKind = "failed"
)

// DiscoveryOutcome records what happened to a single discovered URL.
// Page-level results (rendered or failed pages) use RolePageLink with an empty Raw.
type DiscoveryOutcome struct {
	RunID    string
	PageURL  string // page the URL was discovered on
	Raw      string
	URL      string // normalized form, empty when classification failed
	Role     Role
	Category ResourceCategory
	Kind     OutcomeKind
	Reason   string
	At       time.Time
}
