package entity

// Report summarizes a finished (or aborted) mirror run.
type Report struct {
	RunID     string
	Phase     RunPhase
	Visited   []string // pages in the order they were popped, failed ones included
	Pages     int
	Assets    int
	Failures  int
	Skipped   int
	Truncated bool
	Outcomes  []DiscoveryOutcome
}

// Record appends an outcome and updates the counters.
func (r *Report) Record(o DiscoveryOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case OutcomeRendered:
		r.Pages++
	case OutcomeDownloaded:
		r.Assets++
	case OutcomeFailed:
		r.Failures++
	case OutcomeSkippedDuplicate, OutcomeSkippedInvalid, OutcomeSkippedOutOfScope:
		r.Skipped++
	}
}

// Partial reports whether the run finished with at least one failed resource.
func (r *Report) Partial() bool {
	return r.Phase == PhaseDone && r.Failures > 0
}

// OutcomesOf returns the outcomes of the given kind in recording order.
func (r *Report) OutcomesOf(kind OutcomeKind) []DiscoveryOutcome {
	var out []DiscoveryOutcome
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}
