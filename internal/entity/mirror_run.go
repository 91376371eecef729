package entity

import "time"

// RunPhase is the orchestrator state for a mirror run.
type RunPhase string

const (
	PhaseIdle        RunPhase = "idle"
	PhaseRunning     RunPhase = "running"
	PhaseRendering   RunPhase = "rendering"
	PhaseExtracting  RunPhase = "extracting"
	PhaseDispatching RunPhase = "dispatching"
	PhaseDraining    RunPhase = "draining"
	PhaseDone        RunPhase = "done"
	PhaseFailed      RunPhase = "failed"
)

// Terminal reports whether no further transitions can happen.
func (p RunPhase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// MirrorRun mirrors the `mirror_runs` PostgreSQL table schema.
type MirrorRun struct {
	ID         string
	Seed       string
	OnlyHost   string
	OutputRoot string
	Phase      RunPhase
	Pages      int
	Assets     int
	Failures   int
	Skipped    int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}
