package response

import (
	"time"

	"github.com/user/site-mirror/internal/entity"
)

type SubmitMirrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// MirrorRunResponse is a DTO for a mirror run, mirroring entity.MirrorRun
type MirrorRunResponse struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	OnlyHost   string     `json:"only_host,omitempty"`
	OutputRoot string     `json:"output_root"`
	Phase      string     `json:"phase"` // idle, running, rendering, ..., done, failed
	Pages      int        `json:"pages"`
	Assets     int        `json:"assets"`
	Failures   int        `json:"failures"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func NewMirrorRunResponse(run *entity.MirrorRun) MirrorRunResponse {
	return MirrorRunResponse{
		ID:         run.ID,
		URL:        run.Seed,
		OnlyHost:   run.OnlyHost,
		OutputRoot: run.OutputRoot,
		Phase:      string(run.Phase),
		Pages:      run.Pages,
		Assets:     run.Assets,
		Failures:   run.Failures,
		Skipped:    run.Skipped,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
