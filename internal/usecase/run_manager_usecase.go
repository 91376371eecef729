package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

var (
	ErrRunInProgress = errors.New("a mirror run for this url is already in progress")
	ErrInvalidPolicy = errors.New("on_page_error must be abort or skip")
	ErrShuttingDown  = errors.New("run manager is shutting down")
)

// MirrorRequest asks for a new mirror run.
type MirrorRequest struct {
	URL         string
	OnlyHost    string
	OnPageError PageErrorPolicy // empty keeps the configured policy
}

// RunManager defines the interface for submitting and checking mirror runs.
type RunManager interface {
	Submit(ctx context.Context, req MirrorRequest) (string, error)
	GetStatus(ctx context.Context, id string) (*entity.MirrorRun, error)
	// Shutdown cancels running mirrors and waits for them to finish.
	Shutdown(ctx context.Context) error
}

type runManagerUseCase struct {
	mirror     *Mirror
	runs       repository.RunRepository
	outputRoot string
	sem        *semaphore.Weighted

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[string]string // normalized seed -> run id
	closed bool

	newID func() string
	now   func() time.Time
}

// NewRunManager creates a RunManager. Every run writes below
// outputRoot/<run id> and at most maxConcurrency runs execute at once.
func NewRunManager(mirror *Mirror, runs repository.RunRepository, outputRoot string, maxConcurrency int) RunManager {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &runManagerUseCase{
		mirror:     mirror,
		runs:       runs,
		outputRoot: outputRoot,
		sem:        semaphore.NewWeighted(int64(maxConcurrency)),
		baseCtx:    ctx,
		cancel:     cancel,
		active:     make(map[string]string),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

func (uc *runManagerUseCase) Submit(ctx context.Context, req MirrorRequest) (string, error) {
	seed, err := NormalizeSeed(req.URL)
	if err != nil {
		return "", err
	}
	if req.OnPageError != "" && !req.OnPageError.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidPolicy, req.OnPageError)
	}

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return "", ErrShuttingDown
	}
	if id, ok := uc.active[seed]; ok {
		uc.mu.Unlock()
		return id, ErrRunInProgress
	}
	id := uc.newID()
	uc.active[seed] = id
	// Registered under mu so Shutdown cannot start waiting before this run counts.
	uc.wg.Add(1)
	uc.mu.Unlock()

	run := &entity.MirrorRun{
		ID:         id,
		Seed:       seed,
		OnlyHost:   req.OnlyHost,
		OutputRoot: filepath.Join(uc.outputRoot, id),
		Phase:      entity.PhaseIdle,
		StartedAt:  uc.now(),
	}
	if err := uc.runs.Save(ctx, run); err != nil {
		uc.release(seed)
		uc.wg.Done()
		return "", fmt.Errorf("save run %s: %w", id, err)
	}

	go uc.execute(run, req.OnPageError)

	slog.Info("Mirror run submitted", "run_id", id, "url", seed)
	return id, nil
}

func (uc *runManagerUseCase) execute(run *entity.MirrorRun, policy PageErrorPolicy) {
	defer uc.wg.Done()
	defer uc.release(run.Seed)

	if err := uc.sem.Acquire(uc.baseCtx, 1); err != nil {
		uc.finish(run, nil, err)
		return
	}
	defer uc.sem.Release(1)

	mirror := uc.mirror
	if policy != "" {
		mirror = mirror.WithPolicy(policy)
	}
	scope := entity.ScopeConfig{Seed: run.Seed, OnlyHost: run.OnlyHost, OutputRoot: run.OutputRoot}
	report, err := mirror.Run(uc.baseCtx, run.ID, scope, func(phase entity.RunPhase, report *entity.Report) {
		if phase != entity.PhaseRunning {
			return
		}
		applyReport(run, report)
		uc.save(run)
	})
	uc.finish(run, report, err)
}

func (uc *runManagerUseCase) finish(run *entity.MirrorRun, report *entity.Report, err error) {
	if report != nil {
		applyReport(run, report)
	}
	run.Phase = entity.PhaseDone
	if err != nil {
		run.Phase = entity.PhaseFailed
		run.Error = err.Error()
	}
	finished := uc.now()
	run.FinishedAt = &finished
	uc.save(run)
}

func (uc *runManagerUseCase) save(run *entity.MirrorRun) {
	if err := uc.runs.Save(context.WithoutCancel(uc.baseCtx), run); err != nil {
		slog.Error("Failed to save mirror run", "run_id", run.ID, "error", err)
	}
}

func (uc *runManagerUseCase) release(seed string) {
	uc.mu.Lock()
	delete(uc.active, seed)
	uc.mu.Unlock()
}

func applyReport(run *entity.MirrorRun, report *entity.Report) {
	run.Phase = report.Phase
	run.Pages = report.Pages
	run.Assets = report.Assets
	run.Failures = report.Failures
	run.Skipped = report.Skipped
}

func (uc *runManagerUseCase) GetStatus(ctx context.Context, id string) (*entity.MirrorRun, error) {
	return uc.runs.FindByID(ctx, id)
}

func (uc *runManagerUseCase) Shutdown(ctx context.Context) error {
	uc.mu.Lock()
	uc.closed = true
	uc.mu.Unlock()
	uc.cancel()

	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
