package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/user/site-mirror/internal/classifier"
	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/extractor"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/pkg/metrics"
	"github.com/user/site-mirror/pkg/utils"
)

// PageErrorPolicy decides what a failed page does to the run.
type PageErrorPolicy string

// Valid reports whether p is a known policy.
func (p PageErrorPolicy) Valid() bool {
	return p == PageErrorAbort || p == PageErrorSkip
}

const (
	// PageErrorAbort stops the run on the first failed page. This is the default.
	PageErrorAbort PageErrorPolicy = "abort"
	// PageErrorSkip records the failure and carries on with the frontier.
	PageErrorSkip PageErrorPolicy = "skip"
)

// Observer is notified on every phase transition of a run.
type Observer func(phase entity.RunPhase, report *entity.Report)

// RunContext is the state owned by a single run.
type RunContext struct {
	ID       string
	Scope    entity.ScopeConfig
	Phase    entity.RunPhase
	Visited  repository.VisitedRepository
	Frontier repository.FrontierRepository
	Session  repository.RenderSession
	Report   *entity.Report

	observe Observer
}

func (rc *RunContext) setPhase(p entity.RunPhase) {
	rc.Phase = p
	rc.Report.Phase = p
	if rc.observe != nil {
		rc.observe(p, rc.Report)
	}
}

// Mirror drives mirror runs. All per-run state lives in a RunContext.
type Mirror struct {
	renderer repository.Renderer
	fetcher  repository.Fetcher
	writer   repository.ContentWriter
	state    repository.RunStateStore
	outcomes repository.OutcomeRepository
	metrics  *metrics.Metrics
	policy   PageErrorPolicy
	maxPages int
	now      func() time.Time
}

// MirrorOption configures optional Mirror collaborators.
type MirrorOption func(*Mirror)

// WithPageErrorPolicy overrides the default abort policy.
func WithPageErrorPolicy(p PageErrorPolicy) MirrorOption {
	return func(m *Mirror) { m.policy = p }
}

// WithMaxPages stops the run after n pages have been attempted. 0 means no limit.
func WithMaxPages(n int) MirrorOption {
	return func(m *Mirror) { m.maxPages = n }
}

// WithOutcomeRepository records every outcome to repo.
func WithOutcomeRepository(repo repository.OutcomeRepository) MirrorOption {
	return func(m *Mirror) { m.outcomes = repo }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(mt *metrics.Metrics) MirrorOption {
	return func(m *Mirror) { m.metrics = mt }
}

// WithPolicy returns a copy of m that handles page failures with p.
func (m *Mirror) WithPolicy(p PageErrorPolicy) *Mirror {
	c := *m
	c.policy = p
	return &c
}

// NewMirror creates the orchestrator.
func NewMirror(
	renderer repository.Renderer,
	fetcher repository.Fetcher,
	writer repository.ContentWriter,
	state repository.RunStateStore,
	opts ...MirrorOption,
) *Mirror {
	m := &Mirror{
		renderer: renderer,
		fetcher:  fetcher,
		writer:   writer,
		state:    state,
		policy:   PageErrorAbort,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run mirrors scope.Seed until the frontier is empty. The returned report is
// never nil; on failure its phase is entity.PhaseFailed.
func (m *Mirror) Run(ctx context.Context, runID string, scope entity.ScopeConfig, observe Observer) (*entity.Report, error) {
	rc, err := m.Begin(ctx, runID, scope, observe)
	if err != nil {
		return rc.Report, err
	}

	for {
		more, stepErr := m.Step(ctx, rc)
		if stepErr != nil {
			err = stepErr
			break
		}
		if !more {
			break
		}
	}

	m.Finish(ctx, rc, err)
	return rc.Report, err
}

// Begin validates the seed, opens run state, launches the renderer and
// claims the seed. On error the returned context is already in PhaseFailed.
func (m *Mirror) Begin(ctx context.Context, runID string, scope entity.ScopeConfig, observe Observer) (*RunContext, error) {
	rc := &RunContext{
		ID:      runID,
		Scope:   scope,
		Phase:   entity.PhaseIdle,
		Report:  &entity.Report{RunID: runID, Phase: entity.PhaseIdle},
		observe: observe,
	}
	slog.Info("Starting to scrape", "run_id", runID, "url", scope.Seed, "only_host", scope.OnlyHost, "out", scope.OutputRoot)

	seed, err := NormalizeSeed(scope.Seed)
	if err != nil {
		m.Finish(ctx, rc, err)
		return rc, err
	}

	visited, frontier, err := m.state.Open(ctx, runID)
	if err != nil {
		err = fmt.Errorf("%w: open: %w", ErrState, err)
		m.Finish(ctx, rc, err)
		return rc, err
	}
	rc.Visited, rc.Frontier = visited, frontier

	if _, err := visited.TryClaim(ctx, seed); err != nil {
		err = fmt.Errorf("%w: claim seed: %w", ErrState, err)
		m.Finish(ctx, rc, err)
		return rc, err
	}
	if err := frontier.Push(ctx, seed); err != nil {
		err = fmt.Errorf("%w: push seed: %w", ErrState, err)
		m.Finish(ctx, rc, err)
		return rc, err
	}

	session, err := m.renderer.Launch(ctx)
	if err != nil {
		err = fmt.Errorf("launch renderer: %w", err)
		m.Finish(ctx, rc, err)
		return rc, err
	}
	rc.Session = session

	rc.setPhase(entity.PhaseRunning)
	return rc, nil
}

// NormalizeSeed parses a seed URL and reduces it to its page form.
func NormalizeSeed(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if s := strings.ToLower(u.Scheme); (s != "http" && s != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) url", ErrInvalidSeed, raw)
	}
	return classifier.NormalizePage(u), nil
}

// Step processes one page from the frontier. It returns false once there is
// nothing left to do. A non-nil error means the run must stop.
func (m *Mirror) Step(ctx context.Context, rc *RunContext) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if m.maxPages > 0 && len(rc.Report.Visited) >= m.maxPages {
		if size, err := rc.Frontier.Size(ctx); err == nil && size > 0 {
			rc.Report.Truncated = true
			slog.Warn("Page limit reached, leaving pages unvisited", "max_pages", m.maxPages, "pending", size)
		}
		return false, nil
	}

	pageURL, ok, err := rc.Frontier.Pop(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: pop: %w", ErrState, err)
	}
	if !ok {
		return false, nil
	}
	rc.Report.Visited = append(rc.Report.Visited, pageURL)

	if rendered, err := m.processPage(ctx, rc, pageURL); err != nil {
		// A page that was already recorded as rendered only fails on run
		// state during dispatch, which aborts below.
		if !rendered {
			m.record(ctx, rc, entity.DiscoveryOutcome{
				PageURL:  pageURL,
				URL:      pageURL,
				Role:     entity.RolePageLink,
				Category: entity.CategoryPage,
				Kind:     entity.OutcomeFailed,
				Reason:   err.Error(),
			})
			m.countPage("failure")
		}
		if m.policy == PageErrorAbort || errors.Is(err, ErrState) || ctx.Err() != nil {
			slog.Error("Page failed, aborting run", "url", pageURL, "error", err)
			return false, err
		}
		slog.Warn("Page failed, continuing with next page", "url", pageURL, "error", err)
	}

	m.updateFrontierSize(ctx, rc)
	rc.setPhase(entity.PhaseRunning)
	return true, nil
}

func (m *Mirror) processPage(ctx context.Context, rc *RunContext, pageURL string) (rendered bool, err error) {
	rc.setPhase(entity.PhaseRendering)
	slog.Info("Navigating to page", "url", pageURL)

	start := m.now()
	page, err := rc.Session.Open(ctx, pageURL)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	content, err := page.Content(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	if m.metrics != nil {
		m.metrics.RenderDuration.Observe(m.now().Sub(start).Seconds())
	}

	if _, err := m.writeContent(ctx, rc, pageURL, []byte(content)); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	rc.setPhase(entity.PhaseExtracting)
	resources, err := extractor.Extract(ctx, page)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	m.record(ctx, rc, entity.DiscoveryOutcome{
		PageURL:  pageURL,
		URL:      pageURL,
		Role:     entity.RolePageLink,
		Category: entity.CategoryPage,
		Kind:     entity.OutcomeRendered,
	})
	m.countPage("success")

	rc.setPhase(entity.PhaseDispatching)
	base, err := url.Parse(page.URL())
	if err != nil {
		base, _ = url.Parse(pageURL)
	}
	slog.Info("Getting urls on this page...", "url", pageURL)
	newPages := 0
	for _, c := range resources.Candidates() {
		kind, err := m.dispatch(ctx, rc, base, pageURL, c)
		if err != nil {
			return true, err
		}
		if kind == entity.OutcomeEnqueued {
			newPages++
		}
	}
	slog.Info(fmt.Sprintf("Found %d new urls...", newPages), "url", pageURL, "new_urls", newPages)
	return true, nil
}

// dispatch classifies, claims and handles one candidate. Only run state
// failures are returned as errors; everything else becomes an outcome.
func (m *Mirror) dispatch(ctx context.Context, rc *RunContext, base *url.URL, pageURL string, c extractor.Candidate) (entity.OutcomeKind, error) {
	d, err := classifier.Classify(c.Raw, c.Role, base, rc.Scope)
	outcome := entity.DiscoveryOutcome{
		PageURL:  pageURL,
		Raw:      c.Raw,
		URL:      d.URL,
		Role:     c.Role,
		Category: d.Category,
	}
	if err != nil {
		outcome.Kind = entity.OutcomeSkippedInvalid
		if classifier.IsOutOfScope(err) {
			outcome.Kind = entity.OutcomeSkippedOutOfScope
		}
		outcome.Reason = err.Error()
		slog.Debug("Skipping url", "raw", c.Raw, "role", c.Role.String(), "reason", err)
		m.record(ctx, rc, outcome)
		return outcome.Kind, nil
	}

	claimed, err := rc.Visited.TryClaim(ctx, d.URL)
	if err != nil {
		return "", fmt.Errorf("%w: claim %s: %w", ErrState, d.URL, err)
	}
	if !claimed {
		outcome.Kind = entity.OutcomeSkippedDuplicate
		m.record(ctx, rc, outcome)
		return outcome.Kind, nil
	}

	if d.Category == entity.CategoryPage {
		if err := rc.Frontier.Push(ctx, d.URL); err != nil {
			return "", fmt.Errorf("%w: push %s: %w", ErrState, d.URL, err)
		}
		outcome.Kind = entity.OutcomeEnqueued
		m.record(ctx, rc, outcome)
		return outcome.Kind, nil
	}

	slog.Info("Found new "+d.Category.String(), "url", d.URL)
	if err := m.download(ctx, rc, d.URL); err != nil {
		slog.Error("Asset download failed", "url", d.URL, "category", d.Category.String(), "error", err)
		outcome.Kind = entity.OutcomeFailed
		outcome.Reason = err.Error()
		m.countAsset(d.Category, "failure")
	} else {
		outcome.Kind = entity.OutcomeDownloaded
		m.countAsset(d.Category, "success")
	}
	m.record(ctx, rc, outcome)
	return outcome.Kind, nil
}

func (m *Mirror) download(ctx context.Context, rc *RunContext, assetURL string) error {
	body, err := m.fetcher.Fetch(ctx, assetURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResourceFetch, err)
	}
	if _, err := m.writeContent(ctx, rc, assetURL, body); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (m *Mirror) writeContent(ctx context.Context, rc *RunContext, rawURL string, content []byte) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return m.writer.Write(ctx, rc.Scope.OutputRoot, utils.Pathname(u), content)
}

// Finish releases the renderer and run state and moves to a terminal phase.
func (m *Mirror) Finish(ctx context.Context, rc *RunContext, runErr error) {
	cleanupCtx := context.WithoutCancel(ctx)

	if runErr == nil {
		rc.setPhase(entity.PhaseDraining)
	}
	if rc.Session != nil {
		if runErr != nil {
			slog.Info("Closing (exited because of error)...", "run_id", rc.ID)
		} else {
			slog.Info("Closing...", "run_id", rc.ID)
		}
		if err := rc.Session.Close(); err != nil {
			slog.Warn("Failed to close renderer session", "run_id", rc.ID, "error", err)
		}
		rc.Session = nil
	}
	if rc.Visited != nil {
		if err := m.state.Discard(cleanupCtx, rc.ID); err != nil {
			slog.Warn("Failed to discard run state", "run_id", rc.ID, "error", err)
		}
	}

	phase := entity.PhaseDone
	if runErr != nil {
		phase = entity.PhaseFailed
		slog.Error("Mirror run failed", "run_id", rc.ID, "error", runErr)
	} else {
		slog.Info("Mirror run finished", "run_id", rc.ID,
			"pages", rc.Report.Pages, "assets", rc.Report.Assets,
			"failures", rc.Report.Failures, "skipped", rc.Report.Skipped)
	}
	if m.metrics != nil {
		m.metrics.RunsTotal.WithLabelValues(string(phase)).Inc()
		m.metrics.FrontierSize.Set(0)
	}
	rc.setPhase(phase)
}

func (m *Mirror) record(ctx context.Context, rc *RunContext, o entity.DiscoveryOutcome) {
	o.RunID = rc.ID
	o.At = m.now()
	rc.Report.Record(o)
	if m.metrics != nil {
		m.metrics.DiscoveriesTotal.WithLabelValues(o.Category.String(), string(o.Kind)).Inc()
	}
	if m.outcomes != nil {
		if err := m.outcomes.Save(context.WithoutCancel(ctx), &o); err != nil {
			slog.Warn("Failed to record outcome", "url", o.URL, "kind", string(o.Kind), "error", err)
		}
	}
}

func (m *Mirror) countPage(status string) {
	if m.metrics != nil {
		m.metrics.PagesTotal.WithLabelValues(status).Inc()
	}
}

func (m *Mirror) countAsset(c entity.ResourceCategory, status string) {
	if m.metrics != nil {
		m.metrics.AssetsTotal.WithLabelValues(c.String(), status).Inc()
	}
}

func (m *Mirror) updateFrontierSize(ctx context.Context, rc *RunContext) {
	if m.metrics == nil {
		return
	}
	if size, err := rc.Frontier.Size(ctx); err == nil {
		m.metrics.FrontierSize.Set(float64(size))
	}
}
