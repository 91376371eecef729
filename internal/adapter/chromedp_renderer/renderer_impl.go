package chromedp_renderer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/user/site-mirror/internal/repository"
)

// Options configures the headless browser.
type Options struct {
	Headless        bool
	UserAgent       string
	PageLoadTimeout time.Duration // 0 disables the per-navigation timeout
	ExecPath        string        // empty lets chromedp find Chrome
}

// RendererImpl renders pages in headless Chrome through chromedp.
type RendererImpl struct {
	opts Options
}

// NewRenderer creates a renderer. No browser is started until Launch.
func NewRenderer(opts Options) *RendererImpl {
	return &RendererImpl{opts: opts}
}

// Launch starts a browser with a single tab that is reused for every page.
func (r *RendererImpl) Launch(ctx context.Context) (repository.RenderSession, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.UserAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(r.opts.UserAgent))
	}
	if r.opts.ExecPath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(r.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logf(slog.LevelDebug)), chromedp.WithErrorf(logf(slog.LevelWarn)))

	slog.Info("Launching browser...", "headless", r.opts.Headless)
	// Run with no actions starts the browser and opens the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &session{
		tabCtx:  tabCtx,
		timeout: r.opts.PageLoadTimeout,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}, nil
}

func logf(level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		slog.Log(context.Background(), level, fmt.Sprintf(format, args...), "component", "chromedp")
	}
}

type session struct {
	tabCtx    context.Context
	timeout   time.Duration
	cancel    func()
	closeOnce sync.Once
}

// run executes actions in the tab, bounded by ctx and the optional timeout.
func (s *session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *session) Open(ctx context.Context, url string) (repository.Page, error) {
	slog.Info("Navigating...", "url", url)
	if err := s.run(ctx, s.timeout, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	return &page{session: s, url: url}, nil
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		slog.Info("Closing browser...")
		s.cancel()
	})
	return nil
}

type page struct {
	session *session
	url     string
}

func (p *page) URL() string { return p.url }

const serializeDocument = `(document.doctype ? new XMLSerializer().serializeToString(document.doctype) : "") + document.documentElement.outerHTML`

// Content returns the doctype plus the outer HTML of the live DOM.
func (p *page) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.session.run(ctx, p.session.timeout, chromedp.Evaluate(serializeDocument, &html)); err != nil {
		return "", fmt.Errorf("read content of %s: %w", p.url, err)
	}
	return html, nil
}

func (p *page) Query(ctx context.Context, selector string) ([]repository.Element, error) {
	var nodes []*cdp.Node
	err := p.session.run(ctx, p.session.timeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("query %q on %s: %w", selector, p.url, err)
	}
	elements := make([]repository.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &element{page: p, node: n})
	}
	return elements, nil
}

type element struct {
	page *page
	node *cdp.Node
}

// Property reads the JavaScript property (not the attribute), so href and src
// are already absolute.
func (e *element) Property(ctx context.Context, name string) (string, error) {
	var value any
	err := e.page.session.run(ctx, e.page.session.timeout,
		chromedp.JavascriptAttribute([]cdp.NodeID{e.node.NodeID}, name, &value, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("read property %s: %w", name, err)
	}
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}
