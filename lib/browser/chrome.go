package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const pollInterval = 100 * time.Millisecond

// ChromeLauncher launches a local chrome through chromedp.
type ChromeLauncher struct{}

func (ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.NoSandbox {
		allocOpts = append(
			allocOpts,
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// an empty run starts the browser process
	err := chromedp.Run(browserCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	return &chromeBrowser{
		ctx:         browserCtx,
		allocCancel: allocCancel,
	}, nil
}

type chromeBrowser struct {
	ctx         context.Context
	allocCancel context.CancelFunc

	mu          sync.Mutex
	pageCancels []context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

func (b *chromeBrowser) NewPage(ctx context.Context) (Page, error) {
	pageCtx, pageCancel := chromedp.NewContext(b.ctx)
	err := chromedp.Run(pageCtx, page.SetLifecycleEventsEnabled(true))
	if err != nil {
		pageCancel()
		return nil, fmt.Errorf("open page: %w", err)
	}
	b.mu.Lock()
	b.pageCancels = append(b.pageCancels, pageCancel)
	b.mu.Unlock()

	c := chromedp.FromContext(pageCtx)
	p := &chromePage{
		ctx:     pageCtx,
		frameID: cdp.FrameID(c.Target.TargetID),
		settled: map[string]uint64{},
		changed: make(chan struct{}),
	}
	chromedp.ListenTarget(pageCtx, p.onEvent)
	return p, nil
}

// Close gracefully shuts down chrome, it is safe to call more than once.
func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		for _, cancel := range b.pageCancels {
			cancel()
		}
		b.mu.Unlock()
		b.closeErr = chromedp.Cancel(b.ctx)
		b.allocCancel()
	})
	return b.closeErr
}

type chromePage struct {
	ctx     context.Context
	frameID cdp.FrameID

	mu sync.Mutex
	// documents is the amount of documents committed in the main frame
	documents uint64
	// settled maps a lifecycle event name to the document it was last fired for
	settled map[string]uint64
	// mark is the document count at the time of the last click
	mark    uint64
	changed chan struct{}
}

func (p *chromePage) onEvent(ev any) {
	lifecycle, ok := ev.(*page.EventLifecycleEvent)
	if !ok || lifecycle.FrameID != p.frameID {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if lifecycle.Name == "init" {
		p.documents++
	} else {
		p.settled[lifecycle.Name] = p.documents
	}
	close(p.changed)
	p.changed = make(chan struct{})
}

func (p *chromePage) currentDocument() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.documents
}

// waitSettled blocks until a document committed after `after` has fired the policy's lifecycle event.
func (p *chromePage) waitSettled(ctx context.Context, after uint64, wait Wait) error {
	ctx, cancel := WithTimeout(ctx, wait.Timeout)
	defer cancel()

	name := wait.Policy.lifecycleEvent()
	for {
		p.mu.Lock()
		done := p.documents > after && p.settled[name] == p.documents
		changed := p.changed
		p.mu.Unlock()
		if done {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return p.wrapErr(ctx, fmt.Errorf("wait for %s: %w", wait.Policy, ctx.Err()))
		}
	}
}

func (p *chromePage) wrapErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// run executes actions on the page's chromedp context while honoring the caller's
// deadline and cancellation.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		return p.wrapErr(runCtx, err)
	}
	return nil
}

func (p *chromePage) Goto(ctx context.Context, url string, wait Wait) error {
	ctx, cancel := WithTimeout(ctx, wait.Timeout)
	defer cancel()

	before := p.currentDocument()
	err := p.run(ctx, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return p.waitSettled(ctx, before, Wait{Policy: wait.Policy})
}

func (p *chromePage) Type(ctx context.Context, selector, text string) error {
	err := p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	p.mark = p.documents
	p.mu.Unlock()

	err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) WaitForNavigation(ctx context.Context, wait Wait) error {
	p.mu.Lock()
	mark := p.mark
	p.mu.Unlock()
	return p.waitSettled(ctx, mark, wait)
}

func (p *chromePage) Select(ctx context.Context, selector, value string) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	var dispatched bool
	err = p.run(
		ctx,
		chromedp.SetValue(selector, value, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(
			`document.querySelector(%s).dispatchEvent(new Event("change", {bubbles: true}))`,
			quoted,
		), &dispatched),
	)
	if err != nil {
		return fmt.Errorf("select %s in %s: %w", value, selector, err)
	}
	return nil
}

func (p *chromePage) WaitForCondition(ctx context.Context, predicate string, timeout time.Duration) error {
	ctx, cancel := WithTimeout(ctx, timeout)
	defer cancel()

	var satisfied bool
	opts := []chromedp.PollOption{chromedp.WithPollingInterval(pollInterval)}
	if timeout > 0 {
		opts = append(opts, chromedp.WithPollingTimeout(timeout))
	}
	err := p.run(ctx, chromedp.Poll(predicate, &satisfied, opts...))
	if err != nil {
		return fmt.Errorf("wait for condition: %w", err)
	}
	return nil
}

func (p *chromePage) WaitForSelector(ctx context.Context, selector string, visible bool, timeout time.Duration) error {
	ctx, cancel := WithTimeout(ctx, timeout)
	defer cancel()

	action := chromedp.WaitReady(selector, chromedp.ByQuery)
	if visible {
		action = chromedp.WaitVisible(selector, chromedp.ByQuery)
	}
	err := p.run(ctx, action)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Evaluate(ctx context.Context, expression string, out any) error {
	return p.run(ctx, chromedp.Evaluate(expression, out))
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}
