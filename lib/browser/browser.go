// Package browser is the browser automation capability the portal scrapers drive.
//
// Scrapers only ever see the Launcher, Browser and Page interfaces, the chromedp backed
// implementation lives in chrome.go and tests are free to substitute their own pages.
package browser

import (
	"context"
	"errors"
	"time"
)

// WaitPolicy decides when a navigation is considered settled.
type WaitPolicy string

const (
	WaitLoad             WaitPolicy = "load"
	WaitDOMContentLoaded WaitPolicy = "domcontentloaded"
	// WaitNetworkIdle settles once there have been no network connections for 500ms.
	WaitNetworkIdle WaitPolicy = "networkidle0"
	// WaitNetworkAlmostIdle settles once there have been at most 2 network connections for 500ms.
	WaitNetworkAlmostIdle WaitPolicy = "networkidle2"
)

// Valid reports whether p is one of the known policies.
func (p WaitPolicy) Valid() bool {
	switch p {
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle, WaitNetworkAlmostIdle:
		return true
	}
	return false
}

// lifecycleEvent returns the name of the chrome page lifecycle event matching the policy.
func (p WaitPolicy) lifecycleEvent() string {
	switch p {
	case WaitDOMContentLoaded:
		return "DOMContentLoaded"
	case WaitNetworkIdle:
		return "networkIdle"
	case WaitNetworkAlmostIdle:
		return "networkAlmostIdle"
	default:
		return "load"
	}
}

// Wait is a wait policy bounded by a timeout, a zero timeout means only the
// caller's context bounds the wait.
type Wait struct {
	Policy  WaitPolicy
	Timeout time.Duration
}

// ErrTimeout is returned (wrapped) by every bounded wait that exceeds its deadline.
var ErrTimeout = errors.New("browser: wait timed out")

type LaunchOptions struct {
	// ExecPath is the chrome binary, empty lets chromedp search the usual locations.
	ExecPath  string
	Headless  bool
	NoSandbox bool
	UserAgent string
}

// Launcher starts a new browser instance.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser instance, Close must always be called once acquired.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab.
type Page interface {
	Goto(ctx context.Context, url string, wait Wait) error
	Type(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	// WaitForNavigation waits for a navigation started after the most recent Click to settle.
	WaitForNavigation(ctx context.Context, wait Wait) error
	// Select sets the value of a <select> element and fires its change event.
	Select(ctx context.Context, selector, value string) error
	// WaitForCondition polls a javascript predicate until it returns true.
	WaitForCondition(ctx context.Context, predicate string, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, visible bool, timeout time.Duration) error
	// Evaluate runs a javascript expression and unmarshals its result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// Content returns the serialized html of the rendered document.
	Content(ctx context.Context) (string, error)
}

// IsTimeout reports whether err came from a bounded wait running out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// WithTimeout derives a context bounded by timeout, a non-positive timeout returns ctx as is.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
