package mis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"misattend/lib/browser"
)

// fakePage is a scripted browser.Page, every call is recorded and failures are
// injected by method name.
type fakePage struct {
	calls []string
	// fail maps a method name to the error it returns
	fail map[string]error
	// hang lists methods that block until their context is done, like a chromedp
	// query for a node that never appears
	hang map[string]bool
	// stillOnLogin is the result of the post login check
	stillOnLogin bool
	content      string
}

func (p *fakePage) record(ctx context.Context, method string, args ...string) error {
	p.calls = append(p.calls, fmt.Sprintf("%s(%s)", method, strings.Join(args, ", ")))
	if p.hang[method] {
		<-ctx.Done()
		return ctx.Err()
	}
	if p.fail != nil {
		return p.fail[method]
	}
	return nil
}

func (p *fakePage) Goto(ctx context.Context, url string, wait browser.Wait) error {
	return p.record(ctx, "Goto", url, string(wait.Policy))
}

func (p *fakePage) Type(ctx context.Context, selector, text string) error {
	return p.record(ctx, "Type", selector, text)
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	return p.record(ctx, "Click", selector)
}

func (p *fakePage) WaitForNavigation(ctx context.Context, wait browser.Wait) error {
	return p.record(ctx, "WaitForNavigation", string(wait.Policy))
}

func (p *fakePage) Select(ctx context.Context, selector, value string) error {
	return p.record(ctx, "Select", selector, value)
}

func (p *fakePage) WaitForCondition(ctx context.Context, predicate string, timeout time.Duration) error {
	return p.record(ctx, "WaitForCondition", timeout.String())
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, visible bool, timeout time.Duration) error {
	return p.record(ctx, "WaitForSelector", selector)
}

func (p *fakePage) Evaluate(ctx context.Context, expression string, out any) error {
	err := p.record(ctx, "Evaluate")
	if err != nil {
		return err
	}
	ptr, ok := out.(*bool)
	if !ok {
		return errors.New("fake page only evaluates booleans")
	}
	*ptr = p.stillOnLogin
	return nil
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	err := p.record(ctx, "Content")
	return p.content, err
}

type fakeBrowser struct {
	page    *fakePage
	pageErr error
	closed  int
}

func (b *fakeBrowser) NewPage(ctx context.Context) (browser.Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closed++
	return nil
}

type fakeLauncher struct {
	browser   *fakeBrowser
	launchErr error
	opts      browser.LaunchOptions
}

func (l *fakeLauncher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	l.opts = opts
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.browser, nil
}

type memoryOutput map[string]string

func (o memoryOutput) Write(name string, contents string) {
	o[name] = contents
}

func testPortal() Portal {
	return Portal{
		LoginURL:  "http://portal.test/mis/login.php",
		ReportURL: "http://portal.test/mis/provisional_reports_ug.php",
		ProgramID: "25",
		SessionID: "263,179,12,Both,0",
		Timeouts: Timeouts{
			Options: 5 * time.Second,
		},
	}
}

// reportPage is a rendered attendance report in the portal's layout.
const reportPage = `<!doctype html>
<html><body>
<div id="table-container">
<table class="table sheet header-fixed">
	<thead>
		<tr><th colspan="4">Provisional Attendance</th></tr>
		<tr><th>Program</th><td>BSCS</td></tr>
		<tr><th>Session</th><td>Fall</td></tr>
		<tr><th>Course</th><th>DSS</th><th>DS-A</th><th>DS-A Lab</th></tr>
		<tr><th>Conducted</th><td> 10 </td><td>8</td><td>0</td></tr>
	</thead>
	<tbody>
		<tr><td>1</td><td>Jane Doe</td><td>9</td><td>7</td><td></td></tr>
		<tr><td>90%</td><td>87%</td><td>0%</td></tr>
	</tbody>
</table>
</div>
</body></html>`
