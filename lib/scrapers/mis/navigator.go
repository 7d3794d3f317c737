package mis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"misattend/lib/browser"
	"misattend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Navigator drives a page through the portal login and onto the attendance report.
// It makes a single attempt, retrying is left to the caller.
type Navigator struct {
	portal Portal
	tel    telemetry.API
}

func NewNavigator(portal Portal, tel telemetry.API) Navigator {
	return Navigator{
		portal: portal.WithDefaults(),
		tel:    telemetry.NewScopedAPI("mis", tel),
	}
}

// fail classifies err, any bounded wait that ran out of time becomes ErrNavigationTimeout.
func (n Navigator) fail(id, step string, err error) error {
	if browser.IsTimeout(err) {
		n.tel.ReportWarning(id, fmt.Errorf("%s: %w", step, err))
		return &StepError{Step: step, Err: fmt.Errorf("%w: %w", ErrNavigationTimeout, err)}
	}
	n.tel.ReportBroken(id, fmt.Errorf("%s: %w", step, err))
	return &StepError{Step: step, Err: err}
}

func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

// bounded runs a single page action under its own deadline. chromedp queries wait
// for their node with no limit, so a missing element would otherwise block forever.
func bounded(ctx context.Context, timeout time.Duration, action func(ctx context.Context) error) error {
	ctx, cancel := browser.WithTimeout(ctx, timeout)
	defer cancel()
	return action(ctx)
}

// act bounds a page action by the navigation timeout.
func (n Navigator) act(ctx context.Context, action func(ctx context.Context) error) error {
	return bounded(ctx, n.portal.Timeouts.Navigation, action)
}

func (n Navigator) navigationWait() browser.Wait {
	return browser.Wait{
		Policy:  n.portal.Wait,
		Timeout: n.portal.Timeouts.Navigation,
	}
}

func (n Navigator) login(ctx context.Context, creds Credentials, page browser.Page) error {
	sel := n.portal.Selectors

	if creds.Identifier == "" || creds.Secret == "" {
		return &StepError{
			Step: "login",
			Err:  fmt.Errorf("%w: missing identifier or secret", ErrAuthenticationFailed),
		}
	}

	n.tel.ReportDebug("logging in", n.portal.LoginURL)
	err := n.act(ctx, func(ctx context.Context) error {
		return page.Goto(ctx, n.portal.LoginURL, n.navigationWait())
	})
	if err != nil {
		return n.fail(report_navigator_login, "open login page", err)
	}

	err = n.act(ctx, func(ctx context.Context) error {
		return page.Type(ctx, sel.Identifier, creds.Identifier)
	})
	if err != nil {
		return n.fail(report_navigator_login, "type identifier", err)
	}
	err = n.act(ctx, func(ctx context.Context) error {
		return page.Type(ctx, sel.Secret, creds.Secret)
	})
	if err != nil {
		return n.fail(report_navigator_login, "type secret", err)
	}
	err = n.act(ctx, func(ctx context.Context) error {
		return page.Click(ctx, sel.Submit)
	})
	if err != nil {
		return n.fail(report_navigator_login, "submit login", err)
	}
	err = n.act(ctx, func(ctx context.Context) error {
		return page.WaitForNavigation(ctx, n.navigationWait())
	})
	if err != nil {
		return n.fail(report_navigator_login, "wait for login", err)
	}

	var stillOnLogin bool
	err = n.act(ctx, func(ctx context.Context) error {
		return page.Evaluate(
			ctx,
			fmt.Sprintf("document.querySelector(%s) !== null", jsString(sel.LoginForm)),
			&stillOnLogin,
		)
	})
	if err != nil {
		return n.fail(report_navigator_login, "check login", err)
	}
	if stillOnLogin {
		n.tel.ReportWarning(report_navigator_login, "login form still present after submit")
		return &StepError{
			Step: "login",
			Err:  fmt.Errorf("%w: portal rejected the credentials", ErrAuthenticationFailed),
		}
	}
	return nil
}

func (n Navigator) selectTerm(ctx context.Context, page browser.Page) error {
	sel := n.portal.Selectors

	err := n.act(ctx, func(ctx context.Context) error {
		return page.Select(ctx, sel.Program, n.portal.ProgramID)
	})
	if err != nil {
		return n.fail(report_navigator_select, "select program", err)
	}

	// the session options are fetched by the portal only after a program is chosen
	populated := fmt.Sprintf(
		"(document.querySelector(%s)?.options.length ?? 0) > 1",
		jsString(sel.Session),
	)
	err = bounded(ctx, n.portal.Timeouts.Options, func(ctx context.Context) error {
		return page.WaitForCondition(ctx, populated, n.portal.Timeouts.Options)
	})
	if err != nil {
		return n.fail(report_navigator_select, "wait for session options", err)
	}

	err = n.act(ctx, func(ctx context.Context) error {
		return page.Select(ctx, sel.Session, n.portal.SessionID)
	})
	if err != nil {
		return n.fail(report_navigator_select, "select session", err)
	}
	return nil
}

// OpenReport logs in and navigates page onto the attendance report, returning once
// the attendance table is visible.
func (n Navigator) OpenReport(ctx context.Context, creds Credentials, page browser.Page) (ReadyPage, error) {
	ctx, span := tracer.Start(ctx, "navigator:OpenReport")
	defer span.End()

	err := n.portal.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ReadyPage{}, err
	}

	err = n.login(ctx, creds, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return ReadyPage{}, err
	}

	n.tel.ReportDebug("opening report", n.portal.ReportURL)
	err = n.act(ctx, func(ctx context.Context) error {
		return page.Goto(ctx, n.portal.ReportURL, n.navigationWait())
	})
	if err != nil {
		err = n.fail(report_navigator_open_report, "open report page", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open report page")
		return ReadyPage{}, err
	}

	err = n.selectTerm(ctx, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to select program/session")
		return ReadyPage{}, err
	}

	sel := n.portal.Selectors
	n.tel.ReportDebug("waiting for table container", sel.Container)
	err = bounded(ctx, n.portal.Timeouts.Container, func(ctx context.Context) error {
		return page.WaitForSelector(ctx, sel.Container, true, n.portal.Timeouts.Container)
	})
	if err != nil {
		err = n.fail(report_navigator_wait_table, "wait for table container", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "table container never became visible")
		return ReadyPage{}, err
	}

	n.tel.ReportDebug("waiting for attendance table", sel.Table)
	err = bounded(ctx, n.portal.Timeouts.Table, func(ctx context.Context) error {
		return page.WaitForSelector(ctx, sel.Table, true, n.portal.Timeouts.Table)
	})
	if err != nil {
		err = n.fail(report_navigator_wait_table, "wait for attendance table", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "attendance table never became visible")
		return ReadyPage{}, err
	}

	span.SetAttributes(attribute.String("table", sel.Table))
	return ReadyPage{
		page:          page,
		tableSelector: sel.Table,
		timeout:       n.portal.Timeouts.Navigation,
	}, nil
}
