package mis

import (
	"context"
	"fmt"

	"misattend/lib/browser"
	"misattend/lib/debugutil"
	"misattend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Options struct {
	Credentials Credentials
	Portal      Portal
	Layout      Layout
	Launch      browser.LaunchOptions
	// Snapshots receives the rendered report page when set.
	Snapshots debugutil.Output
}

// Scraper runs the whole pipeline once per call, it holds no state between runs.
type Scraper struct {
	launcher browser.Launcher
	tel      telemetry.API
}

func NewScraper(launcher browser.Launcher, tel telemetry.API) Scraper {
	return Scraper{
		launcher: launcher,
		tel:      tel,
	}
}

// Scrape launches a browser, opens the attendance report, extracts the table and
// normalizes it. The browser is closed on every exit path, either a complete report
// is returned or an error.
func (s Scraper) Scrape(ctx context.Context, opts Options) (Report, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	tel := telemetry.NewScopedAPI("mis", s.tel)

	layout := opts.Layout.WithDefaults()
	err := layout.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	err = opts.Portal.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	instance, err := s.launcher.Launch(ctx, opts.Launch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, &StepError{Step: "launch browser", Err: err}
	}
	defer func() {
		closeErr := instance.Close()
		if closeErr != nil {
			tel.ReportWarning(report_scrape_close, closeErr)
		}
	}()

	page, err := instance.NewPage(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open page")
		return nil, &StepError{Step: "open page", Err: err}
	}

	ready, err := NewNavigator(opts.Portal, s.tel).OpenReport(ctx, opts.Credentials, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open report")
		return nil, err
	}

	grid, err := NewExtractor(s.tel, opts.Snapshots).ExtractGrid(ctx, ready)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract grid")
		return nil, err
	}

	report, err := Normalize(grid, layout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to normalize grid")
		return nil, fmt.Errorf("normalize: %w", err)
	}

	tel.ReportCount(report_scrape_subjects, int64(len(report)))
	span.SetAttributes(attribute.Int("subjects", len(report)))
	return report, nil
}
