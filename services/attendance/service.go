// Package attendance runs the scrape pipeline on demand and on a schedule, fans the
// report out to sinks and keeps its history.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"misattend/lib/attendstore"
	"misattend/lib/chrono"
	"misattend/lib/scrapers/mis"
	"misattend/lib/sink"
	"misattend/lib/telemetry"
	"misattend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("misattend.services.attendance")

const (
	report_service_run       = "service.run"
	report_service_sinks     = "service.sinks"
	report_service_history   = "service.history"
	report_service_scheduled = "service.scheduled-run"
)

// ErrHistoryDisabled is returned by history queries when no store was configured.
var ErrHistoryDisabled = errors.New("history is not configured")

// Scraper is satisfied by mis.Scraper.
type Scraper interface {
	Scrape(ctx context.Context, opts mis.Options) (mis.Report, error)
}

// History is satisfied by attendstore.Store.
type History interface {
	Push(ctx context.Context, at time.Time, report mis.Report) (attendstore.Snapshot, error)
	Latest(ctx context.Context) (attendstore.Snapshot, error)
	History(ctx context.Context, limit int) ([]attendstore.Snapshot, error)
	SubjectSeries(ctx context.Context, subject string) ([]attendstore.SubjectPoint, error)
	Subjects(ctx context.Context) ([]string, error)
}

type Params struct {
	Scraper Scraper
	Options mis.Options
	// Sink is optional.
	Sink sink.Sink
	// History is optional, without it only on demand scrapes are available.
	History History
}

type Result struct {
	Time   time.Time  `json:"time"`
	Report mis.Report `json:"report"`
	// SnapshotID is empty when history is disabled.
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// Service serializes scrapes, the portal only ever sees one session at a time.
type Service struct {
	mu      sync.Mutex
	scraper Scraper
	opts    mis.Options
	sink    sink.Sink
	history History
	tel     telemetry.API
}

func NewService(params Params, tel telemetry.API) *Service {
	return &Service{
		scraper: params.Scraper,
		opts:    params.Options,
		sink:    params.Sink,
		history: params.History,
		tel:     telemetry.NewScopedAPI("attendance", tel),
	}
}

// Run scrapes once, records the report in history and then writes it to the sinks.
// Nothing is written anywhere when the scrape fails. A sink failure is returned
// alongside a populated Result.
func (s *Service) Run(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	started := timezone.Now()
	report, err := s.scraper.Scrape(ctx, s.opts)
	if err != nil {
		s.tel.ReportBroken(report_service_run, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		return Result{}, err
	}
	if report == nil {
		report = mis.Report{}
	}
	span.SetAttributes(attribute.Int("subjects", len(report)))
	s.tel.ReportDebug("scrape finished", len(report), time.Since(started).String())

	result := Result{
		Time:   started,
		Report: report,
	}

	if s.history != nil {
		snapshot, err := s.history.Push(ctx, started, report)
		if err != nil {
			s.tel.ReportBroken(report_service_history, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to record history")
			return result, fmt.Errorf("record history: %w", err)
		}
		result.SnapshotID = snapshot.ID
	}

	if s.sink != nil {
		err = s.sink.Write(ctx, report)
		if err != nil {
			s.tel.ReportBroken(report_service_sinks, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write to sinks")
			return result, fmt.Errorf("write sinks: %w", err)
		}
	}

	return result, nil
}

// Schedule runs the pipeline on spec, failures are only reported.
func (s *Service) Schedule(cron chrono.CronAPI, spec string) error {
	return cron.Cron(spec, func() {
		s.tel.ReportDebug("starting scheduled scrape", spec)
		_, err := s.Run(context.Background())
		if err != nil {
			s.tel.ReportWarning(report_service_scheduled, err)
		}
	})
}

func (s *Service) Latest(ctx context.Context) (attendstore.Snapshot, error) {
	if s.history == nil {
		return attendstore.Snapshot{}, ErrHistoryDisabled
	}
	return s.history.Latest(ctx)
}

func (s *Service) History(ctx context.Context, limit int) ([]attendstore.Snapshot, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.History(ctx, limit)
}

type SubjectHistory struct {
	Subject    string                     `json:"subject"`
	Similarity float64                    `json:"similarity"`
	Series     []attendstore.SubjectPoint `json:"series"`
}
