// Package sink delivers a completed attendance report to its destinations.
package sink

import (
	"context"
	"errors"
	"time"

	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"
)

var tracer = telemetry.Tracer("misattend.lib.sink")

const (
	report_file_write    = "file.write"
	report_webhook_post  = "webhook.post"
	report_email_send    = "email.send"
	report_multi_partial = "multi.partial"
)

// Sink receives complete reports only, a failed run never reaches a sink.
type Sink interface {
	Write(ctx context.Context, report mis.Report) error
}

// Envelope is the shape every machine readable destination receives. Data is set
// exactly when Success is, Error may accompany a success when only delivery failed.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
	Time    *time.Time `json:"time,omitempty"`
}

// OK wraps data in a successful envelope, a nil report is sent as an empty list.
func OK(data any) Envelope {
	if report, ok := data.(mis.Report); ok && report == nil {
		data = mis.Report{}
	}
	return Envelope{Success: true, Data: data}
}

func Fail(err error) Envelope {
	return Envelope{Success: false, Error: err.Error()}
}

// Multi writes to every sink in order, a failing sink does not stop the others.
type Multi struct {
	sinks []Sink
	tel   telemetry.API
}

func NewMulti(tel telemetry.API, sinks ...Sink) Multi {
	return Multi{
		sinks: sinks,
		tel:   telemetry.NewScopedAPI("sink", tel),
	}
}

func (m Multi) Len() int {
	return len(m.sinks)
}

func (m Multi) Write(ctx context.Context, report mis.Report) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.Write(ctx, report)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) < len(m.sinks) {
		m.tel.ReportWarning(report_multi_partial, len(errs), len(m.sinks))
	}
	return errors.Join(errs...)
}
