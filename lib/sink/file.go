package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultFile = "attendance.json"

// File writes the report as a pretty printed json array.
type File struct {
	path string
	tel  telemetry.API
}

func NewFile(path string, tel telemetry.API) File {
	if path == "" {
		path = DefaultFile
	}
	return File{
		path: path,
		tel:  telemetry.NewScopedAPI("sink", tel),
	}
}

func (f File) Path() string {
	return f.path
}

// Write replaces the file through a rename so readers never see a partial report.
func (f File) Write(ctx context.Context, report mis.Report) error {
	_, span := tracer.Start(ctx, "File.Write")
	defer span.End()

	span.SetAttributes(attribute.String("path", f.path))

	if report == nil {
		report = mis.Report{}
	}
	serialized, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize report")
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".attendance-*")
	if err != nil {
		f.tel.ReportBroken(report_file_write, err, f.path)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create temporary file")
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(serialized)
	if err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err == nil {
		err = os.Rename(tmp.Name(), f.path)
	}
	if err != nil {
		f.tel.ReportBroken(report_file_write, err, f.path)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write report")
		return fmt.Errorf("write %s: %w", f.path, err)
	}

	f.tel.ReportDebug("wrote report", f.path)
	return nil
}

// ReadFile reads a report previously written by File.
func ReadFile(path string) (mis.Report, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report mis.Report
	err = json.Unmarshal(contents, &report)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return report, nil
}
