package mis

import (
	"context"
	"fmt"
	"io"
	"strings"

	"misattend/lib/browser"
	"misattend/lib/debugutil"
	"misattend/lib/htmlutil"
	"misattend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const SnapshotName = "debug.html"

// Extractor reads the raw cell text out of the attendance table of a ready page.
type Extractor struct {
	tel telemetry.API
	// snapshots is optional, when set the full page is written to it before extraction
	snapshots debugutil.Output
}

func NewExtractor(tel telemetry.API, snapshots debugutil.Output) Extractor {
	return Extractor{
		tel:       telemetry.NewScopedAPI("mis", tel),
		snapshots: snapshots,
	}
}

func (e Extractor) ExtractGrid(ctx context.Context, ready ReadyPage) (RawTableGrid, error) {
	ctx, span := tracer.Start(ctx, "extractor:ExtractGrid")
	defer span.End()

	if ready.page == nil {
		return RawTableGrid{}, fmt.Errorf("extract grid: page is not ready")
	}

	var content string
	err := bounded(ctx, ready.timeout, func(ctx context.Context) error {
		var err error
		content, err = ready.page.Content(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page content")
		if browser.IsTimeout(err) {
			e.tel.ReportWarning(report_extractor_find_table, err)
			return RawTableGrid{}, &StepError{
				Step: "read page content",
				Err:  fmt.Errorf("%w: %w", ErrNavigationTimeout, err),
			}
		}
		e.tel.ReportBroken(report_extractor_find_table, err)
		return RawTableGrid{}, &StepError{Step: "read page content", Err: err}
	}
	if e.snapshots != nil {
		e.snapshots.Write(SnapshotName, content)
		e.tel.ReportDebug(report_extractor_snapshot, SnapshotName)
	}

	grid, err := ParseGrid(strings.NewReader(content), ready.tableSelector)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find attendance table")
		e.tel.ReportBroken(report_extractor_find_table, err, ready.tableSelector)
		return RawTableGrid{}, err
	}

	span.SetAttributes(
		attribute.Int("header_rows", len(grid.HeaderRows)),
		attribute.Int("body_rows", len(grid.BodyRows)),
	)
	return grid, nil
}

// ParseGrid extracts the cell text of the first table matching tableSelector. Header
// rows read both th and td cells, body rows read only td cells. No interpretation
// happens here, cells are only trimmed.
func ParseGrid(r io.Reader, tableSelector string) (RawTableGrid, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return RawTableGrid{}, fmt.Errorf("parse page html: %w", err)
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return RawTableGrid{}, &StepError{
			Step: "extract grid",
			Err:  fmt.Errorf("%w: nothing matches %s", ErrTableNotFound, tableSelector),
		}
	}

	return RawTableGrid{
		HeaderRows: htmlutil.RowsText(table.Find("thead tr"), "td, th"),
		BodyRows:   htmlutil.RowsText(table.Find("tbody tr"), "td"),
	}, nil
}
