// Package reportfmt renders attendance for humans, in the terminal and in email bodies.
package reportfmt

import (
	"io"
	"strconv"

	"misattend/lib/attendstore"
	"misattend/lib/scrapers/mis"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return t
}

func reportTable(out io.Writer, report mis.Report) table.Writer {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Subject", "Conducted", "Attended", "Missed", "Percentage"})
	for _, r := range report {
		t.AppendRow(table.Row{r.SubjectName, r.Conducted, r.Attended, r.Missed, r.Percentage})
	}
	return t
}

// Report writes report as a rounded table to out.
func Report(out io.Writer, report mis.Report) {
	reportTable(out, report).Render()
}

// ReportText returns report as a plain ascii table, for places without box drawing
// characters like email bodies.
func ReportText(report mis.Report) string {
	t := reportTable(nil, report)
	t.SetStyle(table.StyleDefault)
	return t.Render()
}

// Series writes the recorded history of a single subject to out.
func Series(out io.Writer, subject string, points []attendstore.SubjectPoint) {
	t := NewTable(out)
	t.SetTitle(subject)
	t.AppendHeader(table.Row{"Date", "Conducted", "Attended", "Missed", "Percentage"})
	for _, p := range points {
		t.AppendRow(table.Row{p.Time.Format("2006-01-02 15:04"), p.Conducted, p.Attended, p.Missed, p.Percentage})
	}
	t.Render()
}

// History writes one row per snapshot with the total classes attended out of conducted.
func History(out io.Writer, snapshots []attendstore.Snapshot) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Date", "Subjects", "Conducted", "Attended", "Missed"})
	for _, s := range snapshots {
		var conducted, attended, missed int
		for _, r := range s.Report {
			conducted += r.Conducted
			attended += r.Attended
			missed += r.Missed
		}
		t.AppendRow(table.Row{
			s.Time.Format("2006-01-02 15:04"),
			strconv.Itoa(len(s.Report)),
			conducted,
			attended,
			missed,
		})
	}
	t.Render()
}
