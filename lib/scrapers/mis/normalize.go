package mis

import (
	"strconv"
	"strings"
)

const (
	// zeroSentinel is used by the portal for both "no classes" and "no data".
	zeroSentinel      = "0"
	defaultPercentage = "0%"
)

// slice returns the cells of the referenced row after the label cells, or nil when
// the row does not exist.
func (r RowRef) slice(grid RawTableGrid) []string {
	var rows [][]string
	switch r.Section {
	case SectionHeader:
		rows = grid.HeaderRows
	case SectionBody:
		rows = grid.BodyRows
	default:
		return nil
	}
	if r.Row < 0 || r.Row >= len(rows) {
		return nil
	}
	row := rows[r.Row]
	skip := max(r.Skip, 0)
	if skip >= len(row) {
		return nil
	}
	return row[skip:]
}

// cell returns the i-th cell, empty cells count as absent.
func cell(row []string, i int) (string, bool) {
	if i >= len(row) || row[i] == "" {
		return "", false
	}
	return row[i], true
}

// parseCount parses a class count, anything that is not an integer counts as 0.
func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// Normalize maps the raw grid onto the subject catalog of layout.
//
// Absent or malformed cells never fail: conducted and attended default to 0 and
// percentage to "0%". A subject is dropped when its raw conducted cell is absent or
// is the zero sentinel. Non-numeric conducted text is kept with a count of 0, which
// cannot be told apart from a real zero downstream. Unset row references fall back
// to the reference layout.
func Normalize(grid RawTableGrid, layout Layout) (Report, error) {
	layout = layout.WithDefaults()
	err := layout.Validate()
	if err != nil {
		return nil, err
	}

	conductedRow := layout.Conducted.slice(grid)
	attendedRow := layout.Attended.slice(grid)
	percentageRow := layout.Percentage.slice(grid)

	report := Report{}
	for i, subject := range layout.Subjects {
		rawConducted, ok := cell(conductedRow, i)
		if !ok || rawConducted == zeroSentinel {
			continue
		}

		conducted := parseCount(rawConducted)
		attended := 0
		if rawAttended, ok := cell(attendedRow, i); ok {
			attended = parseCount(rawAttended)
		}
		percentage := defaultPercentage
		if rawPercentage, ok := cell(percentageRow, i); ok {
			percentage = rawPercentage
		}

		report = append(report, Record{
			SubjectName: subject,
			Conducted:   conducted,
			Attended:    attended,
			Missed:      conducted - attended,
			Percentage:  percentage,
		})
	}
	return report, nil
}
