package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

var testReport = mis.Report{
	{SubjectName: "DSS", Conducted: 10, Attended: 9, Missed: 1, Percentage: "90%"},
	{SubjectName: "DS-A", Conducted: 8, Attended: 7, Missed: 1, Percentage: "87%"},
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.json")
	file := NewFile(path, telemetry.NewRecorder())

	err := file.Write(context.Background(), testReport)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "[\n  {\n    \"subjectName\": \"DSS\",\n    \"conducted\": 10,")

	report, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, testReport, report)
}

func TestFileEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.json")
	err := NewFile(path, telemetry.NewRecorder()).Write(context.Background(), nil)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", string(contents))
}

func TestFileMissingDirectory(t *testing.T) {
	tel := telemetry.NewRecorder()
	path := filepath.Join(t.TempDir(), "missing", "attendance.json")

	err := NewFile(path, tel).Write(context.Background(), testReport)
	require.Error(t, err)
	require.Len(t, tel.Reports("broken", report_file_write), 1)
}

func TestFileDefaultPath(t *testing.T) {
	require.Equal(t, DefaultFile, NewFile("", telemetry.NewRecorder()).Path())
}

type failingSink struct {
	err    error
	writes int
}

func (f *failingSink) Write(ctx context.Context, report mis.Report) error {
	f.writes++
	return f.err
}

func TestMulti(t *testing.T) {
	tel := telemetry.NewRecorder()
	broken := &failingSink{err: os.ErrPermission}
	working := &failingSink{}

	multi := NewMulti(tel, broken, working)
	require.Equal(t, 2, multi.Len())

	err := multi.Write(context.Background(), testReport)
	require.ErrorIs(t, err, os.ErrPermission)
	require.Equal(t, 1, broken.writes)
	require.Equal(t, 1, working.writes)
	require.Len(t, tel.Reports("warning", report_multi_partial), 1)

	require.NoError(t, NewMulti(tel).Write(context.Background(), testReport))
}

func TestEnvelope(t *testing.T) {
	ok := OK(mis.Report(nil))
	require.True(t, ok.Success)
	require.Equal(t, mis.Report{}, ok.Data)

	failed := Fail(os.ErrNotExist)
	require.False(t, failed.Success)
	require.Nil(t, failed.Data)
	require.Equal(t, os.ErrNotExist.Error(), failed.Error)
}
