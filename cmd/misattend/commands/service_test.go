package commands

import (
	"context"
	"path/filepath"
	"testing"

	"misattend/lib/attendstore"
	"misattend/lib/scrapers/mis"
	"misattend/lib/sink"

	"github.com/stretchr/testify/require"
)

func TestNewSink(t *testing.T) {
	cfg := Config{Output: OutputConfig{File: filepath.Join(t.TempDir(), "out.json")}}
	require.Equal(t, 1, newSink(cfg, "").Len())

	cfg.Webhook = &sink.WebhookConfig{Url: "http://localhost:1/hook"}
	cfg.Email = &sink.EmailConfig{Server: "localhost", Port: 25, To: []string{"me@example.com"}}
	require.Equal(t, 3, newSink(cfg, "").Len())
}

func TestNewSinkOutOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Output: OutputConfig{File: filepath.Join(dir, "configured.json")}}
	out := filepath.Join(dir, "flag.json")

	err := newSink(cfg, out).Write(context.Background(), mis.Report{
		{SubjectName: "DSS", Conducted: 10, Attended: 9, Missed: 1, Percentage: "90%"},
	})
	require.NoError(t, err)

	report, err := sink.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, report, 1)
	require.NoFileExists(t, filepath.Join(dir, "configured.json"))
}

func TestNewOptions(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t))
	require.NoError(t, err)

	opts, err := newOptions(cfg)
	require.NoError(t, err)
	require.Nil(t, opts.Snapshots)
	require.Equal(t, []string{"DSS", "DS-A"}, opts.Layout.Subjects)

	cfg.Debug.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")
	opts, err = newOptions(cfg)
	require.NoError(t, err)
	require.NotNil(t, opts.Snapshots)
	require.DirExists(t, cfg.Debug.SnapshotDir)
}

func TestOpenHistory(t *testing.T) {
	ctx := context.Background()

	history, database, err := openHistory(ctx, Config{})
	require.NoError(t, err)
	require.Nil(t, history)
	require.Nil(t, database)

	history, database, err = openHistory(ctx, Config{History: &attendstore.Config{File: ":memory:"}})
	require.NoError(t, err)
	defer database.Close()

	_, err = history.Latest(ctx)
	require.ErrorIs(t, err, attendstore.ErrNoSnapshots)
}
