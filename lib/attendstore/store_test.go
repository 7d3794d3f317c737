package attendstore

import (
	"context"
	"testing"
	"time"

	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"
	"misattend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB) Store {
	cleanup := telemetry.SetupForTesting(t, "test:attendstore")
	t.Cleanup(cleanup)

	store, database, err := Open(context.Background(), Config{File: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return store
}

func TestStore(t *testing.T) {
	store := setupStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		_, err := store.Latest(ctx)
		require.ErrorIs(t, err, ErrNoSnapshots)

		history, err := store.History(ctx, 10)
		require.NoError(t, err)
		require.Len(t, history, 0)
	}

	day := time.Date(2024, time.September, 2, 9, 0, 0, 0, timezone.Location)
	first := mis.Report{
		{SubjectName: "DSS", Conducted: 10, Attended: 9, Missed: 1, Percentage: "90%"},
		{SubjectName: "MAD", Conducted: 8, Attended: 6, Missed: 2, Percentage: "75%"},
	}
	second := mis.Report{
		{SubjectName: "DSS", Conducted: 12, Attended: 10, Missed: 2, Percentage: "83%"},
		{SubjectName: "MAD", Conducted: 9, Attended: 7, Missed: 2, Percentage: "78%"},
	}

	{
		snapshot, err := store.Push(ctx, day, first)
		require.NoError(t, err)
		require.NotEmpty(t, snapshot.ID)

		_, err = store.Push(ctx, day.Add(time.Hour*24), second)
		require.NoError(t, err)
	}
	{
		latest, err := store.Latest(ctx)
		require.NoError(t, err)
		require.Equal(t, second, latest.Report)
		require.True(t, latest.Time.Equal(day.Add(time.Hour*24)))

		history, err := store.History(ctx, 0)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, second, history[0].Report)
		require.Equal(t, first, history[1].Report)

		limited, err := store.History(ctx, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
	}
	{
		series, err := store.SubjectSeries(ctx, "DSS")
		require.NoError(t, err)
		require.Len(t, series, 2)
		require.Equal(t, 10, series[0].Conducted)
		require.Equal(t, 12, series[1].Conducted)
		require.Equal(t, "83%", series[1].Percentage)

		unknown, err := store.SubjectSeries(ctx, "unknown")
		require.NoError(t, err)
		require.Len(t, unknown, 0)

		subjects, err := store.Subjects(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"DSS", "MAD"}, subjects)
	}
}

func TestStoreReplacesSameDay(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	morning := time.Date(2024, time.September, 2, 8, 0, 0, 0, timezone.Location)
	_, err := store.Push(ctx, morning, mis.Report{
		{SubjectName: "DSS", Conducted: 10, Attended: 9, Missed: 1, Percentage: "90%"},
	})
	require.NoError(t, err)

	evening := morning.Add(time.Hour * 10)
	updated := mis.Report{
		{SubjectName: "DSS", Conducted: 11, Attended: 10, Missed: 1, Percentage: "91%"},
	}
	_, err = store.Push(ctx, evening, updated)
	require.NoError(t, err)

	history, err := store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, updated, history[0].Report)

	series, err := store.SubjectSeries(ctx, "DSS")
	require.NoError(t, err)
	require.Len(t, series, 1)
}

func TestStoreEmptyReport(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Push(ctx, timezone.Now(), mis.Report{})
	require.NoError(t, err)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.Empty(t, latest.Report)
}

func TestConfigOpenDB(t *testing.T) {
	_, err := Config{}.OpenDB()
	require.Error(t, err)
}
