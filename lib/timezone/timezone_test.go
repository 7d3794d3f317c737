package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	cases := []struct {
		now         time.Time
		expectStart time.Time
		expectStop  time.Time
	}{
		{
			now:         time.Date(2024, time.August, 26, 13, 30, 0, 0, Location),
			expectStart: time.Date(2024, time.August, 26, 0, 0, 0, 0, Location),
			expectStop:  time.Date(2024, time.August, 27, 0, 0, 0, 0, Location),
		},
		{
			// 20:00 UTC is already the next day in Karachi (UTC+5)
			now:         time.Date(2024, time.August, 31, 20, 0, 0, 0, time.UTC),
			expectStart: time.Date(2024, time.September, 1, 0, 0, 0, 0, Location),
			expectStop:  time.Date(2024, time.September, 2, 0, 0, 0, 0, Location),
		},
		{
			now:         time.Date(2024, time.December, 31, 23, 59, 59, 0, Location),
			expectStart: time.Date(2024, time.December, 31, 0, 0, 0, 0, Location),
			expectStop:  time.Date(2025, time.January, 1, 0, 0, 0, 0, Location),
		},
	}

	for _, test := range cases {
		start, stop := DayBounds(test.now)
		require.True(t, test.expectStart.Equal(start), "start %s != %s", start, test.expectStart)
		require.True(t, test.expectStop.Equal(stop), "stop %s != %s", stop, test.expectStop)
	}
}

func TestNow(t *testing.T) {
	require.Equal(t, Location, Now().Location())
}
