package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Karachi")
	if err != nil {
		panic(err)
	}
}

// force timezone to be the portal's because servers may run in UTC, which would
// shift day boundaries when grouping runs by <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}

// DayBounds returns the start of the portal day containing t and the start of the next one.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(Location)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
	return start, start.AddDate(0, 0, 1)
}
