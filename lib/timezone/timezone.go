package timezone

import (
	"time"

	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Bahia")
	if err != nil {
		panic(err)
	}
}

// force timestamps into the plant's local zone regardless of where the
// daemon runs, otherwise day/month bucketing drifts when the host is in
// a different zone
func Now() time.Time {
	return time.Now().In(Location)
}

// Format is the layout readings are persisted with: ISO-8601 with
// second precision and a UTC offset, e.g. 2026-01-16T08:01:02-03:00.
const Format = "2006-01-02T15:04:05-07:00"
