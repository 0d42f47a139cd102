package dashboard

import (
	"testing"
	"time"

	"nepwatch-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func localTime(value string) time.Time {
	ts, err := time.Parse(timezone.Format, value)
	if err != nil {
		panic(err)
	}
	return ts.In(timezone.Location)
}

func TestMonthBounds(t *testing.T) {
	from, to := monthBounds(2026, time.January)
	require.Equal(t, "2026-01-01T00:00:00-03:00", from.Format(timezone.Format))
	require.Equal(t, "2026-02-01T00:00:00-03:00", to.Format(timezone.Format))

	// december rolls into the next year
	from, to = monthBounds(2025, time.December)
	require.Equal(t, 2025, from.Year())
	require.Equal(t, 2026, to.Year())
}

func TestDayBounds(t *testing.T) {
	from, to := dayBounds(2026, time.January, 31)
	require.Equal(t, "2026-01-31T00:00:00-03:00", from.Format(timezone.Format))
	require.Equal(t, "2026-02-01T00:00:00-03:00", to.Format(timezone.Format))
}

func TestAggregateDaily(t *testing.T) {
	points := []point{
		{ts: localTime("2026-01-16T08:00:00-03:00"), powerW: 100},
		{ts: localTime("2026-01-16T12:00:00-03:00"), powerW: 300},
		{ts: localTime("2026-01-17T12:00:00-03:00"), powerW: 500},
	}

	labels, values := aggregateDaily(points)
	require.Equal(t, []string{"2026-01-16", "2026-01-17"}, labels)
	require.Equal(t, []float64{200, 500}, values)
}

func TestAggregateHourly(t *testing.T) {
	points := []point{
		{ts: localTime("2026-01-16T08:05:00-03:00"), powerW: 100},
		{ts: localTime("2026-01-16T08:55:00-03:00"), powerW: 200},
		{ts: localTime("2026-01-16T12:00:00-03:00"), powerW: 600},
	}

	labels, values := aggregateHourly(points)
	require.Equal(t, []string{"08:00", "12:00"}, labels)
	require.Equal(t, []float64{150, 600}, values)
}

func TestTrapezoidalKWh(t *testing.T) {
	// constant 1000 W for one hour is exactly 1 kWh
	points := []point{
		{ts: localTime("2026-01-16T08:00:00-03:00"), powerW: 1000},
		{ts: localTime("2026-01-16T09:00:00-03:00"), powerW: 1000},
	}
	require.InDelta(t, 1.0, trapezoidalKWh(points), 1e-9)

	// linear ramp averages out
	points = []point{
		{ts: localTime("2026-01-16T08:00:00-03:00"), powerW: 0},
		{ts: localTime("2026-01-16T08:30:00-03:00"), powerW: 1000},
		{ts: localTime("2026-01-16T09:00:00-03:00"), powerW: 0},
	}
	require.InDelta(t, 0.5, trapezoidalKWh(points), 1e-9)

	require.Zero(t, trapezoidalKWh(nil))
	require.Zero(t, trapezoidalKWh(points[:1]))
}

func TestParseLocalTimeRejectsMalformed(t *testing.T) {
	_, err := parseLocalTime("2026-01-16 08:00:00")
	require.Error(t, err)
	_, err = parseLocalTime("not a timestamp")
	require.Error(t, err)

	ts, err := parseLocalTime("2026-01-16T08:01:02-03:00")
	require.NoError(t, err)
	require.Equal(t, timezone.Location, ts.Location())
}
