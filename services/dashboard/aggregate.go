package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"nepwatch-backend/lib/timezone"
	"nepwatch-backend/services/collector/db"
)

// point is a reading with its timestamp already parsed into local time.
type point struct {
	ts     time.Time
	powerW float64
}

func parseLocalTime(value string) (time.Time, error) {
	ts, err := time.Parse(timezone.Format, value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.In(timezone.Location), nil
}

// loadPointsBetween returns all readings with from <= ts < to, in
// ascending order. Rows whose timestamp does not parse are skipped;
// range filtering happens here, not in SQL, so the stored text format
// never has to be understood by sqlite.
func (s *Service) loadPointsBetween(ctx context.Context, from, to time.Time) ([]point, error) {
	rows, err := s.qry.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing readings: %w", err)
	}

	var points []point
	for _, row := range rows {
		ts, err := parseLocalTime(row.TsLocal)
		if err != nil {
			slog.Warn("skipping reading with malformed timestamp", "id", row.ID, "ts_local", row.TsLocal)
			continue
		}
		if ts.Before(from) || !ts.Before(to) {
			continue
		}
		points = append(points, point{ts: ts, powerW: row.PowerW})
	}
	return points, nil
}

func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, timezone.Location)
	return from, from.AddDate(0, 1, 0)
}

func dayBounds(year int, month time.Month, day int) (time.Time, time.Time) {
	from := time.Date(year, month, day, 0, 0, 0, 0, timezone.Location)
	return from, from.AddDate(0, 0, 1)
}

// aggregateDaily averages readings per calendar day, keyed "YYYY-MM-DD".
func aggregateDaily(points []point) ([]string, []float64) {
	return aggregate(points, func(p point) string {
		return p.ts.Format("2006-01-02")
	})
}

// aggregateHourly averages readings per hour of day, keyed "HH:00".
func aggregateHourly(points []point) ([]string, []float64) {
	return aggregate(points, func(p point) string {
		return p.ts.Format("15:00")
	})
}

func aggregate(points []point, key func(point) string) ([]string, []float64) {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, p := range points {
		k := key(p)
		sums[k] += p.powerW
		counts[k]++
	}

	labels := make([]string, 0, len(sums))
	for k := range sums {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	values := make([]float64, len(labels))
	for i, k := range labels {
		values[i] = sums[k] / float64(counts[k])
	}
	return labels, values
}

// trapezoidalKWh integrates instantaneous watts over time. Points must
// be in ascending timestamp order; fewer than two points integrate to
// zero.
func trapezoidalKWh(points []point) float64 {
	var kwh float64
	for i := 1; i < len(points); i++ {
		dt := points[i].ts.Sub(points[i-1].ts).Hours()
		if dt <= 0 {
			continue
		}
		kwh += (points[i-1].powerW + points[i].powerW) / 2 * dt / 1000
	}
	return kwh
}

// bucketRecent averages readings into fixed-width buckets covering the
// given window, newest last. Empty buckets are dropped.
func bucketRecent(readings []db.Reading, window, bucket time.Duration, now time.Time) ([]string, []float64) {
	var points []point
	for _, row := range readings {
		ts, err := parseLocalTime(row.TsLocal)
		if err != nil {
			continue
		}
		if now.Sub(ts) > window {
			continue
		}
		points = append(points, point{ts: ts, powerW: row.PowerW})
	}
	return aggregate(points, func(p point) string {
		return p.ts.Truncate(bucket).Format("15:04")
	})
}
