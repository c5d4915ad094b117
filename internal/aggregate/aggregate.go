// Package aggregate buckets alert rows into calendar time series.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
	"github.com/robert-malhotra/glad-analysis/internal/translate"
)

// Granularity is the calendar unit rows are grouped by.
type Granularity string

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// ParseGranularity maps a request value to a Granularity. Empty values and
// "julian_day" mean Day. ok is false for values that are not recognized, in
// which case Day is returned.
func ParseGranularity(s string) (g Granularity, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "julian_day":
		return Day, true
	case "week":
		return Week, true
	case "month":
		return Month, true
	case "quarter":
		return Quarter, true
	case "year":
		return Year, true
	default:
		return Day, false
	}
}

// BucketStart truncates a date to the start of its bucket. Weeks start on Monday.
func BucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch g {
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Quarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// Aggregate groups rows into buckets of the given granularity. Buckets without
// rows are omitted and the result is ordered by bucket start. The counts sum to
// the total weight of the rows.
func Aggregate(ds *alerts.Dataset, rows []alerts.Row, g Granularity) []alerts.Bucket {
	if _, ok := ParseGranularity(string(g)); !ok {
		g = Day
	}

	counts := make(map[time.Time]int)
	for _, row := range rows {
		date := translate.DateFromOffset(ds, row.Year, row.Day)
		counts[BucketStart(date, g)] += row.Weight()
	}

	buckets := make([]alerts.Bucket, 0, len(counts))
	for start, n := range counts {
		buckets = append(buckets, alerts.Bucket{Date: start, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date.Before(buckets[j].Date)
	})
	return buckets
}

// Total sums the bucket counts.
func Total(buckets []alerts.Bucket) int {
	n := 0
	for _, b := range buckets {
		n += b.Count
	}
	return n
}
