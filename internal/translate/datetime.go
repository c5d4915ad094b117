package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// PeriodLayout is the calendar date layout used in period strings.
const PeriodLayout = time.DateOnly

// Period is an inclusive calendar span.
type Period struct {
	Start time.Time
	End   time.Time
}

// String formats the period the way clients send it: "START,END".
func (p Period) String() string {
	return p.Start.Format(PeriodLayout) + "," + p.End.Format(PeriodLayout)
}

// ParsePeriod parses a "START,END" period string of ISO calendar dates.
// Both dates are required and START must not come after END.
func ParsePeriod(period string) (Period, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return Period{}, fmt.Errorf("%w: empty period", alerts.ErrInvalidPeriod)
	}

	parts := strings.Split(period, ",")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: period needs 2 dates separated by a comma, got %q", alerts.ErrInvalidPeriod, period)
	}

	start, err := parseDate(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid start date: %v", alerts.ErrInvalidPeriod, err)
	}
	end, err := parseDate(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid end date: %v", alerts.ErrInvalidPeriod, err)
	}

	if start.After(end) {
		return Period{}, fmt.Errorf("%w: start %s is after end %s", alerts.ErrInvalidPeriod,
			start.Format(PeriodLayout), end.Format(PeriodLayout))
	}

	return Period{Start: start, End: end}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ToOffset converts a calendar date into the dataset's (year, day) key.
func ToOffset(ds *alerts.Dataset, t time.Time) (year, day int) {
	t = truncateDay(t)
	switch ds.Encoding {
	case alerts.EncodingAbsoluteDay:
		return t.Year(), daysBetween(truncateDay(ds.Epoch), t)
	default:
		return t.Year(), t.YearDay()
	}
}

// DateFromOffset converts a dataset (year, day) key back into a calendar date.
func DateFromOffset(ds *alerts.Dataset, year, day int) time.Time {
	switch ds.Encoding {
	case alerts.EncodingAbsoluteDay:
		return truncateDay(ds.Epoch).AddDate(0, 0, day)
	default:
		return time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
	}
}

// BoundsPeriod converts indexed bounds into the calendar span they cover.
func BoundsPeriod(ds *alerts.Dataset, b alerts.Bounds) Period {
	return Period{
		Start: DateFromOffset(ds, b.MinYear, b.MinDay),
		End:   DateFromOffset(ds, b.MaxYear, b.MaxDay),
	}
}

// ToRange converts a calendar period into a DateRange for the dataset.
func ToRange(ds *alerts.Dataset, p Period) alerts.DateRange {
	fromYear, fromDay := ToOffset(ds, p.Start)
	toYear, toDay := ToOffset(ds, p.End)
	return alerts.DateRange{
		FromYear: fromYear,
		FromDay:  fromDay,
		ToYear:   toYear,
		ToDay:    toDay,
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b; both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
