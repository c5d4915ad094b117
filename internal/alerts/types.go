package alerts

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateRange is an inclusive span expressed in a dataset's (year, day) encoding.
type DateRange struct {
	FromYear int
	FromDay  int
	ToYear   int
	ToDay    int
}

// Validate reports whether the range start does not come after its end.
func (r DateRange) Validate() error {
	if r.FromYear > r.ToYear || (r.FromYear == r.ToYear && r.FromDay > r.ToDay) {
		return fmt.Errorf("%w: range %d/%d..%d/%d is reversed", ErrInvalidPeriod, r.FromYear, r.FromDay, r.ToYear, r.ToDay)
	}
	return nil
}

// Contains reports whether the (year, day) key falls inside the range, bounds included.
func (r DateRange) Contains(year, day int) bool {
	if year < r.FromYear || year > r.ToYear {
		return false
	}
	if year == r.FromYear && day < r.FromDay {
		return false
	}
	if year == r.ToYear && day > r.ToDay {
		return false
	}
	return true
}

// Bounds is the indexed min/max of a dataset in its native encoding.
type Bounds struct {
	MinYear int
	MinDay  int
	MaxYear int
	MaxDay  int
}

// Row is a single record returned by the search backend.
type Row struct {
	Year int
	Day  int

	// Count is set by grouped queries; zero means the row stands for one alert.
	Count int
}

// Weight is the number of alerts the row represents.
func (r Row) Weight() int {
	if r.Count > 0 {
		return r.Count
	}
	return 1
}

// Bucket is one time-series entry produced by aggregation.
type Bucket struct {
	Date  time.Time
	Count int
}

// MarshalJSON renders the bucket start as a calendar date.
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}{
		Date:  b.Date.Format(time.DateOnly),
		Count: b.Count,
	})
}
