package alerts

import "errors"

var (
	// ErrInvalidPeriod is returned when a period string is malformed or incomplete.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrOutOfRange is returned when a period lies entirely outside the indexed data.
	ErrOutOfRange = errors.New("period outside indexed range")

	// ErrUnsupportedScope is returned for scope identifiers that cannot be queried.
	ErrUnsupportedScope = errors.New("unsupported scope")

	// ErrUpstreamQuery is returned when the search backend call fails or times out.
	ErrUpstreamQuery = errors.New("upstream query failed")
)
