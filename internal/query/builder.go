// Package query composes count and export query expressions for the alert indexes.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

const (
	yearColumn       = "year"
	confidenceColumn = "confidence"
	isoColumn        = "iso"
	stateColumn      = "state_id"
	districtColumn   = "dist_id"

	// confirmedConfidence marks an alert as confirmed rather than provisional.
	confirmedConfidence = 3
)

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_\-]*$`)
	isoRe        = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Expression is the pair of query texts built for one request.
type Expression struct {
	// Count returns a single "value" row, or one row per (year, day) when grouped.
	Count string
	// Download returns one row per alert; it is also rendered into export links.
	Download string
}

// Options are the per-request inputs to Build.
type Options struct {
	Range alerts.DateRange

	// Admin is embedded as equality clauses when set. Geostore-backed scopes are
	// passed to the executor as a spatial filter and never appear here.
	Admin *alerts.Admin

	ConfirmedOnly bool

	// Grouped switches the count expression to a per-(year, day) breakdown.
	Grouped bool
}

// DateClause expresses an inclusive (year, day) range over the dataset's columns.
// Ranges inside one year use BETWEEN; ranges spanning years use the three-part
// disjunction of first-year tail, whole middle years and last-year head.
func DateClause(dayColumn string, r alerts.DateRange) Clause {
	if r.FromYear == r.ToYear {
		return and{
			compare{col: yearColumn, op: opEq, value: r.FromYear},
			between{col: dayColumn, lo: r.FromDay, hi: r.ToDay},
		}
	}
	return or{
		and{
			compare{col: yearColumn, op: opEq, value: r.FromYear},
			compare{col: dayColumn, op: opGte, value: r.FromDay},
		},
		and{
			compare{col: yearColumn, op: opGt, value: r.FromYear},
			compare{col: yearColumn, op: opLt, value: r.ToYear},
		},
		and{
			compare{col: yearColumn, op: opEq, value: r.ToYear},
			compare{col: dayColumn, op: opLte, value: r.ToDay},
		},
	}
}

// Build composes the count and download expressions for a dataset.
func Build(ds *alerts.Dataset, opts Options) (Expression, error) {
	if err := checkIdentifier(ds.IndexID); err != nil {
		return Expression{}, err
	}
	if err := checkIdentifier(ds.DayColumn); err != nil {
		return Expression{}, err
	}
	if err := opts.Range.Validate(); err != nil {
		return Expression{}, err
	}

	where, err := whereClause(ds, opts)
	if err != nil {
		return Expression{}, err
	}

	day := ds.DayColumn
	var count string
	if opts.Grouped {
		count = fmt.Sprintf("SELECT %s, %s, COUNT(%s) AS value FROM %s WHERE %s GROUP BY %s, %s ORDER BY %s, %s",
			yearColumn, day, day, ds.IndexID, where, yearColumn, day, yearColumn, day)
	} else {
		count = fmt.Sprintf("SELECT COUNT(%s) AS value FROM %s WHERE %s", day, ds.IndexID, where)
	}

	download := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(exportColumns(ds), ", "), ds.IndexID, where)

	return Expression{Count: count, Download: download}, nil
}

// BoundsQuery selects the earliest (ascending) or latest indexed (year, day) key.
func BoundsQuery(ds *alerts.Dataset, ascending bool) (string, error) {
	if err := checkIdentifier(ds.IndexID); err != nil {
		return "", err
	}
	if err := checkIdentifier(ds.DayColumn); err != nil {
		return "", err
	}
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	return fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s %s, %s %s LIMIT 1",
		yearColumn, ds.DayColumn, ds.IndexID, yearColumn, dir, ds.DayColumn, dir), nil
}

func whereClause(ds *alerts.Dataset, opts Options) (string, error) {
	parts := []string{DateClause(ds.DayColumn, opts.Range).String()}

	if opts.Admin != nil {
		fragments, err := adminFragments(*opts.Admin)
		if err != nil {
			return "", err
		}
		parts = append(parts, fragments...)
	}

	if opts.ConfirmedOnly && ds.SupportsConfirmedOnly {
		parts = append(parts, compare{col: confidenceColumn, op: opEq, value: confirmedConfidence}.String())
	}

	return strings.Join(parts, " AND "), nil
}

func adminFragments(a alerts.Admin) ([]string, error) {
	if !isoRe.MatchString(a.ISO) {
		return nil, fmt.Errorf("%w: invalid ISO code %q", alerts.ErrUnsupportedScope, a.ISO)
	}
	if a.State < 0 || a.District < 0 {
		return nil, fmt.Errorf("%w: negative admin id", alerts.ErrUnsupportedScope)
	}
	if a.District > 0 && a.State == 0 {
		return nil, fmt.Errorf("%w: district requires a state", alerts.ErrUnsupportedScope)
	}

	fragments := []string{isoColumn + " = " + quoteString(strings.ToUpper(a.ISO))}
	if a.State > 0 {
		fragments = append(fragments, stateColumn+" = "+strconv.Itoa(a.State))
	}
	if a.District > 0 {
		fragments = append(fragments, districtColumn+" = "+strconv.Itoa(a.District))
	}
	return fragments, nil
}

func exportColumns(ds *alerts.Dataset) []string {
	cols := []string{"lat", "long"}
	if ds.SupportsConfirmedOnly {
		cols = append(cols, confidenceColumn)
	}
	return append(cols, yearColumn, ds.DayColumn)
}

// quoteString renders a string literal, doubling embedded single quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func checkIdentifier(id string) error {
	if !identifierRe.MatchString(id) {
		return fmt.Errorf("%w: invalid identifier %q", alerts.ErrUnsupportedScope, id)
	}
	return nil
}
