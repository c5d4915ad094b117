package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/glad-analysis/internal/aggregate"
	"github.com/robert-malhotra/glad-analysis/internal/geostore"
)

// Query parameter names.
const (
	paramGeostore        = "geostore"
	paramPeriod          = "period"
	paramAggregateValues = "aggregate_values"
	paramAggregateBy     = "aggregate_by"
	paramConfirmedOnly   = "gladConfirmOnly"
)

// ValidationError describes a rejected request parameter.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

func invalid(param, format string, args ...any) *ValidationError {
	return &ValidationError{Param: param, Message: fmt.Sprintf(format, args...)}
}

// requireGeostore checks that a geostore id is present.
func requireGeostore(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(paramGeostore, "geostore is required")
	}
	return nil
}

// checkPeriod checks the shape of an optional period. Date parsing and
// ordering are left to the analysis service.
func checkPeriod(period string) error {
	if period == "" {
		return nil
	}
	parts := strings.Split(period, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return invalid(paramPeriod, "period must be two dates separated by a comma, got %q", period)
	}
	return nil
}

// checkUseType checks a land-use layer name against the known layers.
func checkUseType(useType string) error {
	if !geostore.IsUseType(useType) {
		return invalid("useType", "unknown use type %q, expected one of %s",
			useType, strings.Join(geostore.UseTypes, ", "))
	}
	return nil
}

// checkISO checks that a country code is present.
func checkISO(iso string) error {
	if len(iso) != 3 {
		return invalid("iso", "iso must be a three letter country code, got %q", iso)
	}
	return nil
}

// checkAggregateBy checks that a given granularity is known.
func checkAggregateBy(value string) error {
	if value == "" {
		return nil
	}
	if _, ok := aggregate.ParseGranularity(value); !ok {
		return invalid(paramAggregateBy, "unknown aggregation %q, expected day, week, month, quarter or year", value)
	}
	return nil
}

// parseAdminID parses an optional positive admin level id. Empty means unset.
func parseAdminID(param, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, invalid(param, "must be a positive integer, got %q", value)
	}
	return n, nil
}

// parseBool parses an optional boolean flag. Empty means false.
func parseBool(param, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalid(param, "must be true or false, got %q", value)
	}
	return b, nil
}
