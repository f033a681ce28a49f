package exposition

import (
	"fmt"
	"regexp"

	"github.com/and161185/metricspush/internal/errs"
	"github.com/and161185/metricspush/model"
)

// DefaultCounterValue substitutes a missing counter value.
const DefaultCounterValue = "1"

var decimalRE = regexp.MustCompile(`^[-+]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][-+]?[0-9]+)?$`)

// IsDecimal reports whether s is an optionally signed decimal number.
func IsDecimal(s string) bool {
	return decimalRE.MatchString(s)
}

// ResolveValue returns the sample value for a record of type t.
// A missing counter value becomes counterDefault; a missing gauge value is errs.ErrMissingValue.
func ResolveValue(v *string, t model.MetricType, counterDefault string) (string, error) {
	var s string
	switch {
	case v != nil:
		s = *v
	case t == model.Counter:
		s = counterDefault
	default:
		return "", errs.ErrMissingValue
	}
	if !IsDecimal(s) {
		return "", fmt.Errorf("%w: %q", errs.ErrNonNumericValue, s)
	}
	return s, nil
}
