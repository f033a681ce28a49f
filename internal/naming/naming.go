// Package naming rewrites metric names to Prometheus conventions and renders label sets.
package naming

import (
	"strings"
	"unicode"

	prom "github.com/prometheus/common/model"

	"github.com/and161185/metricspush/model"
)

// CounterSuffix is appended to counter families that lack it.
const CounterSuffix = "_total"

// Warning texts are stable so callers can match on them.
const (
	WarnDoubleUnderscore = "metric name contains consecutive underscores"
	WarnLeadingDigit     = "metric name begins with a digit"
	WarnInvalidChars     = "metric name contains characters outside [a-zA-Z0-9_:]"
	WarnGaugeTotal       = "gauge metric name ends with _total"
	WarnInvalidLabelName = "label name is not a valid Prometheus label name"
)

// Name is a normalized family name with its diagnostics.
type Name struct {
	Name      string
	Violation bool     // gauge named like a counter
	Warnings  []string // diagnostic only, never block emission
}

// Normalize converts a dotted family name for the given type.
func Normalize(family string, t model.MetricType) Name {
	name := strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, family)

	var n Name
	switch t {
	case model.Counter:
		if !strings.HasSuffix(name, CounterSuffix) {
			name += CounterSuffix
		}
	default:
		if strings.HasSuffix(name, CounterSuffix) {
			n.Violation = true
		}
	}
	n.Name = name

	if strings.Contains(name, "__") {
		n.Warnings = append(n.Warnings, WarnDoubleUnderscore)
	}
	leadingDigit := name != "" && name[0] >= '0' && name[0] <= '9'
	if leadingDigit {
		n.Warnings = append(n.Warnings, WarnLeadingDigit)
	}
	if !leadingDigit && !prom.IsValidLegacyMetricName(name) {
		n.Warnings = append(n.Warnings, WarnInvalidChars)
	}
	return n
}

// EscapeHelp escapes a HELP docstring.
func EscapeHelp(s string) string {
	if !strings.ContainsAny(s, "\\\n") {
		return s
	}
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(s)
}
