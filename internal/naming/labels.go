package naming

import (
	"sort"
	"strings"

	prom "github.com/prometheus/common/model"
)

var labelValueEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
	"\t", `\t`,
)

// EscapeLabelValue escapes backslash, double quote, CR, LF and TAB.
func EscapeLabelValue(v string) string {
	return labelValueEscaper.Replace(v)
}

// RenderLabels renders labels as k="v" pairs sorted by key and joined by commas.
// It returns "" for an empty set.
func RenderLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(EscapeLabelValue(labels[k]))
		b.WriteByte('"')
	}
	return b.String()
}

// InvalidLabelNames returns, sorted, the keys that Prometheus would reject.
func InvalidLabelNames(labels map[string]string) []string {
	var bad []string
	for k := range labels {
		if !prom.LabelName(k).IsValidLegacy() {
			bad = append(bad, k)
		}
	}
	sort.Strings(bad)
	return bad
}
