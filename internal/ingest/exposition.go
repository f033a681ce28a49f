package ingest

import (
	"strings"

	"github.com/prometheus/common/expfmt"
)

// countFamilies parses text as Prometheus text exposition.
// The parser only accepts integer millisecond timestamps, so output written with
// --timestamps fails here; callers log the error and still store the text.
func countFamilies(text string) (int, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(text))
	if err != nil {
		return 0, err
	}
	return len(mfs), nil
}
