package metaconfig

import (
	"sort"

	"github.com/and161185/metricspush/internal/errs"
)

// DetectCycles rejects self-aliases and mutual alias pairs.
// Longer cycles (a->b->c->a) are not detected.
func DetectCycles(c Config) error {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, from := range names {
		to := c.Lookup(from).Target()
		if to == "" {
			continue
		}
		if to == from {
			return &errs.AliasCycleError{From: from, To: to}
		}
		if c.Lookup(to).Target() == from {
			return &errs.AliasCycleError{From: from, To: to}
		}
	}
	return nil
}
