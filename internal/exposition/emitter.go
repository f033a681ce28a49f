// Package exposition writes Prometheus text exposition lines.
package exposition

import (
	"fmt"
	"io"
	"strconv"

	"github.com/and161185/metricspush/internal/naming"
	"github.com/and161185/metricspush/model"
)

// MaxTimestampMs is the exclusive upper bound for sample timestamps (year 3000).
const MaxTimestampMs int64 = 32503680000000

// Options control optional parts of the output.
type Options struct {
	NoMetadata bool // omit HELP and TYPE lines
	Timestamps bool // append sample timestamps when the record has one
}

// Sample is one fully resolved output line.
type Sample struct {
	Family      string
	Type        model.MetricType
	Help        string
	Labels      map[string]string
	Value       string
	TimestampMs *int64
}

// Emitter writes samples and documents each family exactly once.
type Emitter struct {
	w          io.Writer
	opts       Options
	documented map[string]model.MetricType
}

func NewEmitter(w io.Writer, opts Options) *Emitter {
	return &Emitter{w: w, opts: opts, documented: make(map[string]model.MetricType)}
}

// Documented reports the type a family was first emitted with.
func (e *Emitter) Documented(family string) (model.MetricType, bool) {
	t, ok := e.documented[family]
	return t, ok
}

// DefaultHelp is used when the config carries no help text for a family.
func DefaultHelp(family string) string {
	return family + " metric exported from StatsD events"
}

// Emit writes s, preceded by HELP and TYPE on the family's first sample.
func (e *Emitter) Emit(s Sample) error {
	if _, seen := e.documented[s.Family]; !seen {
		e.documented[s.Family] = s.Type
		if !e.opts.NoMetadata {
			help := s.Help
			if help == "" {
				help = DefaultHelp(s.Family)
			}
			if _, err := fmt.Fprintf(e.w, "# HELP %s %s\n# TYPE %s %s\n",
				s.Family, naming.EscapeHelp(help), s.Family, s.Type); err != nil {
				return fmt.Errorf("write metadata: %w", err)
			}
		}
	}

	line := s.Family
	if labels := naming.RenderLabels(s.Labels); labels != "" {
		line += "{" + labels + "}"
	}
	line += " " + s.Value
	if e.opts.Timestamps && s.TimestampMs != nil && *s.TimestampMs >= 0 && *s.TimestampMs < MaxTimestampMs {
		line += " " + FormatTimestamp(*s.TimestampMs)
	}
	if _, err := io.WriteString(e.w, line+"\n"); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}

// FormatTimestamp renders milliseconds as seconds with three decimals.
func FormatTimestamp(ms int64) string {
	frac := strconv.FormatInt(ms%1000, 10)
	for len(frac) < 3 {
		frac = "0" + frac
	}
	return strconv.FormatInt(ms/1000, 10) + "." + frac
}
