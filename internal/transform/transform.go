// Package transform converts a metrics event log into Prometheus exposition text.
package transform

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/and161185/metricspush/internal/errs"
	"github.com/and161185/metricspush/internal/exposition"
	"github.com/and161185/metricspush/internal/metaconfig"
	"github.com/and161185/metricspush/internal/naming"
	"github.com/and161185/metricspush/internal/parser"
	"github.com/and161185/metricspush/internal/run"
	"github.com/and161185/metricspush/model"
)

// Options configure a transform run.
type Options struct {
	Filter         *regexp.Regexp // matched against the original metric name
	CounterDefault string         // value for counters without one
	Output         exposition.Options
}

// Transformer is built once per run from an immutable config.
type Transformer struct {
	cfg  metaconfig.Config
	opts Options
}

// New validates the alias graph before any record is read.
func New(cfg metaconfig.Config, opts Options) (*Transformer, error) {
	if cfg == nil {
		cfg = metaconfig.Config{}
	}
	if err := metaconfig.DetectCycles(cfg); err != nil {
		return nil, err
	}
	if opts.CounterDefault == "" {
		opts.CounterDefault = exposition.DefaultCounterValue
	}
	return &Transformer{cfg: cfg, opts: opts}, nil
}

type state struct {
	rc        *run.Context
	em        *exposition.Emitter
	diagnosed map[string]bool
}

// Run streams in to out. A fatal error leaves whatever was already written in out.
func (t *Transformer) Run(rc *run.Context, in io.Reader, out io.Writer) error {
	st := &state{
		rc:        rc,
		em:        exposition.NewEmitter(out, t.opts.Output),
		diagnosed: make(map[string]bool),
	}
	r := parser.NewReader(in)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !errors.Is(err, errs.ErrMalformedInput) && !errors.Is(err, errs.ErrMissingName) {
				return err
			}
			rc.Stats.Processed++
			rc.Stats.SkippedInvalid++
			if fatal := rc.Check(errs.ExitMalformedInput, err, "line", r.Line()); fatal != nil {
				return fatal
			}
			continue
		}

		rc.Stats.Processed++
		if t.opts.Filter != nil && !t.opts.Filter.MatchString(rec.Name) {
			rc.Stats.SkippedFiltered++
			continue
		}
		if err := t.process(st, rec); err != nil {
			return err
		}
	}

	if rc.Strict && rc.Stats.Emitted == 0 {
		return errs.NewFatal(errs.ExitEmptyOutput, errs.ErrEmptyOutput)
	}
	return nil
}

func (t *Transformer) process(st *state, rec *model.Record) error {
	rc := st.rc
	if _, known := model.ParseMetricType(rec.DeclaredRaw); !known {
		rc.Log.Debugw("unknown metric type, using gauge", "metric", rec.Name, "type", rec.DeclaredRaw, "line", rec.Line)
	}

	res := t.cfg.Resolve(rec)
	if res.Conflict {
		err := fmt.Errorf("%w: %q declares %q but family %q declares %q",
			errs.ErrTypeConflict, rec.Name, res.OwnType, res.Family, res.FamilyType)
		if fatal := rc.Check(errs.ExitGeneric, err, "line", rec.Line, "resolved_type", res.Type); fatal != nil {
			return fatal
		}
	}

	name := naming.Normalize(res.Family, res.Type)
	first := !st.diagnosed[name.Name]
	st.diagnosed[name.Name] = true

	// Strict mode rejects every offending record; lenient mode warns once per family.
	if name.Violation && (first || rc.Strict) {
		err := fmt.Errorf("%w: %s", errs.ErrNamingViolation, naming.WarnGaugeTotal)
		if fatal := rc.Check(errs.ExitNamingViolation, err, "metric", name.Name, "line", rec.Line); fatal != nil {
			return fatal
		}
	}
	if first {
		for _, w := range name.Warnings {
			rc.Warn(w, "metric", name.Name, "line", rec.Line)
		}
		for _, l := range naming.InvalidLabelNames(res.Labels) {
			rc.Warn(naming.WarnInvalidLabelName, "metric", name.Name, "label", l, "line", rec.Line)
		}
	}

	value, err := exposition.ResolveValue(rec.Value, res.Type, t.opts.CounterDefault)
	if err != nil {
		rc.Stats.SkippedInvalid++
		if errors.Is(err, errs.ErrMissingValue) && !rc.Strict {
			rc.Log.Debugw("gauge without value skipped", "metric", rec.Name, "line", rec.Line)
			return nil
		}
		return rc.Check(errs.ExitMalformedInput, err, "metric", rec.Name, "line", rec.Line)
	}

	if typ, ok := st.em.Documented(name.Name); ok && typ != res.Type {
		rc.Warn("family already documented with a different type",
			"metric", name.Name, "documented", typ, "resolved", res.Type, "line", rec.Line)
	}

	if err := st.em.Emit(exposition.Sample{
		Family:      name.Name,
		Type:        res.Type,
		Help:        res.Help,
		Labels:      res.Labels,
		Value:       value,
		TimestampMs: rec.TimestampMs,
	}); err != nil {
		return err
	}
	rc.Stats.Emitted++
	return nil
}
