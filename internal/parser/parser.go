// Package parser decodes newline-delimited JSON metric events.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/and161185/metricspush/internal/errs"
	"github.com/and161185/metricspush/model"
)

// MaxLineSize bounds a single event line.
const MaxLineSize = 1 << 20

type rawRecord struct {
	Metric    any            `json:"metric"`
	Type      any            `json:"type"`
	Value     any            `json:"value"`
	Tags      map[string]any `json:"tags"`
	Timestamp any            `json:"timestamp"`
}

// ParseLine decodes one line. Blank lines and lines starting with '#' yield (nil, nil).
// Errors wrap errs.ErrMalformedInput or errs.ErrMissingName.
func ParseLine(line string) (*model.Record, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	var raw rawRecord
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedInput, err)
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after event", errs.ErrMalformedInput)
	}

	name, ok := raw.Metric.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, errs.ErrMissingName
	}

	rec := &model.Record{Name: name}
	if s, ok := raw.Type.(string); ok {
		rec.DeclaredRaw = s
	} else if raw.Type != nil {
		rec.DeclaredRaw = scalarText(raw.Type)
	}
	rec.Type, _ = model.ParseMetricType(rec.DeclaredRaw)

	if raw.Value != nil {
		v := scalarText(raw.Value)
		rec.Value = &v
	}

	if len(raw.Tags) > 0 {
		rec.Tags = make(map[string]string, len(raw.Tags))
		for k, v := range raw.Tags {
			rec.Tags[k] = scalarText(v)
		}
	}

	if n, ok := raw.Timestamp.(json.Number); ok {
		if ms, err := strconv.ParseInt(n.String(), 10, 64); err == nil && ms >= 0 {
			rec.TimestampMs = &ms
		}
	}
	return rec, nil
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Reader yields records from a line source, skipping blank and comment lines.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{sc: sc}
}

// Line returns the number of the line read last.
func (r *Reader) Line() int { return r.line }

// Next returns the next record, io.EOF at the end of input,
// or a per-line decode error; reading may continue after a decode error.
func (r *Reader) Next() (*model.Record, error) {
	for r.sc.Scan() {
		r.line++
		rec, err := ParseLine(r.sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		if rec == nil {
			continue
		}
		rec.Line = r.line
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("read metrics log: %w", err)
	}
	return nil, io.EOF
}
