// Package model contains core data types for the project.
package model

import (
	"strings"
	"time"
)

// MetricType defines the type of a metric: gauge or counter.
type MetricType string

const (
	Gauge   MetricType = "gauge"   // Gauge may go up and down.
	Counter MetricType = "counter" // Counter is monotonically non-decreasing.
)

// ParseMetricType normalizes a StatsD-style type string.
// Unknown and empty values fall back to Gauge; ok reports whether s was recognised.
func ParseMetricType(s string) (t MetricType, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "counter", "count", "c":
		return Counter, true
	case "gauge", "guage", "g":
		return Gauge, true
	case "":
		return Gauge, true
	default:
		return Gauge, false
	}
}

// Record is a single decoded line of the metrics log.
type Record struct {
	Name        string            // Dotted metric name as it appeared in the log.
	Type        MetricType        // Declared type after normalization.
	DeclaredRaw string            // Declared type exactly as written, "" when absent.
	Value       *string           // Decimal text of the value, nil when absent.
	Tags        map[string]string // Rendered tag values.
	TimestampMs *int64            // Milliseconds since epoch, nil when absent or not an integer.
	Line        int               // 1-based line number in the source.
}

// Alias redirects a metric into another family and injects labels.
type Alias struct {
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ConfigEntry is the per-metric metadata section of the config file.
type ConfigEntry struct {
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Help  string `json:"help,omitempty" yaml:"help,omitempty"`
	Alias *Alias `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Payload is the delivery envelope.
type Payload struct {
	Runner    string `json:"runner"`
	Metrics   string `json:"metrics"`
	Signature string `json:"signature,omitempty"`
}

// Submission is a payload accepted by the receiver.
type Submission struct {
	Runner     string    `json:"runner"`
	Metrics    string    `json:"metrics"`
	Signed     bool      `json:"signed"`
	Parsed     bool      `json:"parsed"`   // Metrics parsed as Prometheus text
	Families   int       `json:"families"` // metric families found when Parsed
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
