package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// optionsFile mirrors Options with pointer fields so absent keys are distinguishable.
type optionsFile struct {
	Input          *string `json:"input" yaml:"input"`
	Output         *string `json:"output" yaml:"output"`
	Config         *string `json:"config" yaml:"config"`
	Match          *string `json:"match" yaml:"match"`
	CounterDefault *string `json:"counter_default" yaml:"counter_default"`
	Strict         *bool   `json:"strict" yaml:"strict"`
	FailOnWarn     *bool   `json:"fail_on_warn" yaml:"fail_on_warn"`
	NoMetadata     *bool   `json:"no_metadata" yaml:"no_metadata"`
	Timestamps     *bool   `json:"timestamps" yaml:"timestamps"`

	Endpoint     *string `json:"endpoint" yaml:"endpoint"`
	Runner       *string `json:"runner" yaml:"runner"`
	KeyFile      *string `json:"key_file" yaml:"key_file"`
	HashKey      *string `json:"hash_key" yaml:"hash_key"`
	MaxRetries   *int    `json:"max_retries" yaml:"max_retries"`
	BaseDelay    *string `json:"base_delay" yaml:"base_delay"` // "1s"
	JitterMax    *string `json:"jitter_max" yaml:"jitter_max"`
	Timeout      *string `json:"timeout" yaml:"timeout"`
	PreviewBytes *int    `json:"preview_bytes" yaml:"preview_bytes"`
	Gzip         *bool   `json:"gzip" yaml:"gzip"`
	DryRun       *bool   `json:"dry_run" yaml:"dry_run"`

	LogLevel *string `json:"log_level" yaml:"log_level"`
	LogDev   *bool   `json:"log_dev" yaml:"log_dev"`

	baseDelay, jitterMax, timeout time.Duration
}

func loadOptionsFile(path string) (*optionsFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options file: %w", err)
	}

	var f optionsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	default:
		err = json.Unmarshal(b, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse options file %s: %w", path, err)
	}

	for _, d := range []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"base_delay", f.BaseDelay, &f.baseDelay},
		{"jitter_max", f.JitterMax, &f.jitterMax},
		{"timeout", f.Timeout, &f.timeout},
	} {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return nil, fmt.Errorf("options file %s: %s: %w", path, d.name, err)
		}
		*d.dst = v
	}
	return &f, nil
}

// apply copies every present field whose flag was not set on the command line.
func (f *optionsFile) apply(o *Options, changed func(flag string) bool) {
	setStr := func(flag string, src *string, dst *string) {
		if src != nil && !changed(flag) {
			*dst = *src
		}
	}
	setBool := func(flag string, src *bool, dst *bool) {
		if src != nil && !changed(flag) {
			*dst = *src
		}
	}
	setInt := func(flag string, src *int, dst *int) {
		if src != nil && !changed(flag) {
			*dst = *src
		}
	}
	setDur := func(flag string, present *string, v time.Duration, dst *time.Duration) {
		if present != nil && !changed(flag) {
			*dst = v
		}
	}

	t := &o.Transform
	setStr("input", f.Input, &t.Input)
	setStr("output", f.Output, &t.Output)
	setStr("config", f.Config, &t.MetaConfig)
	setStr("match", f.Match, &t.Filter)
	setStr("counter-default", f.CounterDefault, &t.CounterDefault)
	setBool("strict", f.Strict, &t.Strict)
	setBool("fail-on-warn", f.FailOnWarn, &t.FailOnWarn)
	setBool("no-metadata", f.NoMetadata, &t.NoMetadata)
	setBool("timestamps", f.Timestamps, &t.Timestamps)

	d := &o.Delivery
	setStr("endpoint", f.Endpoint, &d.Endpoint)
	setStr("runner", f.Runner, &d.Runner)
	setStr("key-file", f.KeyFile, &d.KeyFile)
	setStr("hash-key", f.HashKey, &d.HashKey)
	setInt("max-retries", f.MaxRetries, &d.MaxRetries)
	setDur("base-delay", f.BaseDelay, f.baseDelay, &d.BaseDelay)
	setDur("jitter-max", f.JitterMax, f.jitterMax, &d.JitterMax)
	setDur("timeout", f.Timeout, f.timeout, &d.Timeout)
	setInt("preview-bytes", f.PreviewBytes, &d.PreviewSize)
	setBool("gzip", f.Gzip, &d.Gzip)
	setBool("dry-run", f.DryRun, &d.DryRun)

	setStr("log-level", f.LogLevel, &o.Log.Level)
	setBool("log-dev", f.LogDev, &o.Log.Development)
}
