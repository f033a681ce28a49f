package config

import (
	"github.com/spf13/pflag"
)

// BindTransformFlags registers the transform flags on fs with o's current values as defaults.
func BindTransformFlags(fs *pflag.FlagSet, o *Options) {
	t := &o.Transform
	fs.StringVarP(&t.Input, "input", "i", t.Input, "NDJSON metrics log, - for stdin")
	fs.StringVarP(&t.Output, "output", "o", t.Output, "exposition output file, - for stdout")
	fs.StringVarP(&t.MetaConfig, "config", "c", t.MetaConfig, "metric metadata/alias config (JSON or YAML)")
	fs.StringVar(&t.Filter, "match", t.Filter, "only process metrics whose original name matches this regexp")
	fs.StringVar(&t.CounterDefault, "counter-default", t.CounterDefault, "value for counters without one")
	fs.BoolVar(&t.Strict, "strict", t.Strict, "abort on the first invalid record")
	fs.BoolVar(&t.FailOnWarn, "fail-on-warn", t.FailOnWarn, "exit non-zero when any warning was raised")
	fs.BoolVar(&t.NoMetadata, "no-metadata", t.NoMetadata, "omit HELP and TYPE lines")
	fs.BoolVar(&t.Timestamps, "timestamps", t.Timestamps, "append sample timestamps")
}

// BindDeliveryFlags registers the delivery flags. The signing key itself is never a flag.
func BindDeliveryFlags(fs *pflag.FlagSet, o *Options) {
	d := &o.Delivery
	fs.StringVarP(&d.Endpoint, "endpoint", "e", d.Endpoint, "ingestion endpoint URL")
	fs.StringVarP(&d.Runner, "runner", "r", d.Runner, "runner identifier put in the payload")
	fs.StringVar(&d.KeyFile, "key-file", d.KeyFile, "PEM private key used to sign the metrics")
	fs.StringVarP(&d.HashKey, "hash-key", "k", d.HashKey, "HMAC key for the HashSHA256 header")
	fs.IntVar(&d.MaxRetries, "max-retries", d.MaxRetries, "total delivery attempts")
	fs.DurationVar(&d.BaseDelay, "base-delay", d.BaseDelay, "wait before the second attempt, doubled after each failure")
	fs.DurationVar(&d.JitterMax, "jitter-max", d.JitterMax, "upper bound of the random delay added to each wait")
	fs.DurationVar(&d.Timeout, "timeout", d.Timeout, "per-attempt HTTP timeout")
	fs.IntVar(&d.PreviewSize, "preview-bytes", d.PreviewSize, "response body bytes kept for diagnostics")
	fs.BoolVar(&d.Gzip, "gzip", d.Gzip, "gzip the request body")
	fs.BoolVar(&d.DryRun, "dry-run", d.DryRun, "build the payload but do not send it")
}

// BindCommonFlags registers flags shared by every command.
func BindCommonFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.OptionsFile, "options", o.OptionsFile, "JSON or YAML options file")
	fs.StringVar(&o.Log.Level, "log-level", o.Log.Level, "debug, info, warn or error")
	fs.BoolVar(&o.Log.Development, "log-dev", o.Log.Development, "human-readable development logging")
}

// Load applies the options file and the environment on top of the parsed flags.
func Load(fs *pflag.FlagSet, o *Options) error {
	if o.OptionsFile == "" {
		o.OptionsFile = lookupEnv(EnvOptions)
	}
	if o.OptionsFile != "" {
		f, err := loadOptionsFile(o.OptionsFile)
		if err != nil {
			return err
		}
		f.apply(o, fs.Changed)
	}
	return readEnvironment(o)
}
