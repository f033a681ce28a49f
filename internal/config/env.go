package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// Environment variables. Each one overrides its flag and the options file.
const (
	EnvOptions    = "METRICSPUSH_OPTIONS"
	EnvInput      = "METRICSPUSH_INPUT"
	EnvOutput     = "METRICSPUSH_OUTPUT"
	EnvConfig     = "METRICSPUSH_CONFIG"
	EnvMatch      = "METRICSPUSH_MATCH"
	EnvStrict     = "METRICSPUSH_STRICT"
	EnvFailOnWarn = "METRICSPUSH_FAIL_ON_WARN"
	EnvEndpoint   = "METRICSPUSH_ENDPOINT"
	EnvRunner     = "METRICSPUSH_RUNNER"
	EnvKeyFile    = "METRICSPUSH_KEY_FILE"
	EnvHashKey    = "METRICSPUSH_HASH_KEY"
	EnvMaxRetries = "METRICSPUSH_MAX_RETRIES"
	EnvBaseDelay  = "METRICSPUSH_BASE_DELAY"
	EnvJitterMax  = "METRICSPUSH_JITTER_MAX"
	EnvTimeout    = "METRICSPUSH_TIMEOUT"
	EnvDryRun     = "METRICSPUSH_DRY_RUN"
	EnvLogLevel   = "METRICSPUSH_LOG_LEVEL"
	EnvSigningKey = "SIGNING_KEY"
)

func lookupEnv(name string) string {
	return os.Getenv(name)
}

func readEnvironment(o *Options) error {
	var errs error

	str := func(name string, dst *string) {
		if v := lookupEnv(name); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v := lookupEnv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("invalid %s env var: %w", name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v := lookupEnv(name); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("invalid %s env var: %w", name, err))
				return
			}
			*dst = i
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v := lookupEnv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("invalid %s env var: %w", name, err))
				return
			}
			*dst = d
		}
	}

	t := &o.Transform
	str(EnvInput, &t.Input)
	str(EnvOutput, &t.Output)
	str(EnvConfig, &t.MetaConfig)
	str(EnvMatch, &t.Filter)
	boolean(EnvStrict, &t.Strict)
	boolean(EnvFailOnWarn, &t.FailOnWarn)

	d := &o.Delivery
	str(EnvEndpoint, &d.Endpoint)
	str(EnvRunner, &d.Runner)
	str(EnvKeyFile, &d.KeyFile)
	str(EnvHashKey, &d.HashKey)
	str(EnvSigningKey, &d.SigningKey)
	integer(EnvMaxRetries, &d.MaxRetries)
	duration(EnvBaseDelay, &d.BaseDelay)
	duration(EnvJitterMax, &d.JitterMax)
	duration(EnvTimeout, &d.Timeout)
	boolean(EnvDryRun, &d.DryRun)

	str(EnvLogLevel, &o.Log.Level)
	return errs
}
