// Package config provides the option sets of the metricspush and receiver commands.
//
// Layering, lowest first: defaults, options file, command-line flags, environment.
// A flag that was set explicitly is never overridden by the options file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/metricspush/internal/delivery"
	"github.com/and161185/metricspush/internal/exposition"
)

// Options holds every setting of the metricspush commands.
type Options struct {
	OptionsFile string

	Transform TransformOptions
	Delivery  DeliveryOptions
	Log       LogOptions
}

// TransformOptions configure the NDJSON to exposition stage.
type TransformOptions struct {
	Input          string `validate:"required"` // "-" is stdin
	Output         string `validate:"required"` // "-" is stdout
	MetaConfig     string // JSON or YAML metric config
	Filter         string // regexp over original metric names
	CounterDefault string `validate:"required,decimal"`
	Strict         bool
	FailOnWarn     bool
	NoMetadata     bool
	Timestamps     bool
}

// DeliveryOptions configure signing and transport.
type DeliveryOptions struct {
	Endpoint    string        `validate:"omitempty,url"`
	Runner      string        `validate:"required"`
	KeyFile     string        // PEM private key
	SigningKey  string        // PEM content, environment only
	HashKey     string        // HMAC key for the HashSHA256 header
	MaxRetries  int           `validate:"gte=1,lte=20"`
	BaseDelay   time.Duration `validate:"gt=0"`
	JitterMax   time.Duration `validate:"gte=0"`
	Timeout     time.Duration `validate:"gt=0"`
	PreviewSize int           `validate:"gte=1"`
	Gzip        bool
	DryRun      bool
}

// LogOptions configure the diagnostic logger.
type LogOptions struct {
	Level       string `validate:"oneof=debug info warn error"`
	Development bool
}

// Defaults returns the option values used when nothing else is configured.
func Defaults() Options {
	return Options{
		Transform: TransformOptions{
			Input:          "-",
			Output:         "-",
			CounterDefault: "1",
		},
		Delivery: DeliveryOptions{
			MaxRetries:  delivery.DefaultMaxRetries,
			BaseDelay:   delivery.DefaultBaseDelay,
			JitterMax:   delivery.DefaultJitterMax,
			Timeout:     delivery.DefaultTimeout,
			PreviewSize: delivery.DefaultPreviewSize,
		},
		Log: LogOptions{Level: "info"},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		return exposition.IsDecimal(fl.Field().String())
	})
	return v
}

// ValidateTransform checks the options used by every command that transforms.
func (o *Options) ValidateTransform() error {
	if err := validate.Struct(o.Transform); err != nil {
		return fmt.Errorf("invalid transform options: %w", err)
	}
	return o.validateLog()
}

// ValidateDelivery checks the options used by every command that sends.
func (o *Options) ValidateDelivery() error {
	if err := validate.Struct(o.Delivery); err != nil {
		return fmt.Errorf("invalid delivery options: %w", err)
	}
	if o.Delivery.Endpoint == "" && !o.Delivery.DryRun {
		return errors.New("invalid delivery options: endpoint is required unless --dry-run is set")
	}
	return o.validateLog()
}

func (o *Options) validateLog() error {
	if err := validate.Struct(o.Log); err != nil {
		return fmt.Errorf("invalid log options: %w", err)
	}
	return nil
}

// EngineConfig maps the delivery options onto the engine's configuration.
func (d DeliveryOptions) EngineConfig(userAgent string) delivery.Config {
	return delivery.Config{
		Endpoint:    d.Endpoint,
		MaxRetries:  d.MaxRetries,
		BaseDelay:   d.BaseDelay,
		JitterMax:   d.JitterMax,
		Timeout:     d.Timeout,
		PreviewSize: d.PreviewSize,
		HashKey:     d.HashKey,
		UserAgent:   userAgent,
		Gzip:        d.Gzip,
		DryRun:      d.DryRun,
	}
}
