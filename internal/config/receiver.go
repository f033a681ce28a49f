package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

// Receiver environment variables, named the way the metrics server reads them.
const (
	EnvReceiverAddr      = "ADDRESS"
	EnvReceiverKey       = "KEY"
	EnvReceiverPublicKey = "CRYPTO_KEY"
	EnvReceiverRequire   = "REQUIRE_SIGNATURE"
	EnvReceiverSubnet    = "TRUSTED_SUBNET"
	EnvReceiverStoreFile = "FILE_STORAGE_PATH"
	EnvReceiverLogLevel  = "LOG_LEVEL"
)

// ReceiverOptions configure the reference receiver.
type ReceiverOptions struct {
	Addr             string `validate:"required,hostname_port"`
	PublicKeyFile    string // PEM public key verifying payload signatures
	RequireSignature bool
	HashKey          string
	TrustedSubnet    string `validate:"omitempty,cidr"`
	StoreFile        string // snapshot restored on start and written on shutdown
	MaxBodyBytes     int64  `validate:"gte=0"`

	Log LogOptions
}

// ReceiverDefaults returns the receiver option values used when nothing else is configured.
func ReceiverDefaults() ReceiverOptions {
	return ReceiverOptions{
		Addr: "localhost:8080",
		Log:  LogOptions{Level: "info"},
	}
}

// BindReceiverFlags registers the receiver flags on fs.
func BindReceiverFlags(fs *pflag.FlagSet, o *ReceiverOptions) {
	fs.StringVarP(&o.Addr, "address", "a", o.Addr, "listen address host:port")
	fs.StringVarP(&o.PublicKeyFile, "public-key", "p", o.PublicKeyFile, "PEM public key verifying payload signatures")
	fs.BoolVar(&o.RequireSignature, "require-signature", o.RequireSignature, "reject unsigned payloads")
	fs.StringVarP(&o.HashKey, "key", "k", o.HashKey, "HMAC key for the HashSHA256 header")
	fs.StringVarP(&o.TrustedSubnet, "trusted-subnet", "t", o.TrustedSubnet, "CIDR allowed to post payloads, checked against X-Real-IP")
	fs.StringVarP(&o.StoreFile, "store-file", "f", o.StoreFile, "submission snapshot file")
	fs.Int64Var(&o.MaxBodyBytes, "max-body-bytes", o.MaxBodyBytes, "largest accepted payload after decompression, 0 for the default")
	fs.StringVar(&o.Log.Level, "log-level", o.Log.Level, "debug, info, warn or error")
	fs.BoolVar(&o.Log.Development, "log-dev", o.Log.Development, "human-readable development logging")
}

// LoadReceiver parses args into o and then applies the environment.
func LoadReceiver(fs *pflag.FlagSet, args []string, o *ReceiverOptions) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	return readReceiverEnvironment(o)
}

func readReceiverEnvironment(o *ReceiverOptions) error {
	var errs error

	str := func(name string, dst *string) {
		if v := lookupEnv(name); v != "" {
			*dst = v
		}
	}
	str(EnvReceiverAddr, &o.Addr)
	str(EnvReceiverKey, &o.HashKey)
	str(EnvReceiverPublicKey, &o.PublicKeyFile)
	str(EnvReceiverSubnet, &o.TrustedSubnet)
	str(EnvReceiverStoreFile, &o.StoreFile)
	str(EnvReceiverLogLevel, &o.Log.Level)

	if v := lookupEnv(EnvReceiverRequire); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid %s env var: %w", EnvReceiverRequire, err))
		} else {
			o.RequireSignature = b
		}
	}
	return errs
}

// Validate checks the receiver options.
func (o *ReceiverOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid receiver options: %w", err)
	}
	if o.RequireSignature && o.PublicKeyFile == "" {
		return errors.New("invalid receiver options: --require-signature needs --public-key")
	}
	return nil
}
