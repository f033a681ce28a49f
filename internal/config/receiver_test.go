package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

var clearReceiverEnv = map[string]string{
	EnvReceiverAddr:      "",
	EnvReceiverKey:       "",
	EnvReceiverPublicKey: "",
	EnvReceiverRequire:   "",
	EnvReceiverSubnet:    "",
	EnvReceiverStoreFile: "",
	EnvReceiverLogLevel:  "",
}

func loadReceiver(t *testing.T, args []string) (ReceiverOptions, error) {
	t.Helper()
	o := ReceiverDefaults()
	fs := pflag.NewFlagSet("receiver", pflag.ContinueOnError)
	BindReceiverFlags(fs, &o)
	err := LoadReceiver(fs, args, &o)
	return o, err
}

func TestReceiverDefaults(t *testing.T) {
	setEnvAndRun(t, clearReceiverEnv, func() {
		o, err := loadReceiver(t, nil)
		require.NoError(t, err)
		require.NoError(t, o.Validate())
		require.Equal(t, "localhost:8080", o.Addr)
		require.Equal(t, "info", o.Log.Level)
	})
}

func TestReceiverFlags(t *testing.T) {
	setEnvAndRun(t, clearReceiverEnv, func() {
		o, err := loadReceiver(t, []string{"-a", "0.0.0.0:9090", "-p", "pub.pem", "--require-signature", "-k", "secret", "-t", "10.0.0.0/8", "-f", "snap.json"})
		require.NoError(t, err)
		require.NoError(t, o.Validate())
		require.Equal(t, ReceiverOptions{
			Addr:             "0.0.0.0:9090",
			PublicKeyFile:    "pub.pem",
			RequireSignature: true,
			HashKey:          "secret",
			TrustedSubnet:    "10.0.0.0/8",
			StoreFile:        "snap.json",
			Log:              LogOptions{Level: "info"},
		}, o)
	})
}

func TestReceiverEnvOverridesFlags(t *testing.T) {
	env := map[string]string{
		EnvReceiverAddr:      "localhost:7000",
		EnvReceiverKey:       "env-key",
		EnvReceiverPublicKey: "env.pem",
		EnvReceiverRequire:   "true",
		EnvReceiverSubnet:    "192.168.0.0/16",
		EnvReceiverStoreFile: "env.json",
		EnvReceiverLogLevel:  "debug",
	}
	setEnvAndRun(t, env, func() {
		o, err := loadReceiver(t, []string{"-a", "localhost:9090", "-k", "flag-key"})
		require.NoError(t, err)
		require.Equal(t, "localhost:7000", o.Addr)
		require.Equal(t, "env-key", o.HashKey)
		require.Equal(t, "env.pem", o.PublicKeyFile)
		require.True(t, o.RequireSignature)
		require.Equal(t, "192.168.0.0/16", o.TrustedSubnet)
		require.Equal(t, "env.json", o.StoreFile)
		require.Equal(t, "debug", o.Log.Level)
	})
}

func TestReceiverInvalidEnv(t *testing.T) {
	env := map[string]string{}
	for k, v := range clearReceiverEnv {
		env[k] = v
	}
	env[EnvReceiverRequire] = "maybe"
	setEnvAndRun(t, env, func() {
		_, err := loadReceiver(t, nil)
		require.ErrorContains(t, err, EnvReceiverRequire)
	})
}

func TestReceiverValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ReceiverOptions)
		wantErr bool
	}{
		{"ok", func(*ReceiverOptions) {}, false},
		{"empty_addr", func(o *ReceiverOptions) { o.Addr = "" }, true},
		{"bad_addr", func(o *ReceiverOptions) { o.Addr = "no-port" }, true},
		{"bad_subnet", func(o *ReceiverOptions) { o.TrustedSubnet = "10.0.0.0/99" }, true},
		{"require_without_key", func(o *ReceiverOptions) { o.RequireSignature = true }, true},
		{"require_with_key", func(o *ReceiverOptions) { o.RequireSignature = true; o.PublicKeyFile = "pub.pem" }, false},
		{"bad_level", func(o *ReceiverOptions) { o.Log.Level = "loud" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := ReceiverDefaults()
			tc.mutate(&o)
			err := o.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
