package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/metricspush/internal/buildinfo"
	"github.com/and161185/metricspush/internal/config"
	"github.com/and161185/metricspush/model"
	"github.com/and161185/metricspush/storage/inmemory"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvReceiverAddr, config.EnvReceiverKey, config.EnvReceiverPublicKey,
		config.EnvReceiverRequire, config.EnvReceiverSubnet, config.EnvReceiverStoreFile,
		config.EnvReceiverLogLevel,
	} {
		t.Setenv(k, "")
	}
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestRun_PrintsBuildInfo(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer
	err := run(canceled(), []string{"--address", "127.0.0.1:18089", "--log-level", "error"}, &out, buildinfo.New("1.2.3", "", ""))
	require.NoError(t, err)
	require.Contains(t, out.String(), "Build version: 1.2.3")
	require.Contains(t, out.String(), "Build date: N/A")
}

func TestRun_InvalidOptions(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown_flag", []string{"--bogus"}},
		{"bad_address", []string{"--address", "nope"}},
		{"require_without_key", []string{"--require-signature"}},
		{"missing_public_key", []string{"--public-key", filepath.Join(t.TempDir(), "missing.pem")}},
		{"bad_subnet", []string{"--trusted-subnet", "10.0.0.0/77"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := run(canceled(), append(tc.args, "--log-level", "error"), &bytes.Buffer{}, buildinfo.New("", "", ""))
			require.Error(t, err)
		})
	}
}

func TestRun_Help(t *testing.T) {
	clearEnv(t)
	require.NoError(t, run(canceled(), []string{"--help"}, &bytes.Buffer{}, buildinfo.New("", "", "")))
}

func TestRun_RestoresAndSavesSnapshot(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "snapshot.json")

	seed := inmemory.NewMemStorage(ctx)
	require.NoError(t, seed.Save(ctx, &model.Submission{Runner: "ci-1", Metrics: "a 1\n"}))
	require.NoError(t, seed.SaveToFile(ctx, file))

	err := run(canceled(), []string{"--address", "127.0.0.1:18090", "--store-file", file, "--log-level", "error"}, &bytes.Buffer{}, buildinfo.New("", "", ""))
	require.NoError(t, err)

	restored := inmemory.NewMemStorage(ctx)
	require.NoError(t, restored.LoadFromFile(ctx, file))
	sub, err := restored.Get(ctx, "ci-1")
	require.NoError(t, err)
	require.Equal(t, "a 1\n", sub.Metrics)
}
