// Command receiver accepts metricspush deliveries and serves them back per runner.
package main

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/and161185/metricspush/internal/buildinfo"
	"github.com/and161185/metricspush/internal/config"
	mpcrypto "github.com/and161185/metricspush/internal/crypto"
	"github.com/and161185/metricspush/internal/ingest"
	"github.com/and161185/metricspush/storage/inmemory"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, buildinfo.New(buildVersion, buildDate, buildCommit))
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, info buildinfo.Info) (err error) {
	if err := info.Fprint(stdout); err != nil {
		return err
	}

	o := config.ReceiverDefaults()
	fs := pflag.NewFlagSet("receiver", pflag.ContinueOnError)
	config.BindReceiverFlags(fs, &o)
	if err := config.LoadReceiver(fs, args, &o); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(o.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var pub crypto.PublicKey
	if o.PublicKeyFile != "" {
		if pub, err = mpcrypto.LoadPublicKey(o.PublicKeyFile); err != nil {
			return err
		}
	}

	st := inmemory.NewMemStorage(ctx)
	if o.StoreFile != "" {
		if err := st.LoadFromFile(ctx, o.StoreFile); err != nil {
			return err
		}
		defer func() {
			if saveErr := st.SaveToFile(context.WithoutCancel(ctx), o.StoreFile); saveErr != nil {
				err = multierr.Append(err, saveErr)
				return
			}
			logger.Infow("saved submissions", "file", o.StoreFile)
		}()
	}

	logger.Infow("receiver config",
		"addr", o.Addr,
		"public_key", o.PublicKeyFile != "",
		"require_signature", o.RequireSignature,
		"hash_key", o.HashKey != "",
		"trusted_subnet", o.TrustedSubnet,
		"store_file", o.StoreFile,
	)

	srv, err := ingest.NewServer(st, ingest.Config{
		Addr:             o.Addr,
		PublicKey:        pub,
		RequireSignature: o.RequireSignature,
		HashKey:          o.HashKey,
		TrustedSubnet:    o.TrustedSubnet,
		MaxBodyBytes:     o.MaxBodyBytes,
	}, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
