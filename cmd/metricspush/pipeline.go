package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/and161185/metricspush/internal/config"
	"github.com/and161185/metricspush/internal/crypto"
	"github.com/and161185/metricspush/internal/delivery"
	"github.com/and161185/metricspush/internal/errs"
	"github.com/and161185/metricspush/internal/exposition"
	"github.com/and161185/metricspush/internal/metaconfig"
	"github.com/and161185/metricspush/internal/payload"
	"github.com/and161185/metricspush/internal/run"
	"github.com/and161185/metricspush/internal/transform"
)

// do loads and validates options, then runs fn with a fresh run context.
// Every cleanup registered on the context runs before do returns.
func (a *app) do(cmd *cobra.Command, stages stage, fn func(ctx context.Context, rc *run.Context) error) (err error) {
	if err := config.Load(cmd.Flags(), &a.opts); err != nil {
		return err
	}
	if stages&stageTransform != 0 {
		if err := a.opts.ValidateTransform(); err != nil {
			return err
		}
	}
	if stages&stageDeliver != 0 {
		if err := a.opts.ValidateDelivery(); err != nil {
			return err
		}
	}

	log, err := a.newLogger(a.opts.Log)
	if err != nil {
		return err
	}
	a.log = log
	defer func() { _ = log.Sync() }()

	rc := run.New(log, a.opts.Transform.Strict)
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
		rc.LogSummary()
	}()

	if err := fn(cmd.Context(), rc); err != nil {
		return err
	}
	if a.opts.Transform.FailOnWarn && rc.Stats.Warnings > 0 {
		return errs.NewFatal(errs.ExitWarnings, fmt.Errorf("%w: %d", errs.ErrWarnings, rc.Stats.Warnings))
	}
	return nil
}

func (a *app) transform(_ context.Context, rc *run.Context) error {
	out, err := a.openOutput(rc)
	if err != nil {
		return err
	}
	return a.runTransform(rc, out)
}

func (a *app) send(ctx context.Context, rc *run.Context) error {
	signer, err := a.loadSigner(rc)
	if err != nil {
		return err
	}
	in, err := a.openInput(rc)
	if err != nil {
		return err
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read exposition text: %w", err)
	}
	return a.deliver(ctx, rc, signer, text)
}

func (a *app) pipeline(ctx context.Context, rc *run.Context) error {
	signer, err := a.loadSigner(rc)
	if err != nil {
		return err
	}

	var text bytes.Buffer
	var out io.Writer = &text
	if a.opts.Transform.Output != "-" {
		file, err := a.openOutput(rc)
		if err != nil {
			return err
		}
		out = io.MultiWriter(&text, file)
	}
	if err := a.runTransform(rc, out); err != nil {
		return err
	}
	return a.deliver(ctx, rc, signer, text.Bytes())
}

func (a *app) runTransform(rc *run.Context, out io.Writer) error {
	t := a.opts.Transform

	cfg := metaconfig.Config{}
	if t.MetaConfig != "" {
		var err error
		if cfg, err = metaconfig.Load(t.MetaConfig); err != nil {
			return err
		}
	}

	var filter *regexp.Regexp
	if t.Filter != "" {
		var err error
		if filter, err = regexp.Compile(t.Filter); err != nil {
			return fmt.Errorf("invalid --match pattern: %w", err)
		}
	}

	tr, err := transform.New(cfg, transform.Options{
		Filter:         filter,
		CounterDefault: t.CounterDefault,
		Output:         exposition.Options{NoMetadata: t.NoMetadata, Timestamps: t.Timestamps},
	})
	if err != nil {
		return err
	}

	in, err := a.openInput(rc)
	if err != nil {
		return err
	}
	return tr.Run(rc, in, out)
}

func (a *app) deliver(ctx context.Context, rc *run.Context, signer *crypto.Signer, text []byte) error {
	d := a.opts.Delivery

	var sig string
	if signer != nil {
		var err error
		if sig, err = signer.Sign(text); err != nil {
			return err
		}
	}
	body, err := payload.Build(d.Runner, string(text), sig)
	if err != nil {
		return err
	}

	engine, err := delivery.New(d.EngineConfig(a.info.UserAgent(programName)), rc.Log)
	if err != nil {
		return err
	}
	res, err := engine.Deliver(ctx, body)
	if err != nil {
		return err
	}
	rc.Log.Infow("delivery complete",
		"runner", d.Runner, "attempts", res.Attempts, "status", res.Status,
		"dry_run", res.DryRun, "signed", sig != "", "request_id", res.RequestID)
	return nil
}

// loadSigner returns nil when no key is configured; that run is sent unsigned.
func (a *app) loadSigner(rc *run.Context) (*crypto.Signer, error) {
	d := &a.opts.Delivery

	var (
		signer *crypto.Signer
		err    error
	)
	switch {
	case d.SigningKey != "":
		key := []byte(d.SigningKey)
		d.SigningKey = ""
		signer, err = crypto.NewSigner(key)
	case d.KeyFile != "":
		exposed, serr := crypto.KeyFileExposed(d.KeyFile)
		if serr != nil {
			return nil, errs.NewFatal(errs.ExitGeneric, fmt.Errorf("%w: %v", errs.ErrInvalidKey, serr))
		}
		if exposed {
			rc.Warn("signing key file is readable by group or others", "path", d.KeyFile)
		}
		signer, err = crypto.OpenSigner(d.KeyFile)
	default:
		rc.Warn("signing disabled, payload will be sent unsigned")
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewFatal(errs.ExitGeneric, err)
	}
	rc.Defer("signing key", signer.Close)
	rc.Log.Debugw("signing enabled", "algorithm", signer.Algorithm())
	return signer, nil
}

func (a *app) openInput(rc *run.Context) (io.Reader, error) {
	path := a.opts.Transform.Input
	if path == "-" {
		return a.in, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	rc.Defer("input "+path, f.Close)
	return f, nil
}

// openOutput returns a buffered writer that is flushed on every exit path,
// so samples written before a fatal error stay in the output.
func (a *app) openOutput(rc *run.Context) (io.Writer, error) {
	path := a.opts.Transform.Output
	var w io.Writer = a.out
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create output: %w", err)
		}
		rc.Defer("output "+path, f.Close)
		w = f
	}
	bw := bufio.NewWriter(w)
	rc.Defer("output buffer", bw.Flush)
	return bw, nil
}
