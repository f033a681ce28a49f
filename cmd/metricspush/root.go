package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/metricspush/internal/buildinfo"
	"github.com/and161185/metricspush/internal/config"
	"github.com/and161185/metricspush/internal/errs"
)

const programName = "metricspush"

// newLogger is replaced in tests.
var newLogger = config.NewLogger

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// execute runs one command line and maps its outcome to an exit code.
func execute(ctx context.Context, args []string, s streams, info buildinfo.Info) errs.ExitCode {
	a := &app{streams: s, info: info, opts: config.Defaults(), newLogger: newLogger}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return errs.ExitOK
	}
	code := errs.CodeOf(err)
	if a.log != nil {
		a.log.Errorw("run failed", "error", err, "exit_code", int(code))
	} else {
		fmt.Fprintf(s.err, "%s: %v\n", programName, err)
	}
	return code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   programName,
		Short: "Convert StatsD event logs to Prometheus exposition text and deliver it",
		Long: `metricspush turns a newline-delimited JSON StatsD event log into Prometheus
text exposition, optionally signs it and posts it to an ingestion endpoint
with bounded, exponentially backed-off retries.

Exit codes:
  0  success
  1  generic or validation error
  2  malformed input (strict)
  3  naming policy violation (strict)
  4  alias cycle in the metric config
  5  warnings present with --fail-on-warn
  6  empty output (strict)
  7  delivery failed after every attempt`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindCommonFlags(root.PersistentFlags(), &a.opts)

	root.AddCommand(a.transformCmd(), a.sendCmd(), a.runCmd(), a.versionCmd())
	return root
}

func (a *app) transformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Convert an NDJSON metrics log into exposition text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.do(cmd, stageTransform, a.transform)
		},
	}
	config.BindTransformFlags(cmd.Flags(), &a.opts)
	return cmd
}

func (a *app) sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign and deliver already rendered exposition text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.do(cmd, stageDeliver, a.send)
		},
	}
	cmd.Flags().StringVarP(&a.opts.Transform.Input, "input", "i", a.opts.Transform.Input, "exposition text file, - for stdin")
	cmd.Flags().BoolVar(&a.opts.Transform.FailOnWarn, "fail-on-warn", a.opts.Transform.FailOnWarn, "exit non-zero when any warning was raised")
	config.BindDeliveryFlags(cmd.Flags(), &a.opts)
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transform, sign and deliver in one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.do(cmd, stageTransform|stageDeliver, a.pipeline)
		},
	}
	config.BindTransformFlags(cmd.Flags(), &a.opts)
	config.BindDeliveryFlags(cmd.Flags(), &a.opts)
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.info.Fprint(cmd.OutOrStdout())
		},
	}
}

type stage int

const (
	stageTransform stage = 1 << iota
	stageDeliver
)

type app struct {
	streams
	info      buildinfo.Info
	opts      config.Options
	newLogger func(config.LogOptions) (*zap.SugaredLogger, error)
	log       *zap.SugaredLogger
}
