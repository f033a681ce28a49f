package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/metricspush/internal/buildinfo"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr},
		buildinfo.New(buildVersion, buildDate, buildCommit))
	stop()
	os.Exit(int(code))
}
