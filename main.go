package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/treeline-io/treeline/cli"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/options"
	"github.com/treeline-io/treeline/pkg/log"
)

func main() {
	opts := options.NewOptions()

	defer errors.Recover(exitWithError(opts.Logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(opts)

	if err := app.RunContext(ctx, os.Args); err != nil {
		exitWithError(opts.Logger)(err)
	}
}

func exitWithError(logger log.Logger) func(error) {
	return func(err error) {
		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		exitCode := 1

		var exitCoder errors.ErrorWithExitCode
		if errors.As(err, &exitCoder) {
			exitCode = exitCoder.ExitCode
		}

		os.Exit(exitCode)
	}
}
