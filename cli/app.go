// Package cli wires the treeline commands: status, diff and snapshot.
package cli

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/treeline-io/treeline/config"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/internal/telemetry"
	"github.com/treeline-io/treeline/options"
	"github.com/treeline-io/treeline/pkg/log"
	"github.com/treeline-io/treeline/pkg/log/formatters"
)

// AppName is the binary name used for help output and telemetry.
const AppName = "treeline"

// AppVersion is reported by --version and attached to telemetry spans.
const AppVersion = "0.1.0"

// NewApp creates the treeline CLI application. Global flags fill the
// options in place; the config file supplies whatever the flags left
// unset.
func NewApp(opts *options.Options) *cli.App {
	app := cli.NewApp()
	app.Name = AppName
	app.Version = AppVersion
	app.Usage = "Status and diff engine for content-addressed snapshots of a working directory."
	app.Writer = opts.Writer
	app.ErrWriter = opts.ErrWriter
	app.Flags = globalFlags(opts)
	app.Before = setup(opts)
	app.After = teardown(opts)
	app.ExitErrHandler = func(_ *cli.Context, _ error) {
		// The caller maps errors to exit codes; the default handler would
		// os.Exit before deferred cleanup runs.
	}
	app.Commands = []*cli.Command{
		newStatusCommand(opts),
		newDiffCommand(opts),
		newSnapshotCommand(opts),
	}

	return app
}

func globalFlags(opts *options.Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Logging verbosity: trace, debug, info, warn or error.",
			EnvVars: []string{"TREELINE_LOG_LEVEL"},
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format, optionally with options, e.g. \"pretty\" or \"key-value,no-timestamp\".",
			EnvVars: []string{"TREELINE_LOG_FORMAT"},
			Value:   "pretty",
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable ANSI color in output.",
			EnvVars:     []string{"TREELINE_NO_COLOR"},
			Destination: &opts.DisableColor,
		},
		&cli.StringFlag{
			Name:        "working-dir",
			Usage:       "Directory to snapshot and diff. Defaults to the current directory.",
			EnvVars:     []string{"TREELINE_WORKING_DIR"},
			Destination: &opts.WorkingDir,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the config file. Defaults to .treeline.hcl in the working directory.",
			EnvVars:     []string{"TREELINE_CONFIG"},
			Destination: &opts.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "store-path",
			Usage:       "Object store directory. Defaults to .treeline/objects in the working directory.",
			EnvVars:     []string{"TREELINE_STORE_PATH"},
			Destination: &opts.StorePath,
		},
		&cli.StringFlag{
			Name:        "git-dir",
			Usage:       "Git repository consulted for baseline revisions. Defaults to the working directory.",
			EnvVars:     []string{"TREELINE_GIT_DIR"},
			Destination: &opts.GitDir,
		},
		&cli.StringFlag{
			Name:        "user-ignore-file",
			Usage:       "Global user-level ignore file.",
			EnvVars:     []string{"TREELINE_USER_IGNORE_FILE"},
			Destination: &opts.UserIgnoreFile,
		},
		&cli.StringFlag{
			Name:        "system-ignore-file",
			Usage:       "Global system-level ignore file, consulted after the user level.",
			EnvVars:     []string{"TREELINE_SYSTEM_IGNORE_FILE"},
			Destination: &opts.SystemIgnoreFile,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Bound on concurrent subtree comparisons and blob hashing.",
			EnvVars:     []string{"TREELINE_CONCURRENCY"},
			Destination: &opts.Concurrency,
		},
		&cli.BoolFlag{
			Name:        "ignore-case",
			Usage:       "Treat differently-cased names as the same entry.",
			EnvVars:     []string{"TREELINE_IGNORE_CASE"},
			Destination: &opts.IgnoreCase,
		},
		&cli.BoolFlag{
			Name:        "list-ignored",
			Usage:       "Report ignored paths instead of suppressing them.",
			EnvVars:     []string{"TREELINE_LIST_IGNORED"},
			Destination: &opts.ListIgnored,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Render results as JSON.",
			EnvVars:     []string{"TREELINE_JSON"},
			Destination: &opts.JSONOutput,
		},
		&cli.StringFlag{
			Name:        "telemetry-trace-exporter",
			Usage:       "Trace exporter: none, console, otlpHttp or otlpGrpc.",
			EnvVars:     []string{"TREELINE_TELEMETRY_TRACE_EXPORTER"},
			Destination: &opts.Telemetry.TraceExporter,
		},
		&cli.StringFlag{
			Name:        "telemetry-metric-exporter",
			Usage:       "Metric exporter: none, console, otlpHttp or otlpGrpc.",
			EnvVars:     []string{"TREELINE_TELEMETRY_METRIC_EXPORTER"},
			Destination: &opts.Telemetry.MetricExporter,
		},
	}
}

// setup finishes the options after flag parsing: logger level, working
// directory, config file values and the telemeter carried in the command
// context.
func setup(opts *options.Options) cli.BeforeFunc {
	return func(cliCtx *cli.Context) error {
		if err := opts.Logger.SetLevel(cliCtx.String("log-level")); err != nil {
			return errors.New(err)
		}

		formatter, err := formatters.ParseFormat(cliCtx.String("log-format"))
		if err != nil {
			return err
		}

		if pretty, ok := formatter.(*formatters.PrettyFormatter); ok && opts.DisableColor {
			pretty.DisableColors = true
		}

		opts.Logger.SetOptions(log.WithFormatter(formatter))

		if opts.WorkingDir == "" {
			workingDir, err := filepath.Abs(".")
			if err != nil {
				return errors.New(err)
			}

			opts.WorkingDir = workingDir
		}

		if opts.ConfigPath == "" {
			opts.ConfigPath = filepath.Join(opts.WorkingDir, config.DefaultFileName)
		}

		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}

		cfg.Apply(opts)

		if opts.StorePath == "" {
			opts.StorePath = filepath.Join(opts.WorkingDir, filepath.FromSlash(options.DefaultStoreDirName))
		}

		if opts.GitDir == "" {
			opts.GitDir = opts.WorkingDir
		}

		telemeter, err := telemetry.NewTelemeter(cliCtx.Context, AppName, AppVersion, opts.ErrWriter, opts.Telemetry)
		if err != nil {
			return err
		}

		cliCtx.Context = telemetry.ContextWithTelemeter(cliCtx.Context, telemeter)

		return nil
	}
}

func teardown(opts *options.Options) cli.AfterFunc {
	return func(cliCtx *cli.Context) error {
		if err := telemetry.TelemeterFromContext(cliCtx.Context).Shutdown(context.WithoutCancel(cliCtx.Context)); err != nil {
			opts.Logger.WithError(err).Warnf("Failed to flush telemetry")
		}

		return nil
	}
}
