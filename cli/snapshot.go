package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/internal/telemetry"
	"github.com/treeline-io/treeline/internal/vfs"
	"github.com/treeline-io/treeline/options"
)

func newSnapshotCommand(opts *options.Options) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Scan the working directory into the object store and print the root tree id.",
		Action: func(cliCtx *cli.Context) error {
			return runSnapshot(cliCtx.Context, opts)
		},
	}
}

func runSnapshot(ctx context.Context, opts *options.Options) error {
	store, err := cas.NewDiskStore(opts.StorePath)
	if err != nil {
		return err
	}

	scanner := vfs.NewScanner(vfs.NewOSFS(), store, opts.Logger)
	scanner.Concurrency = opts.Concurrency

	var snapshot *vfs.Snapshot

	err = telemetry.TelemeterFromContext(ctx).Collect(ctx, "snapshot", map[string]any{
		"working_dir": opts.WorkingDir,
	}, func(childCtx context.Context) error {
		var err error
		snapshot, err = scanner.Snapshot(childCtx, opts.WorkingDir)

		return err
	})
	if err != nil {
		return err
	}

	opts.Logger.Debugf("Stored %d files under %q", snapshot.Files, opts.StorePath)

	if _, err := fmt.Fprintln(opts.Writer, snapshot.RootID); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}
