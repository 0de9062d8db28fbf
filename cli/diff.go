package cli

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/options"
)

const diffArgCount = 2

func newDiffCommand(opts *options.Options) *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Diff two stored trees, named by object id or git revision.",
		ArgsUsage: "<source> <target>",
		Action: func(cliCtx *cli.Context) error {
			if cliCtx.NArg() != diffArgCount {
				return errors.Errorf("diff takes exactly two tree references, got %d", cliCtx.NArg())
			}

			return runDiff(cliCtx.Context, opts, cliCtx.Args().Get(0), cliCtx.Args().Get(1))
		},
	}
}

// runDiff resolves both references and walks them over a union of every
// store the references can live in.
func runDiff(ctx context.Context, opts *options.Options, sourceRef, targetRef string) error {
	var stores []cas.Store

	gitStore := openGitStore(opts)
	if gitStore != nil {
		stores = append(stores, gitStore)
	}

	if diskStore, err := cas.NewDiskStore(opts.StorePath); err == nil {
		stores = append(stores, diskStore)
	} else {
		opts.Logger.WithError(err).Debugf("No object store at %q", opts.StorePath)
	}

	if len(stores) == 0 {
		return errors.Errorf("no git repository or object store found under %q", opts.WorkingDir)
	}

	sourceID, err := resolveTree(opts, gitStore, sourceRef)
	if err != nil {
		return err
	}

	targetID, err := resolveTree(opts, gitStore, targetRef)
	if err != nil {
		return err
	}

	return runTreeDiff(ctx, opts, cas.NewUnionStore(stores...), sourceID, targetID)
}
