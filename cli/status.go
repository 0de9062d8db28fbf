package cli

import (
	"context"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/internal/vfs"
	"github.com/treeline-io/treeline/options"
)

func newStatusCommand(opts *options.Options) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Snapshot the working directory and diff it against a baseline tree.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "baseline",
				Usage: "Baseline tree: an object id or a git revision. Defaults to HEAD.",
				Value: "HEAD",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			return runStatus(cliCtx.Context, opts, cliCtx.String("baseline"))
		},
	}
}

// runStatus builds both sides concurrently: the working copy is scanned
// into a scratch store while the baseline reference resolves, then the
// diff runs over a union of the scratch store and the baseline's store.
func runStatus(ctx context.Context, opts *options.Options, baseline string) error {
	scratch := cas.NewMemoryStore()
	baselineStore := baselineStoreFor(opts, baseline)

	if baselineStore == nil {
		return errors.Errorf("no store can resolve baseline %q: neither a git repository nor an object store was found", baseline)
	}

	var (
		workingID  cas.ObjectID
		baselineID cas.ObjectID
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		scanner := vfs.NewScanner(vfs.NewOSFS(), scratch, opts.Logger)
		scanner.Concurrency = opts.Concurrency

		snapshot, err := scanner.Snapshot(groupCtx, opts.WorkingDir)
		if err != nil {
			return err
		}

		opts.Logger.Debugf("Scanned %d files into %s", snapshot.Files, snapshot.RootID.Short())
		workingID = snapshot.RootID

		return nil
	})

	group.Go(func() error {
		var err error
		baselineID, err = resolveBaseline(opts, baselineStore, baseline)

		return err
	})

	if err := group.Wait(); err != nil {
		return err
	}

	return runTreeDiff(ctx, opts, cas.NewUnionStore(scratch, baselineStore.store), baselineID, workingID)
}

// baselineStore pairs a Store with the optional revision resolver behind
// it.
type baselineStore struct {
	store    cas.Store
	gitStore *cas.GitStore
}

// baselineStoreFor picks where the baseline lives: raw object ids come
// from the on-disk object store, anything else resolves in the git
// repository.
func baselineStoreFor(opts *options.Options, baseline string) *baselineStore {
	if isObjectID(baseline) {
		diskStore, err := cas.NewDiskStore(opts.StorePath)
		if err != nil {
			opts.Logger.WithError(err).Debugf("No object store at %q", opts.StorePath)

			return nil
		}

		return &baselineStore{store: diskStore}
	}

	gitStore := openGitStore(opts)
	if gitStore == nil {
		return nil
	}

	return &baselineStore{store: gitStore, gitStore: gitStore}
}

func resolveBaseline(opts *options.Options, bs *baselineStore, baseline string) (cas.ObjectID, error) {
	return resolveTree(opts, bs.gitStore, baseline)
}
