package cli

import (
	"context"
	"os"

	"github.com/treeline-io/treeline/internal/cache"
	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/diff"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/internal/gitignore"
	"github.com/treeline-io/treeline/internal/view"
	"github.com/treeline-io/treeline/options"
)

const objectIDHexLen = 40

// runTreeDiff walks the two roots over the given store and renders the
// result. Per-path failures are rendered and folded into one summary
// error so the process exits non-zero without re-listing them.
func runTreeDiff(ctx context.Context, opts *options.Options, store cas.Store, sourceID, targetID cas.ObjectID) error {
	collector := diff.NewCollector()

	dctx := diff.NewContext(collector, store)
	dctx.Logger = opts.Logger
	dctx.ListIgnored = opts.ListIgnored
	dctx.CaseInsensitive = opts.IgnoreCase
	dctx.Concurrency = opts.Concurrency
	dctx.Root = globalIgnoreStack(opts)

	// One rule-set cache per run: snapshots and diffs of the same ignore
	// blob compile it once.
	ctx = cache.ContextWithRuleSetCache[[]gitignore.Rule](ctx)

	if err := diff.Trees(ctx, dctx, sourceID, targetID); err != nil {
		return err
	}

	opts.Logger.Debugf(
		"Diff op %s: %d tree fetches, %d blob compares",
		dctx.Fetch.ID(), dctx.Fetch.TreeFetches(), dctx.Fetch.BlobCompares(),
	)

	writer := view.NewWriter(opts.Writer, !opts.DisableColor, opts.JSONOutput)
	if err := writer.Render(collector); err != nil {
		return err
	}

	if pathErrs := collector.Errors(); len(pathErrs) > 0 {
		return errors.Errorf("diff completed with %d path errors", len(pathErrs))
	}

	return nil
}

// globalIgnoreStack builds the base stack from the configured global
// ignore files. The weakest level is pushed first, so the user level is
// consulted before the system level. A missing file contributes nothing;
// an unreadable one is logged and skipped.
func globalIgnoreStack(opts *options.Options) *gitignore.Stack {
	stack := gitignore.NewStack(opts.IgnoreCase)

	for _, path := range []string{opts.SystemIgnoreFile, opts.UserIgnoreFile} {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				opts.Logger.WithError(err).Warnf("Skipping unreadable ignore file %q", path)
			}

			continue
		}

		rules := gitignore.Compile(data)
		if len(rules) == 0 {
			continue
		}

		stack = stack.PushGlobal(gitignore.NewMatcher(rules, opts.IgnoreCase))
	}

	return stack
}

// resolveTree maps a command-line tree reference to an object id: a
// 40-digit hex string is an id as-is, anything else is resolved as a git
// revision against the configured repository.
func resolveTree(opts *options.Options, gitStore *cas.GitStore, ref string) (cas.ObjectID, error) {
	if isObjectID(ref) {
		return cas.ObjectID(ref), nil
	}

	if gitStore == nil {
		return "", errors.Errorf("%q is not an object id and no git repository is available to resolve it", ref)
	}

	id, err := gitStore.TreeID(ref)
	if err != nil {
		return "", err
	}

	opts.Logger.Debugf("Resolved %q to tree %s", ref, id.Short())

	return id, nil
}

func isObjectID(ref string) bool {
	if len(ref) != objectIDHexLen {
		return false
	}

	for i := range len(ref) {
		c := ref[i]

		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

// openGitStore opens the configured git repository, returning nil when
// the directory holds none.
func openGitStore(opts *options.Options) *cas.GitStore {
	gitStore, err := cas.OpenGitStore(opts.GitDir)
	if err != nil {
		opts.Logger.WithError(err).Debugf("No git repository at %q", opts.GitDir)

		return nil
	}

	return gitStore
}
