// Package diff compares two snapshot trees and reports every path whose
// presence, kind or content differs, honoring gitignore-style rules for
// paths that exist only on the target side.
//
// The walk fans out across subtree boundaries: each directory pair is an
// independent unit of work that may run inline or on its own goroutine,
// and a failed subtree is reported through the callback without stopping
// its siblings. Trees returns only after every dispatched unit finished.
package diff

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/gitignore"
	"github.com/treeline-io/treeline/internal/telemetry"
)

// Trees walks the trees addressed by sourceID and targetID and reports
// every difference through the context's callback. A zero id stands for
// an absent side, so a one-sided call classifies an entire subtree as
// added or removed.
//
// The returned error only ever reflects a contract violation detected
// before the walk starts. Store failures during the walk are captured
// per subtree via Callback.DiffError and never abort sibling work; a
// cancelled walk returns nil after silently skipping directories it had
// not yet entered.
func Trees(ctx context.Context, dctx *Context, sourceID, targetID cas.ObjectID) error {
	if err := dctx.validate(); err != nil {
		return err
	}

	if dctx.Fetch != nil {
		ctx = cas.ContextWithFetch(ctx, dctx.Fetch)
	}

	return telemetry.TelemeterFromContext(ctx).Collect(ctx, "diff_trees", map[string]any{
		"source": sourceID.Short(),
		"target": targetID.Short(),
		"op":     dctx.Fetch.ID(),
	}, func(childCtx context.Context) error {
		w := &walker{
			dctx: dctx,
			sem:  make(chan struct{}, dctx.concurrency()),
		}

		w.diffTrees(childCtx, "", sourceID, targetID, dctx.rootStack())

		return nil
	})
}

// walker is the per-invocation walk state shared by all subtree units.
type walker struct {
	dctx *Context
	sem  chan struct{}
}

// diffTrees compares one directory level and dispatches child levels.
// path is the walk-root-relative directory ("" for the root), either id
// may be zero, and stack is the ignore stack of the *parent* directory;
// this level's own ignore file is pushed here. Returns once this level
// and all levels dispatched below it are done.
func (w *walker) diffTrees(ctx context.Context, path string, sourceID, targetID cas.ObjectID, stack *gitignore.Stack) {
	// The cancellation point: a directory not yet entered is skipped
	// without events, while levels already past this check run to
	// completion.
	if w.dctx.cancelled(ctx) {
		return
	}

	if sourceID.IsZero() && targetID.IsZero() {
		return
	}

	// Identical subtrees produce no events at any depth, so a no-op
	// comparison finishes without fetching a single tree.
	if w.dctx.Store.KnownIdentical(sourceID, targetID) {
		return
	}

	source, target, err := w.fetchSides(ctx, sourceID, targetID)
	if err != nil {
		w.dctx.Callback.DiffError(path, err)

		return
	}

	stack = w.pushIgnoreRules(ctx, path, target, stack)

	var pending sync.WaitGroup

	w.mergeCompare(ctx, path, source, target, stack, &pending)

	pending.Wait()
}

// fetchSides resolves both non-zero sides concurrently. One side failing
// fails the level; the caller captures the error against the level's path.
func (w *walker) fetchSides(ctx context.Context, sourceID, targetID cas.ObjectID) (*cas.Tree, *cas.Tree, error) {
	var source, target *cas.Tree

	group, groupCtx := errgroup.WithContext(ctx)

	if !sourceID.IsZero() {
		group.Go(func() error {
			var err error
			source, err = w.dctx.Store.GetTree(groupCtx, sourceID)

			return err
		})
	}

	if !targetID.IsZero() {
		group.Go(func() error {
			var err error
			target, err = w.dctx.Store.GetTree(groupCtx, targetID)

			return err
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	return source, target, nil
}

// pushIgnoreRules layers the target side's ignore file onto the stack. An
// unreadable ignore blob is logged and treated as carrying no rules, and
// a directory without one reuses the parent stack unchanged.
func (w *walker) pushIgnoreRules(ctx context.Context, path string, target *cas.Tree, stack *gitignore.Stack) *gitignore.Stack {
	if target == nil || w.dctx.Ignores == nil {
		return stack
	}

	entry, found := target.Lookup(w.dctx.ignoreFileName())
	if !found || !entry.Kind.IsFileLike() {
		return stack
	}

	rules, err := w.dctx.Ignores.Rules(ctx, path, entry.ID)
	if err != nil {
		w.dctx.logger().WithError(err).Warnf("Skipping unreadable ignore file in %q", displayPath(path))

		return stack
	}

	if len(rules) == 0 {
		return stack
	}

	return stack.Push(path, gitignore.NewMatcher(rules, w.dctx.CaseInsensitive))
}

// mergeCompare walks both entry lists in lockstep under the context's
// name collation and classifies every name present in either.
func (w *walker) mergeCompare(ctx context.Context, path string, source, target *cas.Tree, stack *gitignore.Stack, pending *sync.WaitGroup) {
	sourceEntries := w.sortedEntries(source)
	targetEntries := w.sortedEntries(target)

	var i, j int

	for i < len(sourceEntries) || j < len(targetEntries) {
		switch {
		case j == len(targetEntries):
			w.removedEntry(ctx, path, sourceEntries[i], pending)
			i++
		case i == len(sourceEntries):
			w.addedEntry(ctx, path, targetEntries[j], stack, pending)
			j++
		default:
			switch cmp := w.compareNames(sourceEntries[i].Name, targetEntries[j].Name); {
			case cmp < 0:
				w.removedEntry(ctx, path, sourceEntries[i], pending)
				i++
			case cmp > 0:
				w.addedEntry(ctx, path, targetEntries[j], stack, pending)
				j++
			default:
				w.matchedEntry(ctx, path, sourceEntries[i], targetEntries[j], stack, pending)
				i++
				j++
			}
		}
	}
}

// removedEntry classifies an entry present only on the source side. A
// removed file reports itself; a removed directory reports nothing at its
// own path and recurses so every file below it reports Removed.
func (w *walker) removedEntry(ctx context.Context, dir string, entry cas.TreeEntry, pending *sync.WaitGroup) {
	if gitignore.IsReservedName(entry.Name, w.dctx.CaseInsensitive) {
		return
	}

	path := childPath(dir, entry.Name)

	if entry.Kind.IsTree() {
		w.spawn(ctx, pending, path, entry.ID, "", nil)

		return
	}

	w.dctx.Callback.RemovedPath(path, entry.Kind)
}

// addedEntry classifies an entry present only on the target side, routing
// it through the ignore stack first. An excluded path reports Ignored
// only under ListIgnored and is never descended into, so nothing inside
// an ignored directory is ever reported.
func (w *walker) addedEntry(ctx context.Context, dir string, entry cas.TreeEntry, stack *gitignore.Stack, pending *sync.WaitGroup) {
	path := childPath(dir, entry.Name)

	switch stack.Match(path, fileTypeOf(entry.Kind)) {
	case gitignore.Hidden:
		return
	case gitignore.Exclude:
		if w.dctx.ListIgnored {
			w.dctx.Callback.IgnoredPath(path, entry.Kind)
		}

		return
	case gitignore.Include, gitignore.NoMatch:
	}

	if entry.Kind.IsTree() {
		w.spawn(ctx, pending, path, "", entry.ID, stack)

		return
	}

	w.dctx.Callback.AddedPath(path, entry.Kind)
}

// matchedEntry classifies a name present on both sides.
func (w *walker) matchedEntry(ctx context.Context, dir string, source, target cas.TreeEntry, stack *gitignore.Stack, pending *sync.WaitGroup) {
	if gitignore.IsReservedName(target.Name, w.dctx.CaseInsensitive) {
		return
	}

	path := childPath(dir, target.Name)

	switch {
	case source.Kind.IsTree() && target.Kind.IsTree():
		if source.ID != target.ID {
			w.spawn(ctx, pending, path, source.ID, target.ID, stack)
		}
	case source.Kind.IsTree() != target.Kind.IsTree():
		// The kind flipped between tree and file-like: the only case
		// where a directory reports an event at its own path.
		w.dctx.Callback.AddedPath(path, target.Kind)
		w.dctx.Callback.RemovedPath(path, source.Kind)

		if source.Kind.IsTree() {
			w.spawn(ctx, pending, path, source.ID, "", nil)
		} else {
			w.spawn(ctx, pending, path, "", target.ID, stack)
		}
	case source.Kind != target.Kind:
		// A mode flip between file-like kinds is a modification on its
		// own; content never needs comparing.
		w.dctx.Callback.ModifiedPath(path, target.Kind)
	case source.ID == target.ID || w.dctx.Store.KnownIdentical(source.ID, target.ID):
	default:
		equal, err := w.dctx.Store.BlobsEqual(ctx, source.ID, target.ID)
		if err != nil {
			w.dctx.Callback.DiffError(path, err)

			return
		}

		if !equal {
			w.dctx.Callback.ModifiedPath(path, target.Kind)
		}
	}
}

// spawn dispatches one child directory comparison. A free concurrency
// slot runs it on its own goroutine; otherwise it runs inline, so the
// walk degrades to a sequential recursion instead of queueing. Both
// completions are observed uniformly through the level's WaitGroup.
func (w *walker) spawn(ctx context.Context, pending *sync.WaitGroup, path string, sourceID, targetID cas.ObjectID, stack *gitignore.Stack) {
	select {
	case w.sem <- struct{}{}:
		pending.Add(1)

		go func() {
			defer pending.Done()
			defer func() { <-w.sem }()

			w.diffTrees(ctx, path, sourceID, targetID, stack)
		}()
	default:
		w.diffTrees(ctx, path, sourceID, targetID, stack)
	}
}

// sortedEntries returns the tree's entries ordered under the context's
// collation. Stores hand out byte-ordered entries, which already is the
// case-sensitive collation; the case-insensitive mode re-sorts a copy so
// the merge invariant holds on both sides.
func (w *walker) sortedEntries(tree *cas.Tree) []cas.TreeEntry {
	entries := tree.Entries()

	if !w.dctx.CaseInsensitive {
		return entries
	}

	sorted := make([]cas.TreeEntry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if cmp := w.compareNames(sorted[i].Name, sorted[j].Name); cmp != 0 {
			return cmp < 0
		}

		// Byte order breaks folding ties so the sort stays total; the
		// merge itself still sees fold-equal names as the same entry.
		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}

// compareNames orders entry names under the context's case mode. In the
// case-insensitive mode, names equal under ASCII folding compare equal
// and the merge pairs them up as one entry.
func (w *walker) compareNames(a, b string) int {
	if w.dctx.CaseInsensitive {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}

	return strings.Compare(a, b)
}

func fileTypeOf(kind cas.EntryKind) gitignore.FileType {
	if kind.IsTree() {
		return gitignore.TypeDir
	}

	return gitignore.TypeFile
}

func childPath(dir, name string) string {
	if dir == "" {
		return name
	}

	return dir + "/" + name
}
