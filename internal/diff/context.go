package diff

import (
	"context"

	"github.com/treeline-io/treeline/internal/cache"
	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/gitignore"
	"github.com/treeline-io/treeline/pkg/log"
)

// DefaultConcurrency bounds the number of subtree walks running on their
// own goroutine. Children beyond the bound run inline on the parent's
// goroutine, so the walk never queues unbounded work.
const DefaultConcurrency = 16

// DefaultIgnoreFileName is the per-directory ignore file consulted on the
// target side of a walk.
const DefaultIgnoreFileName = ".gitignore"

// IgnoreSource loads and compiles the ignore rules stored under an object
// id. Implementations may be called concurrently from multiple subtree
// walks. dir names the directory the blob was found in and is only used
// for diagnostics.
type IgnoreSource interface {
	Rules(ctx context.Context, dir string, id cas.ObjectID) ([]gitignore.Rule, error)
}

// StoreIgnoreSource reads ignore blobs from a store and caches compiled
// rule sets by blob id, so a run that sees the same ignore file in many
// snapshots compiles it once.
type StoreIgnoreSource struct {
	store cas.Store
}

// NewStoreIgnoreSource returns an IgnoreSource backed by the given store.
func NewStoreIgnoreSource(store cas.Store) *StoreIgnoreSource {
	return &StoreIgnoreSource{store: store}
}

// Rules implements IgnoreSource.
func (s *StoreIgnoreSource) Rules(ctx context.Context, dir string, id cas.ObjectID) ([]gitignore.Rule, error) {
	ruleSets := cache.RuleSetCacheFromContext[[]gitignore.Rule](ctx)

	if rules, found := ruleSets.Get(ctx, id.String()); found {
		return rules, nil
	}

	data, err := s.store.ReadBlob(ctx, id)
	if err != nil {
		return nil, err
	}

	rules := gitignore.Compile(data)
	ruleSets.Put(ctx, id.String(), rules)

	return rules, nil
}

// Context carries the shared state of one diff invocation. It is created
// by the caller, handed to Trees, and must outlive the call; every field
// is read-only for the duration of the walk. The callback is the only
// component that sees concurrent access.
type Context struct {
	// Callback receives classified paths and subtree errors.
	Callback Callback

	// Store resolves tree and blob ids for both sides of the walk.
	Store cas.Store

	// Ignores loads per-directory ignore blobs found on the target side.
	// Nil means directories contribute no rules of their own.
	Ignores IgnoreSource

	// Root is the base ignore stack, holding any global levels the caller
	// composed. Nil means no global rules.
	Root *gitignore.Stack

	// Cancelled is polled before recursing into each directory. A true
	// return skips that directory silently; work already dispatched still
	// completes. Nil defaults to the context's cancellation state.
	Cancelled func() bool

	// Logger receives walk diagnostics, such as unreadable ignore files.
	Logger log.Logger

	// Fetch tags and counts store accesses made by this walk.
	Fetch *cas.FetchContext

	// IgnoreFileName is the per-directory ignore file name, defaulting to
	// DefaultIgnoreFileName.
	IgnoreFileName string

	// Concurrency bounds goroutine fan-out, defaulting to
	// DefaultConcurrency.
	Concurrency int

	// ListIgnored reports excluded target-side paths as Ignored instead
	// of suppressing them.
	ListIgnored bool

	// CaseInsensitive folds name ordering, ignore matching and the
	// reserved-name check.
	CaseInsensitive bool
}

// NewContext builds a diff context with defaults: ignore rules read from
// the store itself, a fresh fetch context, and the package default logger.
func NewContext(callback Callback, store cas.Store) *Context {
	return &Context{
		Callback: callback,
		Store:    store,
		Ignores:  NewStoreIgnoreSource(store),
		Logger:   log.Default(),
		Fetch:    cas.NewFetchContext(),
	}
}

func (dctx *Context) validate() error {
	if dctx == nil {
		return ErrNilContext
	}

	if dctx.Callback == nil {
		return ErrNilCallback
	}

	if dctx.Store == nil {
		return ErrNilStore
	}

	return nil
}

func (dctx *Context) ignoreFileName() string {
	if dctx.IgnoreFileName == "" {
		return DefaultIgnoreFileName
	}

	return dctx.IgnoreFileName
}

func (dctx *Context) concurrency() int {
	if dctx.Concurrency <= 0 {
		return DefaultConcurrency
	}

	return dctx.Concurrency
}

func (dctx *Context) logger() log.Logger {
	if dctx.Logger == nil {
		return log.Default()
	}

	return dctx.Logger
}

// rootStack returns the stack the walk starts from, creating an empty one
// matching the case mode when the caller supplied none.
func (dctx *Context) rootStack() *gitignore.Stack {
	if dctx.Root != nil {
		return dctx.Root
	}

	return gitignore.NewStack(dctx.CaseInsensitive)
}

func (dctx *Context) cancelled(ctx context.Context) bool {
	if dctx.Cancelled != nil {
		return dctx.Cancelled()
	}

	return ctx.Err() != nil
}
