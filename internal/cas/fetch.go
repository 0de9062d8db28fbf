package cas

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// FetchContext tags every store access made on behalf of one logical
// operation, such as a single diff run, and counts what the operation
// pulled from the store. Counters are incremented by the stores themselves
// and are safe for concurrent use. A nil FetchContext is a no-op.
type FetchContext struct {
	id string

	treeFetches  atomic.Int64
	blobFetches  atomic.Int64
	blobCompares atomic.Int64
}

// NewFetchContext mints a fetch context with a fresh opaque id.
func NewFetchContext() *FetchContext {
	return &FetchContext{id: uuid.NewString()}
}

// ID returns the opaque id tying log lines and metrics of one operation
// together.
func (f *FetchContext) ID() string {
	if f == nil {
		return ""
	}

	return f.id
}

// CountTreeFetch records one tree object fetch.
func (f *FetchContext) CountTreeFetch() {
	if f != nil {
		f.treeFetches.Add(1)
	}
}

// CountBlobFetch records one blob content read.
func (f *FetchContext) CountBlobFetch() {
	if f != nil {
		f.blobFetches.Add(1)
	}
}

// CountBlobCompare records one deep blob comparison.
func (f *FetchContext) CountBlobCompare() {
	if f != nil {
		f.blobCompares.Add(1)
	}
}

// TreeFetches returns the number of tree fetches recorded so far.
func (f *FetchContext) TreeFetches() int64 {
	if f == nil {
		return 0
	}

	return f.treeFetches.Load()
}

// BlobFetches returns the number of blob reads recorded so far.
func (f *FetchContext) BlobFetches() int64 {
	if f == nil {
		return 0
	}

	return f.blobFetches.Load()
}

// BlobCompares returns the number of blob comparisons recorded so far.
func (f *FetchContext) BlobCompares() int64 {
	if f == nil {
		return 0
	}

	return f.blobCompares.Load()
}

type ctxKey byte

const fetchContextKey ctxKey = iota

// ContextWithFetch returns a context carrying the given fetch context.
func ContextWithFetch(ctx context.Context, f *FetchContext) context.Context {
	return context.WithValue(ctx, fetchContextKey, f)
}

// FetchFromContext returns the fetch context carried by ctx, or nil.
func FetchFromContext(ctx context.Context) *FetchContext {
	if f, ok := ctx.Value(fetchContextKey).(*FetchContext); ok {
		return f
	}

	return nil
}
