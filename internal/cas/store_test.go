package cas_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-io/treeline/internal/cas"
)

func writeStores(t *testing.T) map[string]func(t *testing.T) cas.WriteStore {
	t.Helper()

	return map[string]func(t *testing.T) cas.WriteStore{
		"memory": func(t *testing.T) cas.WriteStore {
			t.Helper()

			return cas.NewMemoryStore()
		},
		"disk": func(t *testing.T) cas.WriteStore {
			t.Helper()

			store, err := cas.NewDiskStore(t.TempDir())
			require.NoError(t, err)

			return store
		},
	}
}

func TestStoreBlobRoundTrip(t *testing.T) {
	t.Parallel()

	for name, newStore := range writeStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := t.Context()
			store := newStore(t)

			id, err := store.PutBlob(ctx, []byte("some content\n"))
			require.NoError(t, err)
			require.False(t, id.IsZero())

			again, err := store.PutBlob(ctx, []byte("some content\n"))
			require.NoError(t, err)
			assert.Equal(t, id, again)

			other, err := store.PutBlob(ctx, []byte("other content\n"))
			require.NoError(t, err)
			assert.NotEqual(t, id, other)

			data, err := store.ReadBlob(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "some content\n", string(data))

			_, err = store.ReadBlob(ctx, "ffffffffffffffffffffffffffffffffffffffff")
			require.Error(t, err)
			assert.ErrorIs(t, err, cas.ErrObjectNotFound)
		})
	}
}

func TestStoreTreeRoundTrip(t *testing.T) {
	t.Parallel()

	for name, newStore := range writeStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := t.Context()
			store := newStore(t)

			blobID, err := store.PutBlob(ctx, []byte("content"))
			require.NoError(t, err)

			treeID, err := store.PutTree(ctx, []cas.TreeEntry{
				{Name: "b.txt", Kind: cas.KindFile, ID: blobID},
				{Name: "a.txt", Kind: cas.KindFile, ID: blobID},
			})
			require.NoError(t, err)

			tree, err := store.GetTree(ctx, treeID)
			require.NoError(t, err)
			require.Equal(t, 2, tree.Len())
			assert.Equal(t, "a.txt", tree.Entries()[0].Name)
			assert.Equal(t, "b.txt", tree.Entries()[1].Name)

			// The same entry set always lands on the same id.
			sameID, err := store.PutTree(ctx, []cas.TreeEntry{
				{Name: "a.txt", Kind: cas.KindFile, ID: blobID},
				{Name: "b.txt", Kind: cas.KindFile, ID: blobID},
			})
			require.NoError(t, err)
			assert.Equal(t, treeID, sameID)

			_, err = store.GetTree(ctx, "ffffffffffffffffffffffffffffffffffffffff")
			require.Error(t, err)
			assert.ErrorIs(t, err, cas.ErrObjectNotFound)
		})
	}
}

func TestStoreBlobsEqual(t *testing.T) {
	t.Parallel()

	for name, newStore := range writeStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := t.Context()
			store := newStore(t)

			a, err := store.PutBlob(ctx, []byte("alpha"))
			require.NoError(t, err)

			b, err := store.PutBlob(ctx, []byte("beta"))
			require.NoError(t, err)

			equal, err := store.BlobsEqual(ctx, a, a)
			require.NoError(t, err)
			assert.True(t, equal)

			equal, err = store.BlobsEqual(ctx, a, b)
			require.NoError(t, err)
			assert.False(t, equal)

			_, err = store.BlobsEqual(ctx, a, "ffffffffffffffffffffffffffffffffffffffff")
			require.Error(t, err)
		})
	}
}

func TestStoreKnownIdentical(t *testing.T) {
	t.Parallel()

	for name, newStore := range writeStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)

			assert.True(t, store.KnownIdentical("aa11", "aa11"))
			assert.False(t, store.KnownIdentical("aa11", "bb22"))
			assert.False(t, store.KnownIdentical("", ""))
		})
	}
}

func TestStoreFetchCounters(t *testing.T) {
	t.Parallel()

	for name, newStore := range writeStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)

			fetch := cas.NewFetchContext()
			require.NotEmpty(t, fetch.ID())

			ctx := cas.ContextWithFetch(t.Context(), fetch)
			require.Same(t, fetch, cas.FetchFromContext(ctx))

			a, err := store.PutBlob(ctx, []byte("alpha"))
			require.NoError(t, err)

			b, err := store.PutBlob(ctx, []byte("beta"))
			require.NoError(t, err)

			treeID, err := store.PutTree(ctx, []cas.TreeEntry{{Name: "a", Kind: cas.KindFile, ID: a}})
			require.NoError(t, err)

			_, err = store.GetTree(ctx, treeID)
			require.NoError(t, err)
			assert.EqualValues(t, 1, fetch.TreeFetches())

			_, err = store.ReadBlob(ctx, a)
			require.NoError(t, err)
			assert.EqualValues(t, 1, fetch.BlobFetches())

			_, err = store.BlobsEqual(ctx, a, b)
			require.NoError(t, err)
			assert.EqualValues(t, 1, fetch.BlobCompares())

			// Equal ids short-circuit without touching content.
			_, err = store.BlobsEqual(ctx, a, a)
			require.NoError(t, err)
			assert.EqualValues(t, 1, fetch.BlobCompares())
		})
	}
}

func TestFetchContextAbsent(t *testing.T) {
	t.Parallel()

	assert.Nil(t, cas.FetchFromContext(t.Context()))

	// A nil fetch context counts nothing and never panics.
	var fetch *cas.FetchContext

	fetch.CountTreeFetch()
	fetch.CountBlobFetch()
	fetch.CountBlobCompare()

	assert.Empty(t, fetch.ID())
	assert.Zero(t, fetch.TreeFetches())
	assert.Zero(t, fetch.BlobFetches())
	assert.Zero(t, fetch.BlobCompares())
}

func TestDiskStoreLayout(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root := t.TempDir()

	store, err := cas.NewDiskStore(root)
	require.NoError(t, err)
	assert.Equal(t, root, store.Root())

	id, err := store.PutBlob(ctx, []byte("persisted"))
	require.NoError(t, err)
	assert.True(t, store.HasObject(id))
	assert.False(t, store.HasObject("ffffffffffffffffffffffffffffffffffffffff"))

	// Objects are partitioned by the first two characters of the id.
	partitioned := filepath.Join(root, "objects", string(id[:2]), string(id[2:]))
	_, err = os.Stat(partitioned)
	require.NoError(t, err)

	// A fresh handle over the same root sees the same objects.
	reopened, err := cas.NewDiskStore(root)
	require.NoError(t, err)

	data, err := reopened.ReadBlob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(data))
}
