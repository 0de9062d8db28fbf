package cas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-io/treeline/internal/cas"
)

func TestUnionStoreReadsThroughMembers(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	first := cas.NewMemoryStore()
	second := cas.NewMemoryStore()

	inFirst, err := first.PutBlob(ctx, []byte("first only"))
	require.NoError(t, err)

	inSecond, err := second.PutBlob(ctx, []byte("second only"))
	require.NoError(t, err)

	treeID, err := second.PutTree(ctx, []cas.TreeEntry{
		{Name: "a.txt", Kind: cas.KindFile, ID: inSecond},
	})
	require.NoError(t, err)

	union := cas.NewUnionStore(first, second)

	data, err := union.ReadBlob(ctx, inFirst)
	require.NoError(t, err)
	assert.Equal(t, "first only", string(data))

	data, err = union.ReadBlob(ctx, inSecond)
	require.NoError(t, err)
	assert.Equal(t, "second only", string(data))

	tree, err := union.GetTree(ctx, treeID)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())

	_, err = union.ReadBlob(ctx, "ffffffffffffffffffffffffffffffffffffffff")
	require.Error(t, err)
	assert.True(t, cas.IsNotFound(err))
}

func TestUnionStoreComparesAcrossMembers(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	first := cas.NewMemoryStore()
	second := cas.NewMemoryStore()

	a, err := first.PutBlob(ctx, []byte("shared bytes"))
	require.NoError(t, err)

	b, err := second.PutBlob(ctx, []byte("different bytes"))
	require.NoError(t, err)

	union := cas.NewUnionStore(first, second)

	equal, err := union.BlobsEqual(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, equal)

	// Content-addressed members assign one id per content, so equal ids
	// across members compare equal without a read.
	assert.True(t, union.KnownIdentical(a, a))
	assert.False(t, union.KnownIdentical(a, b))
}
