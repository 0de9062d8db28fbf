package cas_test

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-io/treeline/internal/cas"
)

func writeGitBlob(t *testing.T, storage *memory.Storage, data []byte) plumbing.Hash {
	t.Helper()

	obj := storage.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	w, err := obj.Writer()
	require.NoError(t, err)

	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	hash, err := storage.SetEncodedObject(obj)
	require.NoError(t, err)

	return hash
}

func writeGitTree(t *testing.T, storage *memory.Storage, entries []object.TreeEntry) plumbing.Hash {
	t.Helper()

	tree := &object.Tree{Entries: entries}

	obj := storage.NewEncodedObject()
	require.NoError(t, tree.Encode(obj))

	hash, err := storage.SetEncodedObject(obj)
	require.NoError(t, err)

	return hash
}

func writeGitCommit(t *testing.T, storage *memory.Storage, treeHash plumbing.Hash) plumbing.Hash {
	t.Helper()

	sig := object.Signature{
		Name:  "fixture",
		Email: "fixture@example.com",
		When:  time.Unix(1700000000, 0).UTC(),
	}

	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   "fixture commit",
		TreeHash:  treeHash,
	}

	obj := storage.NewEncodedObject()
	require.NoError(t, commit.Encode(obj))

	hash, err := storage.SetEncodedObject(obj)
	require.NoError(t, err)

	return hash
}

// fixtureRepo builds an in-memory repository holding:
//
//	README.md        "hello\n"
//	tools/run.sh     executable "run\n"
//	tools/current    symlink to run.sh
//	vendored         submodule pointer (skipped by the store)
func fixtureRepo(t *testing.T) (*git.Repository, plumbing.Hash, plumbing.Hash) {
	t.Helper()

	storage := memory.NewStorage()

	readme := writeGitBlob(t, storage, []byte("hello\n"))
	script := writeGitBlob(t, storage, []byte("run\n"))
	link := writeGitBlob(t, storage, []byte("run.sh"))

	toolsTree := writeGitTree(t, storage, []object.TreeEntry{
		{Name: "current", Mode: filemode.Symlink, Hash: link},
		{Name: "run.sh", Mode: filemode.Executable, Hash: script},
	})

	rootTree := writeGitTree(t, storage, []object.TreeEntry{
		{Name: "README.md", Mode: filemode.Regular, Hash: readme},
		{Name: "tools", Mode: filemode.Dir, Hash: toolsTree},
		{Name: "vendored", Mode: filemode.Submodule, Hash: readme},
	})

	commit := writeGitCommit(t, storage, rootTree)

	branch := plumbing.NewHashReference(plumbing.ReferenceName("refs/heads/main"), commit)
	require.NoError(t, storage.SetReference(branch))

	head := plumbing.NewSymbolicReference(plumbing.HEAD, branch.Name())
	require.NoError(t, storage.SetReference(head))

	repo, err := git.Open(storage, nil)
	require.NoError(t, err)

	return repo, rootTree, toolsTree
}

func TestGitStoreTreeID(t *testing.T) {
	t.Parallel()

	repo, rootTree, _ := fixtureRepo(t)
	store := cas.NewGitStore(repo)

	for _, rev := range []string{"HEAD", "main"} {
		id, err := store.TreeID(rev)
		require.NoError(t, err)
		assert.Equal(t, cas.ObjectID(rootTree.String()), id)
	}

	// A tree hash resolves to itself.
	id, err := store.TreeID(rootTree.String())
	require.NoError(t, err)
	assert.Equal(t, cas.ObjectID(rootTree.String()), id)

	_, err = store.TreeID("does-not-exist")
	require.Error(t, err)
}

func TestGitStoreGetTree(t *testing.T) {
	t.Parallel()

	repo, rootTree, toolsTree := fixtureRepo(t)
	store := cas.NewGitStore(repo)

	fetch := cas.NewFetchContext()
	ctx := cas.ContextWithFetch(t.Context(), fetch)

	root, err := store.GetTree(ctx, cas.ObjectID(rootTree.String()))
	require.NoError(t, err)

	// The submodule pointer is dropped.
	require.Equal(t, 2, root.Len())
	assert.Equal(t, "README.md", root.Entries()[0].Name)
	assert.Equal(t, cas.KindFile, root.Entries()[0].Kind)
	assert.Equal(t, "tools", root.Entries()[1].Name)
	assert.Equal(t, cas.KindTree, root.Entries()[1].Kind)
	assert.Equal(t, cas.ObjectID(toolsTree.String()), root.Entries()[1].ID)

	tools, err := store.GetTree(ctx, cas.ObjectID(toolsTree.String()))
	require.NoError(t, err)
	require.Equal(t, 2, tools.Len())
	assert.Equal(t, cas.KindSymlink, tools.Entries()[0].Kind)
	assert.Equal(t, cas.KindExecutable, tools.Entries()[1].Kind)

	// The second read of the same tree is served from the cache.
	fetched := fetch.TreeFetches()

	_, err = store.GetTree(ctx, cas.ObjectID(rootTree.String()))
	require.NoError(t, err)
	assert.Equal(t, fetched, fetch.TreeFetches())

	_, err = store.GetTree(ctx, "ffffffffffffffffffffffffffffffffffffffff")
	require.Error(t, err)
	assert.ErrorIs(t, err, cas.ErrObjectNotFound)
}

func TestGitStoreBlobs(t *testing.T) {
	t.Parallel()

	repo, rootTree, toolsTree := fixtureRepo(t)
	store := cas.NewGitStore(repo)

	ctx := t.Context()

	root, err := store.GetTree(ctx, cas.ObjectID(rootTree.String()))
	require.NoError(t, err)

	readme, ok := root.Lookup("README.md")
	require.True(t, ok)

	data, err := store.ReadBlob(ctx, readme.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	tools, err := store.GetTree(ctx, cas.ObjectID(toolsTree.String()))
	require.NoError(t, err)

	script, ok := tools.Lookup("run.sh")
	require.True(t, ok)

	equal, err := store.BlobsEqual(ctx, readme.ID, readme.ID)
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = store.BlobsEqual(ctx, readme.ID, script.ID)
	require.NoError(t, err)
	assert.False(t, equal)

	assert.True(t, store.KnownIdentical(readme.ID, readme.ID))
	assert.False(t, store.KnownIdentical(readme.ID, script.ID))

	_, err = store.ReadBlob(ctx, "ffffffffffffffffffffffffffffffffffffffff")
	require.Error(t, err)
	assert.ErrorIs(t, err, cas.ErrObjectNotFound)
}
