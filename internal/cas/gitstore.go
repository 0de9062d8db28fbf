package cas

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	gitcache "github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/storage/filesystem"

	"github.com/treeline-io/treeline/internal/cache"
	"github.com/treeline-io/treeline/internal/errors"
)

// GitStore serves snapshot objects out of an existing git repository, so a
// committed tree can act as the baseline side of a diff without checking
// anything out.
type GitStore struct {
	repo  *git.Repository
	trees *cache.Cache[*Tree]

	// go-git keeps pack file descriptors open between reads, so object
	// access is serialized.
	mu sync.Mutex
}

// OpenGitStore opens the repository at path, bare or with a worktree.
func OpenGitStore(path string) (*GitStore, error) {
	fs := osfs.New(path)

	if _, err := fs.Stat(git.GitDirName); err == nil {
		fs, err = fs.Chroot(git.GitDirName)
		if err != nil {
			return nil, wrapError("open_git_store", path, err)
		}
	}

	storage := filesystem.NewStorageWithOptions(fs, gitcache.NewObjectLRUDefault(), filesystem.Options{KeepDescriptors: true})

	repo, err := git.Open(storage, fs)
	if err != nil {
		return nil, wrapError("open_git_store", path, err)
	}

	return NewGitStore(repo), nil
}

// NewGitStore wraps an already opened repository.
func NewGitStore(repo *git.Repository) *GitStore {
	return &GitStore{
		repo:  repo,
		trees: cache.NewCache[*Tree]("git_tree"),
	}
}

// TreeID resolves a revision, like a ref name or commit hash, to the id of
// the tree it names. Commit revisions resolve to the commit's root tree.
func (s *GitStore) TreeID(rev string) (ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", wrapErrorWithContext("resolve_revision", rev, err)
	}

	if commit, err := s.repo.CommitObject(*hash); err == nil {
		return ObjectID(commit.TreeHash.String()), nil
	}

	if _, err := s.repo.TreeObject(*hash); err == nil {
		return ObjectID(hash.String()), nil
	}

	return "", wrapErrorWithContext("resolve_revision", rev, ErrNotTree)
}

// GetTree implements Store. Decoded trees are cached, so repeated visits
// to the same subtree cost one object read.
func (s *GitStore) GetTree(ctx context.Context, id ObjectID) (*Tree, error) {
	if tree, ok := s.trees.Get(ctx, string(id)); ok {
		return tree, nil
	}

	FetchFromContext(ctx).CountTreeFetch()

	s.mu.Lock()
	gitTree, err := s.repo.TreeObject(plumbing.NewHash(string(id)))
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, wrapError("get_tree", id.String(), ErrObjectNotFound)
		}

		return nil, wrapError("get_tree", id.String(), err)
	}

	entries := make([]TreeEntry, 0, len(gitTree.Entries))

	for _, entry := range gitTree.Entries {
		var kind EntryKind

		switch entry.Mode {
		case filemode.Dir:
			kind = KindTree
		case filemode.Regular, filemode.Deprecated:
			kind = KindFile
		case filemode.Executable:
			kind = KindExecutable
		case filemode.Symlink:
			kind = KindSymlink
		default:
			// Submodule pointers have no content in this repository.
			continue
		}

		entries = append(entries, TreeEntry{
			Name: entry.Name,
			Kind: kind,
			ID:   ObjectID(entry.Hash.String()),
		})
	}

	tree := NewTree(id, entries)

	s.trees.Put(ctx, string(id), tree)

	return tree, nil
}

// ReadBlob implements Store.
func (s *GitStore) ReadBlob(ctx context.Context, id ObjectID) ([]byte, error) {
	FetchFromContext(ctx).CountBlobFetch()

	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.repo.BlobObject(plumbing.NewHash(string(id)))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, wrapError("read_blob", id.String(), ErrObjectNotFound)
		}

		return nil, wrapError("read_blob", id.String(), err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, wrapError("read_blob", id.String(), err)
	}

	data, err := io.ReadAll(reader)
	if closeErr := reader.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return nil, wrapError("read_blob", id.String(), err)
	}

	return data, nil
}

// BlobsEqual implements Store. Ids in one repository are content hashes,
// so distinct ids always mean distinct content, but the deep comparison is
// kept for ids that came from different stores.
func (s *GitStore) BlobsEqual(ctx context.Context, a, b ObjectID) (bool, error) {
	if s.KnownIdentical(a, b) {
		return true, nil
	}

	FetchFromContext(ctx).CountBlobCompare()

	left, err := s.ReadBlob(ctx, a)
	if err != nil {
		return false, err
	}

	right, err := s.ReadBlob(ctx, b)
	if err != nil {
		return false, err
	}

	return bytes.Equal(left, right), nil
}

// KnownIdentical implements Store.
func (s *GitStore) KnownIdentical(a, b ObjectID) bool {
	return a == b && !a.IsZero()
}
