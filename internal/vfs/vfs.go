// Package vfs snapshots a working directory into a content-addressed
// store. The scanner walks an afero filesystem, hashes file content into
// blob objects on a worker pool, then assembles tree objects bottom-up so
// the same directory contents always land on the same root id.
//
// Ignore policy deliberately lives elsewhere: the scanner records every
// file it sees, including ignored ones, and leaves classification to the
// differ. Only the reserved bookkeeping directories (`.git`, `.hg`) are
// skipped outright.
package vfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/internal/gitignore"
	"github.com/treeline-io/treeline/internal/worker"
	"github.com/treeline-io/treeline/pkg/log"
)

// FS is the filesystem abstraction the scanner reads from. Production
// code passes the OS filesystem; tests pass an in-memory one.
type FS = afero.Fs

// NewOSFS returns a filesystem backed by the operating system.
func NewOSFS() FS {
	return afero.NewOsFs()
}

// NewMemMapFS returns an in-memory filesystem for tests.
func NewMemMapFS() FS {
	return afero.NewMemMapFs()
}

// DefaultConcurrency bounds the blob-hashing worker pool.
const DefaultConcurrency = 16

// DefaultSkipNames are directory basenames excluded from every scan:
// the scanner must not snapshot its own object store.
var DefaultSkipNames = []string{".treeline"}

const executableBits = 0o111

// Snapshot is the result of scanning a directory into a store.
type Snapshot struct {
	// RootID addresses the tree object for the scanned directory itself.
	RootID cas.ObjectID

	// IgnoreFiles maps each directory holding an ignore file, relative to
	// the scan root with "" for the root, to that file's blob id. Callers
	// can prime rule caches from it before diffing.
	IgnoreFiles map[string]cas.ObjectID

	// Files counts the file-like entries recorded in the snapshot.
	Files int
}

// Scanner builds snapshots of a filesystem subtree. A scanner is
// stateless between Snapshot calls and may be reused.
type Scanner struct {
	fs     FS
	store  cas.WriteStore
	logger log.Logger

	// IgnoreFileName is the per-directory ignore file recorded in
	// Snapshot.IgnoreFiles, defaulting to ".gitignore".
	IgnoreFileName string

	// Concurrency bounds parallel blob hashing, defaulting to
	// DefaultConcurrency.
	Concurrency int

	// SkipNames are directory basenames never descended into, on top of
	// the reserved bookkeeping names.
	SkipNames []string
}

// NewScanner creates a scanner reading from fs and writing objects to
// store.
func NewScanner(fs FS, store cas.WriteStore, logger log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}

	return &Scanner{fs: fs, store: store, logger: logger, SkipNames: DefaultSkipNames}
}

func (s *Scanner) ignoreFileName() string {
	if s.IgnoreFileName == "" {
		return ".gitignore"
	}

	return s.IgnoreFileName
}

func (s *Scanner) concurrency() int {
	if s.Concurrency <= 0 {
		return DefaultConcurrency
	}

	return s.Concurrency
}

// fileNode is one file-like entry awaiting its blob id. Each hashing task
// writes only its own node; the pool's Wait orders those writes before
// tree assembly reads them.
type fileNode struct {
	name string
	path string
	kind cas.EntryKind
	id   cas.ObjectID
}

// dirNode is one directory collected during the walk.
type dirNode struct {
	path    string
	subdirs []string
	files   []*fileNode
}

// Snapshot scans the subtree rooted at dir into the store and returns the
// root tree id. The scan is all-or-nothing: an unreadable file fails the
// snapshot, since a partial tree would silently diff as deletions.
func (s *Scanner) Snapshot(ctx context.Context, dir string) (*Snapshot, error) {
	dirs := make(map[string]*dirNode)

	if err := s.collect(dir, "", dirs); err != nil {
		return nil, err
	}

	pool := worker.NewWorkerPool(s.concurrency())

	for _, node := range dirs {
		for _, file := range node.files {
			pool.Submit(func() error {
				return s.hashFile(ctx, file)
			})
		}
	}

	if err := pool.GracefulStop(); err != nil {
		return nil, err
	}

	return s.assemble(ctx, dirs)
}

// collect walks the subtree depth-first, recording directories and
// files. rel is the scan-root-relative path of the directory ("" for the
// root itself).
func (s *Scanner) collect(root, rel string, dirs map[string]*dirNode) error {
	node := &dirNode{path: rel}
	dirs[rel] = node

	infos, err := afero.ReadDir(s.fs, filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "reading directory %q", displayDir(rel))
	}

	for _, info := range infos {
		name := info.Name()
		childRel := joinRel(rel, name)

		if info.IsDir() {
			if gitignore.IsReservedName(name, false) || s.skipped(name) {
				s.logger.Tracef("Skipping reserved directory %q", childRel)

				continue
			}

			node.subdirs = append(node.subdirs, name)

			if err := s.collect(root, childRel, dirs); err != nil {
				return err
			}

			continue
		}

		kind := cas.KindFile

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			kind = cas.KindSymlink
		case info.Mode().Perm()&executableBits != 0:
			kind = cas.KindExecutable
		case !info.Mode().IsRegular():
			// Sockets, devices and the like have no blob representation.
			s.logger.Debugf("Skipping irregular file %q", childRel)

			continue
		}

		node.files = append(node.files, &fileNode{
			name: name,
			path: filepath.Join(root, filepath.FromSlash(childRel)),
			kind: kind,
		})
	}

	return nil
}

// hashFile stores one file's content as a blob and records its id.
func (s *Scanner) hashFile(ctx context.Context, file *fileNode) error {
	var (
		data []byte
		err  error
	)

	if file.kind == cas.KindSymlink {
		data, err = s.readLink(file.path)
	} else {
		data, err = afero.ReadFile(s.fs, file.path)
	}

	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "reading %q", file.path)
	}

	id, err := s.store.PutBlob(ctx, data)
	if err != nil {
		return err
	}

	file.id = id

	return nil
}

// readLink returns a symlink's target as blob content. Filesystems
// without symlink support never report ModeSymlink, so reaching this
// without a LinkReader is a contract violation.
func (s *Scanner) readLink(path string) ([]byte, error) {
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return nil, errors.Errorf("filesystem cannot read symlink %q", path)
	}

	target, err := reader.ReadlinkIfPossible(path)
	if err != nil {
		return nil, err
	}

	return []byte(target), nil
}

// assemble writes tree objects deepest-first so every directory's entry
// list carries its children's final ids.
func (s *Scanner) assemble(ctx context.Context, dirs map[string]*dirNode) (*Snapshot, error) {
	paths := make([]string, 0, len(dirs))
	for path := range dirs {
		paths = append(paths, path)
	}

	sort.Slice(paths, func(i, j int) bool {
		return depthOf(paths[i]) > depthOf(paths[j])
	})

	snapshot := &Snapshot{IgnoreFiles: make(map[string]cas.ObjectID)}
	treeIDs := make(map[string]cas.ObjectID, len(dirs))

	for _, path := range paths {
		node := dirs[path]
		entries := make([]cas.TreeEntry, 0, len(node.subdirs)+len(node.files))

		for _, name := range node.subdirs {
			entries = append(entries, cas.TreeEntry{
				Name: name,
				Kind: cas.KindTree,
				ID:   treeIDs[joinRel(path, name)],
			})
		}

		for _, file := range node.files {
			entries = append(entries, cas.TreeEntry{Name: file.name, Kind: file.kind, ID: file.id})

			if file.name == s.ignoreFileName() {
				snapshot.IgnoreFiles[path] = file.id
			}

			snapshot.Files++
		}

		id, err := s.store.PutTree(ctx, entries)
		if err != nil {
			return nil, err
		}

		treeIDs[path] = id
	}

	snapshot.RootID = treeIDs[""]

	return snapshot, nil
}

func (s *Scanner) skipped(name string) bool {
	for _, skip := range s.SkipNames {
		if name == skip {
			return true
		}
	}

	return false
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}

	return dir + "/" + name
}

func depthOf(path string) int {
	if path == "" {
		return 0
	}

	return strings.Count(path, "/") + 1
}

func displayDir(rel string) string {
	if rel == "" {
		return "."
	}

	return rel
}
