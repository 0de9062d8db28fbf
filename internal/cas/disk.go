package cas

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/treeline-io/treeline/internal/errors"
)

const (
	// DefaultDirPerms represents standard directory permissions (rwxr-xr-x)
	DefaultDirPerms = os.FileMode(0755)
	// StoredFilePerms represents read-only file permissions (r--r--r--)
	StoredFilePerms = os.FileMode(0444)

	objectsDirName = "objects"
	lockFileName   = "store.lock"

	// Objects are partitioned into subdirectories keyed by the first two
	// characters of the id to keep directory fan-out small.
	partitionLen = 2
)

// DiskStore persists objects under a root directory. Writes go through a
// file lock shared with other processes, then land via temp file and
// rename, so readers never observe a partial object.
type DiskStore struct {
	root string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewDiskStore opens the store rooted at root, creating it if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, objectsDirName), DefaultDirPerms); err != nil {
		return nil, wrapError("create_store_dir", root, ErrCreateDir)
	}

	return &DiskStore{
		root: root,
		lock: flock.New(filepath.Join(root, lockFileName)),
	}, nil
}

// Root returns the store's root directory.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) objectPath(id ObjectID) (string, error) {
	if len(id) <= partitionLen {
		return "", wrapError("object_path", id.String(), ErrObjectNotFound)
	}

	return filepath.Join(s.root, objectsDirName, string(id[:partitionLen]), string(id[partitionLen:])), nil
}

// HasObject reports whether an object is already present on disk.
func (s *DiskStore) HasObject(id ObjectID) bool {
	path, err := s.objectPath(id)
	if err != nil {
		return false
	}

	_, err = os.Stat(path)

	return err == nil
}

func (s *DiskStore) readObject(op string, id ObjectID) ([]byte, error) {
	path, err := s.objectPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapError(op, id.String(), ErrObjectNotFound)
		}

		return nil, wrapError(op, path, err)
	}

	return data, nil
}

// GetTree implements Store.
func (s *DiskStore) GetTree(ctx context.Context, id ObjectID) (*Tree, error) {
	FetchFromContext(ctx).CountTreeFetch()

	data, err := s.readObject("get_tree", id)
	if err != nil {
		return nil, err
	}

	return DecodeTree(id, data)
}

// ReadBlob implements Store.
func (s *DiskStore) ReadBlob(ctx context.Context, id ObjectID) ([]byte, error) {
	FetchFromContext(ctx).CountBlobFetch()

	return s.readObject("read_blob", id)
}

// BlobsEqual implements Store.
func (s *DiskStore) BlobsEqual(ctx context.Context, a, b ObjectID) (bool, error) {
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
func (s *DiskStore) KnownIdentical(a, b ObjectID) bool {
	return a == b && !a.IsZero()
}

// PutBlob implements WriteStore.
func (s *DiskStore) PutBlob(_ context.Context, data []byte) (ObjectID, error) {
	id := HashObject("blob", data)

	return id, s.writeObject(id, data)
}

// PutTree implements WriteStore.
func (s *DiskStore) PutTree(_ context.Context, entries []TreeEntry) (ObjectID, error) {
	var buf bytes.Buffer

	if err := EncodeTree(&buf, entries); err != nil {
		return "", err
	}

	id := HashObject("tree", buf.Bytes())

	return id, s.writeObject(id, buf.Bytes())
}

func (s *DiskStore) writeObject(id ObjectID, data []byte) (err error) {
	if s.HasObject(id) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if lockErr := s.lock.Lock(); lockErr != nil {
		return wrapError("lock_store", s.lock.Path(), lockErr)
	}

	defer func() {
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			err = errors.Join(err, wrapError("unlock_store", s.lock.Path(), unlockErr))
		}
	}()

	// Another process may have won the race while we waited on the lock.
	if s.HasObject(id) {
		return nil
	}

	path, err := s.objectPath(id)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerms); err != nil {
		return wrapError("create_partition_dir", filepath.Dir(path), ErrCreateDir)
	}

	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, StoredFilePerms); err != nil {
		return wrapError("write_object", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			err = errors.Join(err, removeErr)
		}

		return wrapError("finalize_object", path, err)
	}

	return nil
}
