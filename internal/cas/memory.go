package cas

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore holds objects in process memory. It is safe for concurrent
// use and is the fixture store of choice in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[ObjectID][]byte
	trees map[ObjectID]*Tree
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[ObjectID][]byte),
		trees: make(map[ObjectID]*Tree),
	}
}

// GetTree implements Store.
func (s *MemoryStore) GetTree(ctx context.Context, id ObjectID) (*Tree, error) {
	FetchFromContext(ctx).CountTreeFetch()

	s.mu.RLock()
	tree, ok := s.trees[id]
	s.mu.RUnlock()

	if !ok {
		return nil, wrapError("get_tree", id.String(), ErrObjectNotFound)
	}

	return tree, nil
}

// ReadBlob implements Store.
func (s *MemoryStore) ReadBlob(ctx context.Context, id ObjectID) ([]byte, error) {
	FetchFromContext(ctx).CountBlobFetch()

	s.mu.RLock()
	data, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, wrapError("read_blob", id.String(), ErrObjectNotFound)
	}

	return bytes.Clone(data), nil
}

// BlobsEqual implements Store.
func (s *MemoryStore) BlobsEqual(ctx context.Context, a, b ObjectID) (bool, error) {
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
func (s *MemoryStore) KnownIdentical(a, b ObjectID) bool {
	return a == b && !a.IsZero()
}

// PutBlob implements WriteStore.
func (s *MemoryStore) PutBlob(_ context.Context, data []byte) (ObjectID, error) {
	id := HashObject("blob", data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		s.blobs[id] = bytes.Clone(data)
	}

	return id, nil
}

// PutTree implements WriteStore.
func (s *MemoryStore) PutTree(_ context.Context, entries []TreeEntry) (ObjectID, error) {
	var buf bytes.Buffer

	if err := EncodeTree(&buf, entries); err != nil {
		return "", err
	}

	id := HashObject("tree", buf.Bytes())

	tree, err := DecodeTree(id, buf.Bytes())
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trees[id]; !ok {
		s.trees[id] = tree
	}

	return id, nil
}
