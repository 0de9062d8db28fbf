package cas

import "context"

// UnionStore reads from an ordered list of member stores, serving each
// object from the first member that has it. It lets one diff span
// backends, such as a scanned working copy in memory against a baseline
// in a git repository.
type UnionStore struct {
	members []Store
}

// NewUnionStore layers the given stores, earlier members first.
func NewUnionStore(members ...Store) *UnionStore {
	return &UnionStore{members: members}
}

// GetTree implements Store.
func (s *UnionStore) GetTree(ctx context.Context, id ObjectID) (*Tree, error) {
	var lastErr error = wrapError("get_tree", id.String(), ErrObjectNotFound)

	for _, member := range s.members {
		tree, err := member.GetTree(ctx, id)
		if err == nil {
			return tree, nil
		}

		if !IsNotFound(err) {
			return nil, err
		}

		lastErr = err
	}

	return nil, lastErr
}

// ReadBlob implements Store.
func (s *UnionStore) ReadBlob(ctx context.Context, id ObjectID) ([]byte, error) {
	var lastErr error = wrapError("read_blob", id.String(), ErrObjectNotFound)

	for _, member := range s.members {
		data, err := member.ReadBlob(ctx, id)
		if err == nil {
			return data, nil
		}

		if !IsNotFound(err) {
			return nil, err
		}

		lastErr = err
	}

	return nil, lastErr
}

// BlobsEqual implements Store. The two blobs may live in different
// members, so the comparison reads through the union rather than
// delegating to any single member.
func (s *UnionStore) BlobsEqual(ctx context.Context, a, b ObjectID) (bool, error) {
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

	return string(left) == string(right), nil
}

// KnownIdentical implements Store. Equal ids are identical regardless of
// which member holds the object; beyond that, any member may know more.
func (s *UnionStore) KnownIdentical(a, b ObjectID) bool {
	if a == b && !a.IsZero() {
		return true
	}

	for _, member := range s.members {
		if member.KnownIdentical(a, b) {
			return true
		}
	}

	return false
}
