// Package cas provides content-addressable storage for snapshot trees and
// blobs.
//
// A snapshot is an immutable tree of named entries addressed by object id.
// Tree objects list their children in byte order; blob objects hold file
// content. Stores only ever add objects, so an id read once is valid for
// the lifetime of the store.
package cas

import (
	"context"
	"sort"
)

// ObjectID is the hex digest addressing an object in a store. The zero
// value marks an absent object, such as the missing side of a diff.
type ObjectID string

// IsZero reports whether the id addresses nothing.
func (id ObjectID) IsZero() bool {
	return id == ""
}

// String implements fmt.Stringer.
func (id ObjectID) String() string {
	return string(id)
}

const shortIDLen = 8

// Short returns an abbreviated id for logs.
func (id ObjectID) Short() string {
	if len(id) <= shortIDLen {
		return string(id)
	}

	return string(id[:shortIDLen])
}

// EntryKind is the kind of a tree entry. File-like kinds are distinguished
// so that a mode flip alone marks an entry as modified.
type EntryKind int

const (
	KindTree EntryKind = iota
	KindFile
	KindExecutable
	KindSymlink
)

// IsTree reports whether the entry is a subtree.
func (k EntryKind) IsTree() bool {
	return k == KindTree
}

// IsFileLike reports whether the entry carries blob content: a regular
// file, an executable, or a symlink whose target string is the content.
func (k EntryKind) IsFileLike() bool {
	return !k.IsTree()
}

// Mode returns the octal mode string used in the tree encoding.
func (k EntryKind) Mode() string {
	switch k {
	case KindTree:
		return "040000"
	case KindExecutable:
		return "100755"
	case KindSymlink:
		return "120000"
	default:
		return "100644"
	}
}

// ObjectType returns the object type label used in the tree encoding.
func (k EntryKind) ObjectType() string {
	if k.IsTree() {
		return "tree"
	}

	return "blob"
}

// String implements fmt.Stringer.
func (k EntryKind) String() string {
	switch k {
	case KindTree:
		return "tree"
	case KindExecutable:
		return "executable"
	case KindSymlink:
		return "symlink"
	default:
		return "file"
	}
}

// KindForMode maps an octal mode string from the tree encoding back to an
// entry kind.
func KindForMode(mode string) (EntryKind, error) {
	switch mode {
	case "040000", "40000":
		return KindTree, nil
	case "100644", "100664":
		return KindFile, nil
	case "100755":
		return KindExecutable, nil
	case "120000":
		return KindSymlink, nil
	default:
		return 0, wrapErrorWithContext("parse_mode", mode, ErrUnknownKind)
	}
}

// TreeEntry is a single named child of a tree.
type TreeEntry struct {
	Name string
	Kind EntryKind
	ID   ObjectID
}

// Tree is a decoded tree object. Entries are sorted by name in byte order
// and must not be mutated by callers; trees are shared between concurrent
// readers.
type Tree struct {
	entries []TreeEntry
	id      ObjectID
}

// NewTree builds a tree from entries, sorting them into byte order.
func NewTree(id ObjectID, entries []TreeEntry) *Tree {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return &Tree{entries: entries, id: id}
}

// ID returns the tree's object id.
func (t *Tree) ID() ObjectID {
	return t.id
}

// Entries returns the tree entries in byte order.
func (t *Tree) Entries() []TreeEntry {
	if t == nil {
		return nil
	}

	return t.entries
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}

	return len(t.entries)
}

// Lookup finds the entry with the given name.
func (t *Tree) Lookup(name string) (TreeEntry, bool) {
	entries := t.Entries()

	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Name >= name
	})

	if i < len(entries) && entries[i].Name == name {
		return entries[i], true
	}

	return TreeEntry{}, false
}

// Store provides read access to snapshot objects.
//
// GetTree and ReadBlob may hit the network or disk and honor context
// cancellation. KnownIdentical must stay cheap: it answers from ids alone
// and false means unknown, never different.
type Store interface {
	// GetTree fetches and decodes the tree object with the given id.
	GetTree(ctx context.Context, id ObjectID) (*Tree, error)

	// ReadBlob returns the content of the blob with the given id.
	ReadBlob(ctx context.Context, id ObjectID) ([]byte, error)

	// BlobsEqual reports whether two blobs hold identical content.
	BlobsEqual(ctx context.Context, a, b ObjectID) (bool, error)

	// KnownIdentical reports whether two objects are already known to hold
	// the same content, without fetching either.
	KnownIdentical(a, b ObjectID) bool
}

// WriteStore is a Store that also accepts new objects.
type WriteStore interface {
	Store

	// PutBlob stores blob content and returns its id. Storing the same
	// content twice returns the same id.
	PutBlob(ctx context.Context, data []byte) (ObjectID, error)

	// PutTree stores a tree built from entries and returns its id.
	PutTree(ctx context.Context, entries []TreeEntry) (ObjectID, error)
}
