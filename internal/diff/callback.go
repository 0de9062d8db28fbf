package diff

import "github.com/treeline-io/treeline/internal/cas"

// Callback receives diff results as the walk discovers them. Methods may
// be invoked simultaneously from multiple goroutines; implementations own
// whatever locking their accumulation needs.
//
// Directories are reported through AddedPath and RemovedPath only when the
// kind at that exact path flips between tree and file-like. Recursing into
// a directory whose kind is unchanged produces events for its contents
// alone.
type Callback interface {
	// AddedPath reports a path present only in the target tree.
	AddedPath(path string, kind cas.EntryKind)

	// RemovedPath reports a path present only in the source tree.
	RemovedPath(path string, kind cas.EntryKind)

	// ModifiedPath reports a path whose content or file kind changed.
	ModifiedPath(path string, kind cas.EntryKind)

	// IgnoredPath reports a target-only path suppressed by ignore rules.
	// It fires only when the walk runs with ListIgnored set.
	IgnoredPath(path string, kind cas.EntryKind)

	// DiffError reports a subtree whose comparison failed. The walk goes
	// on with sibling subtrees; the result is complete except for the
	// reported paths.
	DiffError(path string, err error)
}
