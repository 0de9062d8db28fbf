// Package gitignore compiles gitignore-style pattern lists and evaluates
// them against repository-relative paths.
//
// Pattern syntax follows the gitignore dialect: `*`, `?` and bracket
// expressions match within a single path component, `**` spans directory
// boundaries, a leading `!` re-includes a previously excluded path, a
// leading `/` anchors the pattern to the directory holding the ignore file
// and a trailing `/` restricts the pattern to directories. Malformed
// patterns are discarded without error, matching git's behavior.
package gitignore

// MatchResult is the verdict of evaluating a path against a rule set.
type MatchResult int

const (
	// NoMatch means no rule applied; the caller falls through to the next
	// rule set on the stack, or treats the path as tracked-normally.
	NoMatch MatchResult = iota

	// Exclude means the path matched an ignore rule.
	Exclude

	// Include means the path matched a negated rule and is re-included.
	Include

	// Hidden means the path is reserved for internal bookkeeping and is
	// never surfaced, regardless of any user rule.
	Hidden
)

// String implements fmt.Stringer.
func (r MatchResult) String() string {
	switch r {
	case NoMatch:
		return "no match"
	case Exclude:
		return "exclude"
	case Include:
		return "include"
	case Hidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// FileType tells the matcher whether the path under evaluation is a
// directory. Rules with a trailing `/` only ever match directories.
type FileType int

const (
	// TypeFile is any non-directory entry: regular files, executables and
	// symlinks alike.
	TypeFile FileType = iota

	// TypeDir is a directory entry.
	TypeDir
)

// String implements fmt.Stringer.
func (t FileType) String() string {
	if t == TypeDir {
		return "dir"
	}

	return "file"
}
