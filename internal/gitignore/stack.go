package gitignore

import "strings"

// reservedBasenames are repository-internal names that are always hidden
// from listings and diffs. No user rule can re-include them.
var reservedBasenames = []string{".git", ".hg"}

// IsReservedName reports whether name is reserved for repository
// bookkeeping, like `.git`.
func IsReservedName(name string, caseInsensitive bool) bool {
	for _, reserved := range reservedBasenames {
		if name == reserved {
			return true
		}

		if caseInsensitive && strings.EqualFold(name, reserved) {
			return true
		}
	}

	return false
}

// Stack is an immutable chain of ignore rule sets mirroring a directory
// walk. Pushing returns a new head and leaves the receiver untouched, so
// sibling subtrees can extend the same parent stack concurrently.
//
// Evaluation order is deepest directory first, then each ancestor up to
// the walk root, then the global levels in reverse push order. The first
// rule set producing a verdict wins.
type Stack struct {
	parent *Stack

	// dir is the walk-root-relative path of the directory whose ignore
	// file this node holds. It is empty for the root directory and unused
	// for global nodes, whose rules see the full path.
	dir     string
	matcher *Matcher
	global  bool

	foldCase bool
}

// NewStack returns an empty stack. caseInsensitive controls both rule
// matching on pushed levels and the reserved-name check.
func NewStack(caseInsensitive bool) *Stack {
	return &Stack{foldCase: caseInsensitive}
}

// PushGlobal layers a rule set that applies to every path, such as a
// user-level excludes file. Globals are consulted after every directory
// level, in reverse push order, so callers push the weakest level first.
func (s *Stack) PushGlobal(m *Matcher) *Stack {
	return &Stack{parent: s, matcher: m, global: true, foldCase: s.foldCase}
}

// Push layers the rule set of the directory at dir, given relative to the
// walk root with forward slashes and "" for the root itself. Paths are
// rebased onto dir before matching, so an anchored rule binds to the
// directory holding its ignore file.
func (s *Stack) Push(dir string, m *Matcher) *Stack {
	return &Stack{parent: s, dir: dir, matcher: m, foldCase: s.foldCase}
}

// CaseInsensitive reports the case mode the stack was built with.
func (s *Stack) CaseInsensitive() bool {
	return s.foldCase
}

// Match evaluates a walk-root-relative path against the stack. Reserved
// basenames short-circuit to Hidden before any rule runs. Otherwise each
// level is consulted deepest-first and the first non-NoMatch verdict is
// returned.
func (s *Stack) Match(path string, ft FileType) MatchResult {
	if s == nil {
		return NoMatch
	}

	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}

	if IsReservedName(base, s.foldCase) {
		return Hidden
	}

	for node := s; node != nil; node = node.parent {
		if node.matcher.Len() == 0 {
			continue
		}

		rel := path
		if !node.global && node.dir != "" {
			rel = strings.TrimPrefix(path, node.dir+"/")
		}

		if res := node.matcher.Match(rel, base, ft); res != NoMatch {
			return res
		}
	}

	return NoMatch
}
