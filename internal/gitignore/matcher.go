package gitignore

import "strings"

// Matcher evaluates a compiled rule list against paths relative to the
// directory the ignore file lives in. The zero value and nil both match
// nothing.
type Matcher struct {
	rules    []Rule
	foldCase bool
}

// NewMatcher wraps compiled rules. When caseInsensitive is set, literal
// bytes, ranges and class members compare ASCII case-insensitively at
// match time.
func NewMatcher(rules []Rule, caseInsensitive bool) *Matcher {
	return &Matcher{rules: rules, foldCase: caseInsensitive}
}

// Len returns the number of rules held by the matcher.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}

	return len(m.rules)
}

// Match evaluates relPath against the rule list and returns the verdict
// of the first matching rule, or NoMatch when no rule applies. relPath is
// relative to the ignore file's directory and uses forward slashes; base
// is its final component. Because rules are stored last-declared-first,
// the first hit is the declaration-order winner.
//
// A rule also matches when it covers an ancestor directory of relPath, so
// a path inside an excluded directory reports Exclude even when checked
// in isolation.
func (m *Matcher) Match(relPath, base string, ft FileType) MatchResult {
	if m.Len() == 0 {
		return NoMatch
	}

	var comps []string
	if relPath == base {
		comps = []string{base}
	} else {
		comps = strings.Split(relPath, "/")
	}

	isDir := ft == TypeDir

	for i := range m.rules {
		rule := &m.rules[i]

		if rule.matches(comps, isDir, m.foldCase) {
			if rule.negate {
				return Include
			}

			return Exclude
		}
	}

	return NoMatch
}

// matches reports whether the rule covers the path split into comps. An
// anchored rule starts matching at the first component; any other rule may
// start at any depth. The rule applies when its segments consume either
// the entire path or a leading run of components, in which case the path
// sits inside a matched directory.
func (r *Rule) matches(comps []string, isDir, fold bool) bool {
	if r.anchored {
		return r.matchFrom(comps, 0, isDir, fold)
	}

	for k := range comps {
		if r.matchFrom(comps, k, isDir, fold) {
			return true
		}
	}

	return false
}

// matchFrom matches the rule's segments against comps[k:]. Reachability
// of (segment, component) pairs is tracked in a small table so that `**`
// segments can span any number of components.
func (r *Rule) matchFrom(comps []string, k int, isDir, fold bool) bool {
	tail := comps[k:]
	n, m := len(r.segments), len(tail)

	reach := make([]bool, (n+1)*(m+1))
	reach[0] = true

	for si := 0; si < n; si++ {
		seg := &r.segments[si]

		for ci := 0; ci <= m; ci++ {
			if !reach[si*(m+1)+ci] {
				continue
			}

			if seg.doubleStar {
				// A trailing `**` matches the contents of a directory,
				// not the directory itself, so it must consume at least
				// one component.
				low := ci
				if si == n-1 {
					low++
				}

				for cj := low; cj <= m; cj++ {
					reach[(si+1)*(m+1)+cj] = true
				}

				continue
			}

			if ci < m && matchTokens(seg.tokens, tail[ci], fold) {
				reach[(si+1)*(m+1)+ci+1] = true
			}
		}
	}

	if reach[n*(m+1)+m] {
		return !r.dirOnly || isDir
	}

	// The segments consumed a strict prefix of the path: the match landed
	// on an ancestor, which is necessarily a directory, and everything
	// below it is covered.
	for j := 1; j < m; j++ {
		if reach[n*(m+1)+j] {
			return true
		}
	}

	return false
}
