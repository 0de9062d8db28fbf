package gitignore

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Rule is a single compiled ignore pattern. Rules are produced by Compile
// and evaluated through Matcher; the zero value matches nothing.
type Rule struct {
	pattern  string
	segments []segment
	negate   bool
	dirOnly  bool
	anchored bool
}

// segment is one slash-delimited pattern component. A doubleStar segment
// spans zero or more path components; every other segment matches exactly
// one component via its token list.
type segment struct {
	doubleStar bool
	tokens     []token
}

// String returns the source line the rule was compiled from.
func (r *Rule) String() string {
	return r.pattern
}

// Negated reports whether the rule re-includes matching paths.
func (r *Rule) Negated() bool {
	return r.negate
}

// DirOnly reports whether the rule only matches directories.
func (r *Rule) DirOnly() bool {
	return r.dirOnly
}

// Anchored reports whether the rule is bound to the directory holding the
// ignore file rather than floating to any depth below it.
func (r *Rule) Anchored() bool {
	return r.anchored
}

// Compile parses the content of an ignore file into a rule list. Blank
// lines, comments and malformed patterns are dropped silently. The
// returned rules are ordered last-declared-first so that evaluation can
// stop at the first match and still honor gitignore precedence, where a
// later line overrides an earlier one.
func Compile(content []byte) []Rule {
	var rules []Rule

	for _, line := range splitLines(content) {
		if rule, ok := parseRule(line); ok {
			rules = append(rules, rule)
		}
	}

	for i, j := 0, len(rules)-1; i < j; i, j = i+1, j-1 {
		rules[i], rules[j] = rules[j], rules[i]
	}

	return rules
}

// splitLines splits ignore file content into lines, accepting LF, CRLF and
// bare CR terminators. A UTF-8 byte-order mark at the start of the content
// is stripped. The final line does not need a terminator.
func splitLines(content []byte) []string {
	content = bytes.TrimPrefix(content, utf8BOM)

	var lines []string

	start := 0

	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			lines = append(lines, string(content[start:i]))
			start = i + 1
		case '\r':
			lines = append(lines, string(content[start:i]))

			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}

			start = i + 1
		}
	}

	if start < len(content) {
		lines = append(lines, string(content[start:]))
	}

	return lines
}

// parseRule compiles a single ignore file line. The second return value is
// false when the line carries no rule: blank lines, comments, patterns
// reduced to nothing by trimming, and patterns with invalid syntax.
func parseRule(line string) (Rule, bool) {
	if line == "" || line[0] == '#' {
		return Rule{}, false
	}

	rule := Rule{pattern: line}

	pat := line
	if pat[0] == '!' {
		rule.negate = true
		pat = pat[1:]
	}

	pat = trimTrailingWhitespace(pat)
	if pat == "" {
		return Rule{}, false
	}

	if pat[len(pat)-1] == '/' && !isEscaped(pat, len(pat)-1) {
		rule.dirOnly = true
		pat = pat[:len(pat)-1]
	}

	// A pattern consisting only of separators cannot match anything.
	if strings.Trim(pat, "/") == "" {
		return Rule{}, false
	}

	if pat[0] == '/' {
		rule.anchored = true
		pat = pat[1:]
	}

	for _, seg := range splitSegments(pat) {
		if seg == "**" {
			rule.segments = append(rule.segments, segment{doubleStar: true})

			continue
		}

		tokens, ok := compileComponent(seg)
		if !ok {
			return Rule{}, false
		}

		rule.segments = append(rule.segments, segment{tokens: tokens})
	}

	return rule, true
}

// trimTrailingWhitespace strips unescaped trailing spaces and tabs. A
// whitespace byte preceded by an odd number of backslashes is escaped and
// survives along with the rest of the pattern.
func trimTrailingWhitespace(pat string) string {
	end := len(pat)

	for end > 0 {
		if c := pat[end-1]; c != ' ' && c != '\t' {
			break
		}

		if isEscaped(pat, end-1) {
			break
		}

		end--
	}

	return pat[:end]
}

// isEscaped reports whether the byte at idx is preceded by an odd number
// of backslashes.
func isEscaped(pat string, idx int) bool {
	backslashes := 0

	for i := idx - 1; i >= 0 && pat[i] == '\\'; i-- {
		backslashes++
	}

	return backslashes%2 == 1
}

// splitSegments splits a pattern on unescaped separators, keeping escape
// sequences intact for the component compiler.
func splitSegments(pat string) []string {
	var segs []string

	var cur []byte

	for i := 0; i < len(pat); i++ {
		c := pat[i]

		if c == '\\' && i+1 < len(pat) {
			cur = append(cur, c, pat[i+1])
			i++

			continue
		}

		if c == '/' {
			segs = append(segs, string(cur))
			cur = cur[:0]

			continue
		}

		cur = append(cur, c)
	}

	return append(segs, string(cur))
}
