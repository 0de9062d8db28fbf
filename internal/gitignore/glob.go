package gitignore

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenStar
	tokenQuestion
	tokenClass
)

// token is one matching unit within a path component: a literal byte run,
// a `*` wildcard, a `?` single-byte wildcard or a bracket expression.
type token struct {
	kind  tokenKind
	lit   string
	class charClass
}

// charClass is a byte-set bracket expression. POSIX named classes are
// expanded into the bitmap at compile time.
type charClass struct {
	negated bool
	bits    [32]byte
}

func (c *charClass) add(b byte) {
	c.bits[b>>3] |= 1 << (b & 7)
}

func (c *charClass) addRange(lo, hi byte) {
	for b := int(lo); b <= int(hi); b++ {
		c.add(byte(b))
	}
}

func (c *charClass) has(b byte) bool {
	return c.bits[b>>3]&(1<<(b&7)) != 0
}

func (c *charClass) matches(b byte, fold bool) bool {
	in := c.has(b)

	if !in && fold {
		if swapped := swapCase(b); swapped != b {
			in = c.has(swapped)
		}
	}

	return in != c.negated
}

// posixClasses maps the named classes usable inside bracket expressions,
// e.g. `[[:digit:]]`, to the byte sets they denote.
var posixClasses = map[string]func(*charClass){
	"alnum": func(c *charClass) {
		c.addRange('a', 'z')
		c.addRange('A', 'Z')
		c.addRange('0', '9')
	},
	"alpha": func(c *charClass) {
		c.addRange('a', 'z')
		c.addRange('A', 'Z')
	},
	"blank": func(c *charClass) {
		c.add(' ')
		c.add('\t')
	},
	"cntrl": func(c *charClass) {
		c.addRange(0x00, 0x1f)
		c.add(0x7f)
	},
	"digit": func(c *charClass) {
		c.addRange('0', '9')
	},
	"graph": func(c *charClass) {
		c.addRange(0x21, 0x7e)
	},
	"lower": func(c *charClass) {
		c.addRange('a', 'z')
	},
	"print": func(c *charClass) {
		c.addRange(0x20, 0x7e)
	},
	"punct": func(c *charClass) {
		c.addRange(0x21, 0x2f)
		c.addRange(0x3a, 0x40)
		c.addRange(0x5b, 0x60)
		c.addRange(0x7b, 0x7e)
	},
	"space": func(c *charClass) {
		for _, b := range []byte{' ', '\t', '\n', '\v', '\f', '\r'} {
			c.add(b)
		}
	},
	"upper": func(c *charClass) {
		c.addRange('A', 'Z')
	},
	"xdigit": func(c *charClass) {
		c.addRange('0', '9')
		c.addRange('a', 'f')
		c.addRange('A', 'F')
	},
}

// compileComponent translates one slash-free pattern component into a
// token list. It returns false when the component is malformed: a trailing
// lone backslash, or an unterminated or invalid bracket expression. A `**`
// appearing inside a component degrades to a plain `*`.
func compileComponent(pat string) ([]token, bool) {
	var tokens []token

	var lit []byte

	flushLiteral := func() {
		if len(lit) > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, lit: string(lit)})
			lit = nil
		}
	}

	for i := 0; i < len(pat); i++ {
		switch c := pat[i]; c {
		case '\\':
			if i+1 >= len(pat) {
				return nil, false
			}

			i++
			lit = append(lit, pat[i])
		case '*':
			flushLiteral()

			if len(tokens) == 0 || tokens[len(tokens)-1].kind != tokenStar {
				tokens = append(tokens, token{kind: tokenStar})
			}
		case '?':
			flushLiteral()
			tokens = append(tokens, token{kind: tokenQuestion})
		case '[':
			cls, next, ok := parseClass(pat, i)
			if !ok {
				return nil, false
			}

			flushLiteral()
			tokens = append(tokens, token{kind: tokenClass, class: cls})
			i = next
		default:
			lit = append(lit, c)
		}
	}

	flushLiteral()

	return tokens, true
}

// parseClass parses the bracket expression starting at the `[` at pat[i].
// It returns the index of the closing `]` and false when the expression is
// unterminated, names an unknown POSIX class, or contains an inverted
// range.
func parseClass(pat string, i int) (charClass, int, bool) {
	var cls charClass

	j := i + 1

	if j < len(pat) && (pat[j] == '!' || pat[j] == '^') {
		cls.negated = true
		j++
	}

	// A `]` right after the opening bracket is a literal member.
	if j < len(pat) && pat[j] == ']' {
		cls.add(']')
		j++
	}

	for {
		if j >= len(pat) {
			return charClass{}, 0, false
		}

		if pat[j] == ']' {
			return cls, j, true
		}

		if pat[j] == '[' && j+1 < len(pat) && pat[j+1] == ':' {
			end := indexFrom(pat, j+2, ":]")
			if end < 0 {
				return charClass{}, 0, false
			}

			expand, known := posixClasses[pat[j+2:end]]
			if !known {
				return charClass{}, 0, false
			}

			expand(&cls)

			j = end + 2

			continue
		}

		lo, next, ok := classByte(pat, j)
		if !ok {
			return charClass{}, 0, false
		}

		j = next

		if j+1 < len(pat) && pat[j] == '-' && pat[j+1] != ']' {
			hi, next, ok := classByte(pat, j+1)
			if !ok || hi < lo {
				return charClass{}, 0, false
			}

			cls.addRange(lo, hi)

			j = next
		} else {
			cls.add(lo)
		}
	}
}

// classByte reads one class member byte at pat[j], honoring backslash
// escapes.
func classByte(pat string, j int) (byte, int, bool) {
	if pat[j] == '\\' {
		if j+1 >= len(pat) {
			return 0, 0, false
		}

		return pat[j+1], j + 2, true
	}

	return pat[j], j + 1, true
}

func indexFrom(pat string, from int, sub string) int {
	for i := from; i+len(sub) <= len(pat); i++ {
		if pat[i:i+len(sub)] == sub {
			return i
		}
	}

	return -1
}

// matchTokens matches a token list against one path component using
// iterative backtracking over the most recent `*`.
func matchTokens(tokens []token, s string, fold bool) bool {
	ti, si := 0, 0
	starTi, starSi := -1, 0

	for si < len(s) || ti < len(tokens) {
		if ti < len(tokens) {
			switch tok := &tokens[ti]; tok.kind {
			case tokenStar:
				starTi, starSi = ti, si
				ti++

				continue
			case tokenQuestion:
				if si < len(s) {
					ti++
					si++

					continue
				}
			case tokenClass:
				if si < len(s) && tok.class.matches(s[si], fold) {
					ti++
					si++

					continue
				}
			default:
				n := len(tok.lit)
				if si+n <= len(s) && foldEqual(tok.lit, s[si:si+n], fold) {
					ti++
					si += n

					continue
				}
			}
		}

		// Dead end: re-expand the last `*` by one byte and retry.
		if starTi >= 0 && starSi < len(s) {
			starSi++
			si, ti = starSi, starTi+1

			continue
		}

		return false
	}

	return true
}

// foldEqual compares two byte strings, optionally ignoring ASCII case.
func foldEqual(a, b string, fold bool) bool {
	if !fold {
		return a == b
	}

	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		if a[i] != b[i] && swapCase(a[i]) != b[i] {
			return false
		}
	}

	return true
}

// swapCase flips the case of an ASCII letter and leaves every other byte
// unchanged.
func swapCase(b byte) byte {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 'a' + 'A'
	case b >= 'A' && b <= 'Z':
		return b - 'A' + 'a'
	default:
		return b
	}
}
