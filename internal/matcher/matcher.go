// Package matcher implements the three-mode host-pattern matcher: literal,
// glob, and regex. A regex is matched unanchored; it is anchored only where
// the pattern itself uses ^ and $.
package matcher

import (
	"regexp"
	"strings"
)

// Kind discriminates the Matcher union.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindGlob
	KindRegex
)

// Matcher is a compiled domain predicate in one of three modes. The zero
// value is not valid; construct with New.
type Matcher struct {
	kind    Kind
	literal string
	glob    string
	re      *regexp.Regexp
}

// New compiles a Matcher from its source representation: a leading '~'
// selects Regex (the prefix is stripped before compiling); otherwise the
// presence of '*' selects Glob; anything else is a Literal.
func New(raw string) (Matcher, error) {
	if strings.HasPrefix(raw, "~") {
		re, err := regexp.Compile(strings.TrimPrefix(raw, "~"))
		if err != nil {
			return Matcher{}, err
		}
		return Matcher{kind: KindRegex, re: re}, nil
	}

	if strings.Contains(raw, "*") {
		return Matcher{kind: KindGlob, glob: raw}, nil
	}

	return Matcher{kind: KindLiteral, literal: raw}, nil
}

// Kind reports the discriminant.
func (m Matcher) Kind() Kind { return m.kind }

// String renders the matcher's original source for display: the literal
// string, the raw glob characters, or the regex source prefixed with '~'.
func (m Matcher) String() string {
	switch m.kind {
	case KindGlob:
		return m.glob
	case KindRegex:
		return "~" + m.re.String()
	default:
		return m.literal
	}
}

// Match reports whether domain matches the pattern. Matching is
// case-sensitive in every mode.
func (m Matcher) Match(domain string) bool {
	switch m.kind {
	case KindLiteral:
		return domain == m.literal
	case KindRegex:
		return m.re.MatchString(domain)
	case KindGlob:
		return matchGlob(m.glob, domain)
	default:
		return false
	}
}

// matchGlob implements the bespoke wildcard semantics: '*' consumes one or
// more non-'.' input characters, after which a "dot-expected" latch is set;
// every other pattern character must equal the next input character
// exactly, except that a literal '.' in the pattern clears a set latch
// instead of being compared. At pattern end the latch must be clear and
// input exhausted.
func matchGlob(pattern, input string) bool {
	pi, ii := 0, 0
	dotExpected := false

	for pi < len(pattern) {
		pc := pattern[pi]

		if pc == '*' {
			if ii >= len(input) || input[ii] == '.' {
				return false
			}
			ii++
			for ii < len(input) && input[ii] != '.' {
				ii++
			}
			// Only latch if the scan actually stopped on a '.': running
			// off the end of the label leaves nothing for a following
			// literal '.' to align with.
			if ii < len(input) && input[ii] == '.' {
				dotExpected = true
			}
			pi++
			continue
		}

		if dotExpected {
			if pc != '.' {
				return false
			}
			// The '*' scan stopped just before this '.' without
			// consuming it; consume it now that the pattern has caught
			// up to the label boundary.
			dotExpected = false
			ii++
			pi++
			continue
		}

		if ii >= len(input) || input[ii] != pc {
			return false
		}
		ii++
		pi++
	}

	return !dotExpected && ii == len(input)
}
