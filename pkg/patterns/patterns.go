// Package patterns implements the anchored, segment-based skill patterns
// used in pack include and exclude lists.
//
// A pattern is split on "/". Each segment is a literal, a segment containing
// "*" (each "*" matches a non-empty run of characters inside that one
// segment), or exactly "**" (zero or more whole segments). Matching is
// case-sensitive and always covers the whole identifier.
//
// Both levels run in time proportional to pattern size times input size:
// segments are walked with a table over tokens and segments, and a segment
// with several stars is matched with a table over its characters.
package patterns

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/arthur-debert/skillpack/pkg/errors"
)

const (
	segmentSep  = "/"
	anySegments = "**"
	wildcard    = "*"
)

// patternHint is attached to every syntax error.
const patternHint = "Use * within segments and ** for any depth"

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenSingle
	tokenMulti
)

type token struct {
	kind tokenKind
	text string
	// glob is set for segments with a single star, runes otherwise.
	glob  glob.Glob
	runes []rune
}

func (t token) matchSegment(seg string) bool {
	switch t.kind {
	case tokenLiteral:
		return t.text == seg
	case tokenSingle:
		if t.glob != nil {
			return t.glob.Match(seg)
		}
		return matchWildcards(t.runes, []rune(seg))
	default:
		return false
	}
}

// Pattern is a compiled pattern.
type Pattern struct {
	raw    string
	tokens []token
}

// Parse validates and compiles raw.
func Parse(raw string) (Pattern, error) {
	if err := Validate(raw); err != nil {
		return Pattern{}, err
	}

	p := Pattern{raw: raw}
	for _, seg := range strings.Split(raw, segmentSep) {
		switch {
		case seg == anySegments:
			// Adjacent ** tokens are equivalent to one.
			if n := len(p.tokens); n > 0 && p.tokens[n-1].kind == tokenMulti {
				continue
			}
			p.tokens = append(p.tokens, token{kind: tokenMulti, text: seg})
		case strings.Count(seg, wildcard) > 1:
			p.tokens = append(p.tokens, token{kind: tokenSingle, text: seg, runes: []rune(seg)})
		case strings.Contains(seg, wildcard):
			g, err := compileSegment(seg)
			if err != nil {
				return Pattern{}, errors.Wrapf(err, errors.ErrPatternValid, "invalid pattern: %s", raw).
					WithDetail("pattern", raw).
					WithHint(patternHint)
			}
			p.tokens = append(p.tokens, token{kind: tokenSingle, text: seg, glob: g})
		default:
			p.tokens = append(p.tokens, token{kind: tokenLiteral, text: seg})
		}
	}
	return p, nil
}

// MustParse is Parse for patterns known to be valid.
func MustParse(raw string) Pattern {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// compileSegment turns a segment with one star, such as "git-*", into a glob
// where the star needs at least one character and everything else is
// literal. gobwas/glob backtracks on repeated stars, so segments with more
// than one go through matchWildcards instead.
func compileSegment(seg string) (glob.Glob, error) {
	parts := strings.Split(seg, wildcard)
	for i, part := range parts {
		parts[i] = glob.QuoteMeta(part)
	}
	return glob.Compile(strings.Join(parts, "?*"), '/')
}

// Validate checks pattern syntax: non-empty, no empty segments, and "**"
// only as a whole segment.
func Validate(raw string) error {
	invalid := func(reason string) error {
		return errors.Newf(errors.ErrPatternValid, "invalid pattern: %q (%s)", raw, reason).
			WithDetail("pattern", raw).
			WithHint(patternHint)
	}
	if raw == "" {
		return invalid("empty pattern")
	}
	for _, seg := range strings.Split(raw, segmentSep) {
		if seg == "" {
			return invalid("empty segment")
		}
		if strings.Contains(seg, anySegments) && seg != anySegments {
			return invalid("** must be a whole segment")
		}
	}
	return nil
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the whole identifier matches the pattern.
func (p Pattern) Match(id string) bool {
	return matchTokens(p.tokens, splitID(id))
}

func splitID(id string) []string {
	if id == "" {
		return nil
	}
	return strings.Split(id, segmentSep)
}

// matchWildcards matches seg against a segment pattern where every '*' takes
// one or more characters. row[j] holds whether the pattern consumed so far
// matches seg[:j]; each pattern character advances the row once.
func matchWildcards(pattern, seg []rune) bool {
	row := make([]bool, len(seg)+1)
	next := make([]bool, len(seg)+1)
	row[0] = true

	for _, pc := range pattern {
		next[0] = false
		for j := 1; j <= len(seg); j++ {
			if pc == '*' {
				next[j] = row[j-1] || next[j-1]
				continue
			}
			next[j] = row[j-1] && seg[j-1] == pc
		}
		row, next = next, row
	}
	return row[len(seg)]
}

// matchTokens fills memo[i][j] = tokens[i:] matches segs[j:], from the end
// of both sequences backwards. Every cell is computed once.
func matchTokens(tokens []token, segs []string) bool {
	n, m := len(tokens), len(segs)
	memo := make([][]bool, n+1)
	for i := range memo {
		memo[i] = make([]bool, m+1)
	}
	memo[n][m] = true

	for i := n - 1; i >= 0; i-- {
		tok := tokens[i]
		for j := m; j >= 0; j-- {
			if tok.kind == tokenMulti {
				memo[i][j] = memo[i+1][j] || (j < m && memo[i][j+1])
				continue
			}
			memo[i][j] = j < m && tok.matchSegment(segs[j]) && memo[i+1][j+1]
		}
	}
	return memo[0][0]
}

// Match parses pattern and matches it against id. Invalid patterns never
// match.
func Match(pattern, id string) bool {
	p, err := Parse(pattern)
	if err != nil {
		return false
	}
	return p.Match(id)
}
