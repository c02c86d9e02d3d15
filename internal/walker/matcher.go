package walker

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v2"
)

// MatcherOptions configures how a user pattern is compiled.
type MatcherOptions struct {
	Glob         bool
	FixedStrings bool
	FullPath     bool
	CaseSensitive bool
	IgnoreCase    bool
}

// PatternMatcher decides whether a path matches the user's search pattern.
// It is compiled once at startup and shared by reference across all
// worker threads; it holds no mutable state after construction.
type PatternMatcher struct {
	raw           string
	re            *regexp.Regexp
	glob          bool
	fullPath      bool
	caseInsensitive bool
	universal     bool
}

// HasRegexMetacharacters reports whether pattern contains characters that
// are regex metacharacters but are plausibly meant literally, used to hint
// --fixed-strings on a compile error.
func HasRegexMetacharacters(pattern string) bool {
	return strings.ContainsAny(pattern, `.^$*+?()[]{}|\`)
}

// ResolveCaseSensitivity implements smart-case: case-insensitive unless the
// pattern contains an upper-case code point, with explicit flags overriding.
func ResolveCaseSensitivity(pattern string, opts MatcherOptions) bool {
	if opts.CaseSensitive {
		return true
	}
	if opts.IgnoreCase {
		return false
	}
	for _, r := range pattern {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// NewPatternMatcher compiles pattern into a PatternMatcher per opts. An
// empty pattern, ".", or "^" is recognized as a universal match.
func NewPatternMatcher(pattern string, opts MatcherOptions) (*PatternMatcher, error) {
	m := &PatternMatcher{
		raw:      pattern,
		glob:     opts.Glob,
		fullPath: opts.FullPath,
	}

	if pattern == "" || pattern == "." || pattern == "^" {
		m.universal = true
		return m, nil
	}

	caseSensitive := ResolveCaseSensitivity(pattern, opts)
	m.caseInsensitive = !caseSensitive

	if opts.Glob {
		// Validate the glob compiles; matching itself is done lazily per
		// candidate by doublestar.Match since it has no precompiled form.
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		return m, nil
	}

	reSrc := pattern
	if opts.FixedStrings {
		reSrc = regexp.QuoteMeta(pattern)
	}
	if m.caseInsensitive {
		reSrc = "(?i)" + reSrc
	}
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	m.re = re
	return m, nil
}

// Match reports whether path matches, testing either the basename or the
// full path depending on how the matcher was configured.
func (m *PatternMatcher) Match(path string) bool {
	if m.universal {
		return true
	}

	candidate := path
	if !m.fullPath {
		candidate = filepath.Base(path)
	}
	candidate = filepath.ToSlash(candidate)

	if m.glob {
		pattern := m.raw
		if m.caseInsensitive {
			pattern = strings.ToLower(pattern)
			candidate = strings.ToLower(candidate)
		}
		matched, _ := doublestar.Match(pattern, candidate)
		return matched
	}

	return m.re.MatchString(candidate)
}

// globSet is an OR-combined set of glob patterns used for --exclude and for
// the FilterSet's exclude-glob predicate. Any match rejects.
type globSet struct {
	patterns []string
}

func newGlobSet(patterns []string) *globSet {
	if len(patterns) == 0 {
		return nil
	}
	return &globSet{patterns: patterns}
}

func (g *globSet) MatchesAny(path string) bool {
	if g == nil {
		return false
	}
	candidate := filepath.ToSlash(path)
	base := filepath.Base(candidate)
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, candidate); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}
