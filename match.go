package bucketkit

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gobwas/glob"
)

// Pattern selects entries during listing and batch operations. It is
// either a glob string or a compiled regular expression; the zero value
// matches everything.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

// GlobPattern creates a glob pattern ("**/*.txt", "reports/*.csv", ...).
// Compilation is deferred to the matcher.
func GlobPattern(pattern string) Pattern {
	return Pattern{glob: pattern}
}

// RegexpPattern creates a pattern from a compiled regular expression.
func RegexpPattern(re *regexp.Regexp) Pattern {
	return Pattern{re: re}
}

// IsZero reports whether the pattern is empty (match-all).
func (p Pattern) IsZero() bool {
	return p.glob == "" && p.re == nil
}

// String returns the pattern source, for diagnostics.
func (p Pattern) String() string {
	if p.re != nil {
		return p.re.String()
	}
	return p.glob
}

// Matcher evaluates patterns against listing-relative paths. The core
// implements no glob engine of its own; a different engine can be injected
// per session via WithMatcher.
type Matcher interface {
	Match(pattern Pattern, path string) (bool, error)
}

// globMatcher is the default Matcher. Glob patterns are compiled with
// gobwas/glob using '/' as the separator, so "*" stays within one path
// segment and "**" crosses segments. Compiled globs are cached.
type globMatcher struct {
	mu    sync.Mutex
	cache map[string]glob.Glob
}

// NewGlobMatcher creates the default glob-based matcher.
func NewGlobMatcher() Matcher {
	return &globMatcher{cache: make(map[string]glob.Glob)}
}

// Match implements Matcher. A zero pattern matches everything; so do the
// conventional match-all globs "*" and "**".
func (m *globMatcher) Match(pattern Pattern, path string) (bool, error) {
	if pattern.IsZero() {
		return true, nil
	}
	if pattern.re != nil {
		return pattern.re.MatchString(path), nil
	}
	if pattern.glob == "*" || pattern.glob == "**" {
		return true, nil
	}

	g, err := m.compile(pattern.glob)
	if err != nil {
		return false, fmt.Errorf("%w: glob %q: %v", ErrInvalidParams, pattern.glob, err)
	}
	return g.Match(path), nil
}

func (m *globMatcher) compile(pattern string) (glob.Glob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.cache[pattern]; ok {
		return g, nil
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}
	m.cache[pattern] = g
	return g, nil
}
