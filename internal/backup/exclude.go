package backup

import (
	"path"
	"strings"
)

// ExcludeMatcher decides whether an entry the scanner encounters is
// excluded. A single pattern with a trailing "/" matches directories only;
// when it matches, the scanner skips the directory's entire subtree rather
// than just omitting the directory entry itself.
type ExcludeMatcher interface {
	// MatchesDir reports whether relpath, a directory, should be skipped
	// along with everything beneath it.
	MatchesDir(relpath RelPath) bool
	// MatchesFile reports whether relpath, a file, should be omitted.
	MatchesFile(relpath RelPath) bool
}

type globPattern struct {
	glob     string
	dirOnly  bool
}

// GlobExcludeMatcher implements ExcludeMatcher with shell-glob patterns
// evaluated against the normalized forward-slash relative path, matching
// case-sensitively or not per the host platform's filesystem convention.
type GlobExcludeMatcher struct {
	patterns      []globPattern
	caseInsensitive bool
}

// NewGlobExcludeMatcher builds a matcher from raw exclude_patterns entries.
// A pattern ending in "/" is directory-only; the trailing separator is
// stripped before matching.
func NewGlobExcludeMatcher(rawPatterns []string) *GlobExcludeMatcher {
	m := &GlobExcludeMatcher{caseInsensitive: platformCaseInsensitive()}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		dirOnly := strings.HasSuffix(raw, "/")
		glob := strings.TrimSuffix(raw, "/")
		if m.caseInsensitive {
			glob = strings.ToLower(glob)
		}
		m.patterns = append(m.patterns, globPattern{glob: glob, dirOnly: dirOnly})
	}
	return m
}

func (m *GlobExcludeMatcher) MatchesDir(relpath RelPath) bool {
	return m.matches(relpath, true)
}

func (m *GlobExcludeMatcher) MatchesFile(relpath RelPath) bool {
	return m.matches(relpath, false)
}

func (m *GlobExcludeMatcher) matches(relpath RelPath, isDir bool) bool {
	candidate := string(relpath)
	if m.caseInsensitive {
		candidate = strings.ToLower(candidate)
	}
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if ok, _ := path.Match(p.glob, candidate); ok {
			return true
		}
		// Also allow a bare basename pattern (no "/") to match anywhere in
		// the tree, not only at the root, mirroring the common .gitignore
		// convention the original tool's exclude_patterns follow.
		if !strings.Contains(p.glob, "/") {
			if ok, _ := path.Match(p.glob, basename(candidate)); ok {
				return true
			}
		}
	}
	return false
}

func basename(p string) string {
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}
