package backup

import (
	"sort"
)

// Scanner walks a FilesystemView and produces a ScanResult, applying
// exclusion patterns and counting scan errors along the way. It never
// unwinds on a single subtree failure: a failed List attributes one
// scan_error to that subtree, skips it, and continues with siblings.
type Scanner struct {
	View    FilesystemView
	Exclude ExcludeMatcher
	Logger  Logger
}

// NewScanner constructs a Scanner. excl may be nil, in which case nothing
// is excluded.
func NewScanner(view FilesystemView, excl ExcludeMatcher, logger Logger) *Scanner {
	if excl == nil {
		excl = NewGlobExcludeMatcher(nil)
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Scanner{View: view, Exclude: excl, Logger: logger}
}

// Scan enumerates root in deterministic pre-order: each directory's entry
// precedes its children, and children are sorted by name under the
// platform case rule before recursing.
func (s *Scanner) Scan(root RelPath) ScanResult {
	result := ScanResult{Root: string(root), HasModTimes: s.View.SupportsModTime()}
	s.walk(root, &result)
	return result
}

func (s *Scanner) walk(dir RelPath, result *ScanResult) {
	children, err := s.View.List(dir)
	if err != nil {
		result.ScanErrors++
		s.Logger.Warn("scan: failed to list directory", "path", string(dir), "error", err)
		return
	}

	sort.Slice(children, func(i, j int) bool {
		a, b := children[i].Name, children[j].Name
		if platformCaseInsensitive() {
			return lowerLess(a, b)
		}
		return a < b
	})

	for _, c := range children {
		childPath := dir.Join(c.Name)
		if c.Kind == KindDirectory {
			if s.Exclude.MatchesDir(childPath) {
				continue
			}
		} else if s.Exclude.MatchesFile(childPath) {
			continue
		}

		if c.Kind == KindDirectory {
			subStart := len(result.Entries)
			result.Entries = append(result.Entries, Entry{RelPath: childPath, Kind: KindDirectory, ModTime: c.ModTime})
			if c.IsJunction {
				// Junctions are not traversed, to avoid infinite loops
				// through self-referential mount points; report as empty.
				s.Logger.Warn("scan: skipping directory junction", "path", string(childPath))
				result.Entries[subStart].IsEmptyDir = true
				continue
			}
			s.walk(childPath, result)
			// The directory is empty iff walk() appended nothing for it.
			if len(result.Entries) == subStart+1 {
				result.Entries[subStart].IsEmptyDir = true
			}
		} else {
			result.Entries = append(result.Entries, Entry{
				RelPath: childPath,
				Kind:    KindFile,
				Size:    c.Size,
				ModTime: c.ModTime,
			})
		}
	}
}

func lowerLess(a, b string) bool {
	la, lb := toLowerASCII(a), toLowerASCII(b)
	return la < lb
}

func toLowerASCII(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
