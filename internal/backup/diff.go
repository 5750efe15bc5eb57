package backup

import "strings"

// DiffEntry is one row of the merged source/compare stream: at least one of
// Source, Compare is non-nil. When both are present and both are files, a
// Verdict is attached.
type DiffEntry struct {
	RelPath RelPath
	Source  *Entry
	Compare *Entry
	Verdict Verdict
	// ComparisonErr is set when the comparator chain could not read one of
	// the two files during a bytes/hash comparison. The diff still carries
	// a VerdictDifferent in this case; callers must count it as a scan
	// error (ErrComparison), per the error-handling design.
	ComparisonErr error
}

// Diff merge-joins two scan streams that share the same total order: the
// scanner's pre-order, where a directory's entry precedes its entire
// subtree, which precedes the next sibling. Compare-only entries are
// inserted at their sorted position rather than appended, so the result
// preserves the ordering invariant the Planner depends on.
//
// When chain is nil, both-sides file pairs are left without a verdict
// (VerdictDifferent is reported, so callers that don't need comparison can
// ignore it, and callers that do must always pass a chain).
func Diff(source, compare []Entry, chain *ComparatorChain) []DiffEntry {
	var out []DiffEntry
	i, j := 0, 0
	for i < len(source) && j < len(compare) {
		s, c := source[i], compare[j]
		switch relPathCompare(s.RelPath, c.RelPath) {
		case 0:
			if s.Kind == c.Kind {
				out = append(out, pairEntry(s, c, chain))
			} else {
				out = append(out, DiffEntry{RelPath: s.RelPath, Source: &source[i]})
				out = append(out, DiffEntry{RelPath: c.RelPath, Compare: &compare[j]})
			}
			i++
			j++
		case -1:
			out = append(out, DiffEntry{RelPath: s.RelPath, Source: &source[i]})
			i++
		default:
			out = append(out, DiffEntry{RelPath: c.RelPath, Compare: &compare[j]})
			j++
		}
	}
	for ; i < len(source); i++ {
		out = append(out, DiffEntry{RelPath: source[i].RelPath, Source: &source[i]})
	}
	for ; j < len(compare); j++ {
		out = append(out, DiffEntry{RelPath: compare[j].RelPath, Compare: &compare[j]})
	}
	return out
}

func pairEntry(s, c Entry, chain *ComparatorChain) DiffEntry {
	d := DiffEntry{RelPath: s.RelPath, Source: &s, Compare: &c}
	if s.Kind == KindDirectory {
		d.Verdict = VerdictSame
		return d
	}
	if chain == nil {
		d.Verdict = VerdictDifferent
		return d
	}
	verdict, err := chain.Compare(s, c)
	d.Verdict = verdict
	d.ComparisonErr = err
	if err != nil {
		d.Verdict = VerdictDifferent
	}
	return d
}

// relPathCompare orders two RelPaths consistently with the scanner's
// pre-order traversal: -1 if a sorts first, 1 if b does, 0 if equal.
//
// Plain lexicographic comparison of the raw strings does not agree with
// pre-order whenever a directory shares a prefix with a sibling file, e.g.
// dir "sub" (walked as "sub", "sub/b.txt", ...) alongside file "sub.txt":
// pre-order visits "sub", "sub/b.txt", "sub.txt", but "sub.txt" sorts
// before "sub/b.txt" as a flat string ('.' < '/'). Comparing path segment
// by segment and treating a shorter path as an ancestor of a longer one
// that shares its segments matches the scanner's ordering instead.
func relPathCompare(a, b RelPath) int {
	sa, sb := string(a), string(b)
	if platformCaseInsensitive() {
		sa, sb = toLowerASCII(sa), toLowerASCII(sb)
	}
	partsA := strings.Split(sa, "/")
	partsB := strings.Split(sb, "/")
	for i := 0; i < len(partsA) && i < len(partsB); i++ {
		if partsA[i] != partsB[i] {
			return strings.Compare(partsA[i], partsB[i])
		}
	}
	switch {
	case len(partsA) < len(partsB):
		return -1
	case len(partsA) > len(partsB):
		return 1
	default:
		return 0
	}
}
