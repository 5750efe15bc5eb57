package backup

import (
	"io"
)

// CompareMethod is one link in the comparator chain.
type CompareMethod string

const (
	CompareModDate CompareMethod = "moddate"
	CompareSize    CompareMethod = "size"
	CompareBytes   CompareMethod = "bytes"
	CompareHash    CompareMethod = "hash" // reserved, not implemented
)

// modTimeTolerance matches FAT-granularity mtime storage: two timestamps
// within this window, after whole-second truncation, are considered equal.
const modTimeTolerance = 2 // seconds

// Verdict is the outcome of comparing a source and compare entry that share
// a relpath.
type Verdict int

const (
	VerdictSame Verdict = iota
	VerdictDifferent
)

// ComparatorChain evaluates an ordered list of CompareMethods, short
// circuiting on the first disagreement. bytes/hash only run when every
// earlier check agreed, so two files are never read unless their cheaper
// metadata already matched.
type ComparatorChain struct {
	Methods     []CompareMethod
	SourceView  FilesystemView
	CompareView FilesystemView
}

// NewComparatorChain validates that methods is non-empty and, if moddate
// appears anywhere in it, that both views can report mtime.
func NewComparatorChain(methods []CompareMethod, sourceView, compareView FilesystemView) (*ComparatorChain, error) {
	if len(methods) == 0 {
		return nil, ErrConfiguration
	}
	for _, m := range methods {
		if m == CompareModDate && (!sourceView.SupportsModTime() || !compareView.SupportsModTime()) {
			return nil, ErrMissingModTime
		}
	}
	return &ComparatorChain{Methods: methods, SourceView: sourceView, CompareView: compareView}, nil
}

// Compare reports whether s and c, which share a relpath, are the same
// file. It returns a non-nil error if a bytes/hash comparison could not
// read one of the files; callers must treat that as ComparisonError and
// count it as a scan error, not a plan failure.
func (c *ComparatorChain) Compare(s, cmp Entry) (Verdict, error) {
	for _, method := range c.Methods {
		var same bool
		var err error
		switch method {
		case CompareModDate:
			same = sameModTime(s.ModTime, cmp.ModTime)
		case CompareSize:
			same = s.Size == cmp.Size
		case CompareBytes:
			same, err = c.compareBytes(s, cmp)
		case CompareHash:
			// Reserved: no stable digest method is specified. Treat as an
			// always-agreeing no-op rather than silently inventing one.
			same = true
		}
		if err != nil {
			return VerdictDifferent, err
		}
		if !same {
			return VerdictDifferent, nil
		}
	}
	return VerdictSame, nil
}

func sameModTime(a, b timeLike) bool {
	diff := a.Unix() - b.Unix()
	if diff < 0 {
		diff = -diff
	}
	return diff <= modTimeTolerance
}

// timeLike avoids importing time in this file's public surface while still
// letting sameModTime work against time.Time values.
type timeLike interface {
	Unix() int64
}

func (c *ComparatorChain) compareBytes(s, cmp Entry) (bool, error) {
	if s.Size != cmp.Size {
		return false, nil
	}
	sr, err := c.SourceView.OpenRead(s.RelPath)
	if err != nil {
		return false, err
	}
	defer sr.Close()
	cr, err := c.CompareView.OpenRead(cmp.RelPath)
	if err != nil {
		return false, err
	}
	defer cr.Close()

	const bufSize = 8192
	bufA := make([]byte, bufSize)
	bufB := make([]byte, bufSize)
	for {
		nA, errA := io.ReadFull(sr, bufA)
		nB, errB := io.ReadFull(cr, bufB)
		if nA != nB {
			return false, nil
		}
		if nA > 0 && string(bufA[:nA]) != string(bufB[:nB]) {
			return false, nil
		}
		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if doneA != doneB {
			return false, nil
		}
		if doneA {
			return true, nil
		}
		if errA != nil {
			return false, errA
		}
		if errB != nil {
			return false, errB
		}
	}
}
