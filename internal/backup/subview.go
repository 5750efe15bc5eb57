package backup

import (
	"io"
	"time"
)

// subView presents base rooted at prefix as an independent FilesystemView,
// so the scanner/diff/planner/executor can operate on "the compare
// instance's copy of source X" or "this instance's copy of source X"
// without knowing they are really sharing one backend view over the whole
// backup root.
type subView struct {
	base   FilesystemView
	prefix RelPath
}

// NewSubView roots base at prefix, translating every relpath argument by
// prepending prefix before delegating.
func NewSubView(base FilesystemView, prefix RelPath) FilesystemView {
	if prefix == "" {
		return base
	}
	return &subView{base: base, prefix: prefix}
}

func (v *subView) full(relpath RelPath) RelPath { return v.prefix.Join(string(relpath)) }

func (v *subView) List(dir RelPath) ([]ListEntry, error) { return v.base.List(v.full(dir)) }

func (v *subView) OpenRead(relpath RelPath) (io.ReadCloser, error) {
	return v.base.OpenRead(v.full(relpath))
}

func (v *subView) OpenWrite(relpath RelPath) (io.WriteCloser, error) {
	return v.base.OpenWrite(v.full(relpath))
}

func (v *subView) Stat(relpath RelPath) (ListEntry, error) { return v.base.Stat(v.full(relpath)) }

func (v *subView) Exists(relpath RelPath) (bool, error) { return v.base.Exists(v.full(relpath)) }

func (v *subView) Mkdir(relpath RelPath) error { return v.base.Mkdir(v.full(relpath)) }

func (v *subView) SetModTime(relpath RelPath, mtime time.Time) error {
	return v.base.SetModTime(v.full(relpath), mtime)
}

func (v *subView) Hardlink(targetAbs string, newRelpath RelPath) error {
	return v.base.Hardlink(targetAbs, v.full(newRelpath))
}

func (v *subView) Delete(relpath RelPath, kind Kind) error {
	return v.base.Delete(v.full(relpath), kind)
}

func (v *subView) AbsPath(relpath RelPath) (string, error) { return v.base.AbsPath(v.full(relpath)) }

func (v *subView) FreeSpace() (uint64, error) { return v.base.FreeSpace() }

func (v *subView) SupportsModTime() bool { return v.base.SupportsModTime() }
