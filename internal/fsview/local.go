// Package fsview provides the concrete backup.FilesystemView backends:
// local disk, S3, FTP, Windows Portable Devices, and an in-memory fake for
// tests.
package fsview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"frontdown/internal/backup"
)

// LocalView backs a backup.FilesystemView with the local disk, rooted at
// Root. Writes are atomic (temp file + rename), following the same
// discipline this codebase uses for every other durable artifact. Long
// path handling and directory-junction detection are platform-specific
// details factored into local_windows.go / local_other.go.
type LocalView struct {
	Root string
}

// NewLocalView roots a LocalView at root, which must already exist.
func NewLocalView(root string) (*LocalView, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	return &LocalView{Root: abs}, nil
}

func (v *LocalView) path(relpath backup.RelPath) string {
	return extendedPath(filepath.Join(v.Root, filepath.FromSlash(string(relpath))))
}

func (v *LocalView) List(dir backup.RelPath) ([]backup.ListEntry, error) {
	entries, err := os.ReadDir(v.path(dir))
	if err != nil {
		return nil, translateErr(err)
	}
	out := make([]backup.ListEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, listEntryFromInfo(e.Name(), info))
	}
	return out, nil
}

func (v *LocalView) OpenRead(relpath backup.RelPath) (io.ReadCloser, error) {
	f, err := os.Open(v.path(relpath))
	if err != nil {
		return nil, translateErr(err)
	}
	return f, nil
}

// atomicWriter buffers a write into a temp file in the destination's
// directory and renames it into place on Close, matching the
// write-then-rename pattern this codebase uses everywhere else it needs a
// durable artifact (see internal/backup/record.go).
type atomicWriter struct {
	tmp  *os.File
	dest string
}

func (v *LocalView) OpenWrite(relpath backup.RelPath) (io.WriteCloser, error) {
	dest := v.path(relpath)
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".frontdown-*.tmp")
	if err != nil {
		return nil, translateErr(err)
	}
	return &atomicWriter{tmp: tmp, dest: dest}, nil
}

func (w *atomicWriter) Write(p []byte) (int, error) { return w.tmp.Write(p) }

func (w *atomicWriter) Close() error {
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return err
	}
	if err := os.Rename(w.tmp.Name(), w.dest); err != nil {
		os.Remove(w.tmp.Name())
		return err
	}
	return nil
}

func (v *LocalView) Stat(relpath backup.RelPath) (backup.ListEntry, error) {
	info, err := os.Stat(v.path(relpath))
	if err != nil {
		return backup.ListEntry{}, translateErr(err)
	}
	return listEntryFromInfo(filepath.Base(v.path(relpath)), info), nil
}

func (v *LocalView) Exists(relpath backup.RelPath) (bool, error) {
	_, err := os.Stat(v.path(relpath))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, translateErr(err)
}

func (v *LocalView) Mkdir(relpath backup.RelPath) error {
	if err := os.Mkdir(v.path(relpath), 0755); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return translateErr(err)
	}
	return nil
}

func (v *LocalView) SetModTime(relpath backup.RelPath, mtime time.Time) error {
	return os.Chtimes(v.path(relpath), mtime, mtime)
}

func (v *LocalView) Hardlink(targetAbs string, newRelpath backup.RelPath) error {
	err := os.Link(targetAbs, v.path(newRelpath))
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && linkErr.Err == syscall.EXDEV {
		return fmt.Errorf("%w: %v", backup.ErrCrossDevice, err)
	}
	if errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EPERM) {
		return fmt.Errorf("%w: %v", backup.ErrUnsupported, err)
	}
	return err
}

func (v *LocalView) Delete(relpath backup.RelPath, kind backup.Kind) error {
	p := v.path(relpath)
	if kind == backup.KindDirectory {
		return translateErr(os.Remove(p))
	}
	return translateErr(os.Remove(p))
}

func (v *LocalView) AbsPath(relpath backup.RelPath) (string, error) {
	return v.path(relpath), nil
}

func (v *LocalView) FreeSpace() (uint64, error) {
	return freeSpace(v.Root)
}

func (v *LocalView) SupportsModTime() bool { return true }

var _ backup.FilesystemView = (*LocalView)(nil)

func listEntryFromInfo(name string, info os.FileInfo) backup.ListEntry {
	e := backup.ListEntry{Name: name, ModTime: info.ModTime()}
	if info.IsDir() {
		e.Kind = backup.KindDirectory
		e.IsJunction = isJunction(info)
	} else {
		e.Kind = backup.KindFile
		e.Size = info.Size()
	}
	return e
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %v", backup.ErrNotFound, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %v", backup.ErrAccessDenied, err)
	default:
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) {
			return err
		}
		return err
	}
}
