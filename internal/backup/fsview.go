package backup

import (
	"io"
	"time"
)

// ListEntry is one child reported by FilesystemView.List.
type ListEntry struct {
	Name       string
	Kind       Kind
	Size       int64
	ModTime    time.Time // zero if this view cannot report mtime
	IsJunction bool      // directory is a reparse point/junction and is not traversed
}

// FilesystemView is the uniform interface the scanner, planner, and
// executor use to read and write a tree, whether it is a local disk, an S3
// bucket/prefix, an FTP server, or a Windows Portable Device. A single call
// site never switches on the concrete kind; it only consumes this
// interface.
type FilesystemView interface {
	// List returns the direct children of dir in an arbitrary order; callers
	// sort as needed. Fails with ErrAccessDenied, ErrNotFound, or
	// ErrTransient.
	List(dir RelPath) ([]ListEntry, error)

	// OpenRead opens relpath for streaming read.
	OpenRead(relpath RelPath) (io.ReadCloser, error)

	// OpenWrite opens relpath for streaming write, truncating or creating
	// it. It does not create parent directories; the caller must ensure
	// they exist.
	OpenWrite(relpath RelPath) (io.WriteCloser, error)

	// Stat reports metadata for relpath.
	Stat(relpath RelPath) (ListEntry, error)

	// Exists reports whether relpath is present, without distinguishing
	// file from directory.
	Exists(relpath RelPath) (bool, error)

	// Mkdir creates relpath as a directory. The parent must already exist.
	Mkdir(relpath RelPath) error

	// SetModTime sets relpath's modification time. Used to preserve a
	// file's mtime across a copy, and to restore a directory's mtime after
	// the copies into it have disturbed it (see the executor's two-phase
	// apply). Backends that cannot set mtime (S3, FTP, WPD) return
	// ErrUnsupported; callers must treat that as non-fatal.
	SetModTime(relpath RelPath, mtime time.Time) error

	// Hardlink creates newRelpath as a hardlink to targetAbs, an absolute
	// location previously reported by this or another view rooted at the
	// same volume. Fails with ErrCrossDevice or ErrUnsupported when the
	// backend has no hardlink concept or the link would cross volumes.
	Hardlink(targetAbs string, newRelpath RelPath) error

	// Delete removes relpath. kind must match what is actually on disk;
	// deleting a non-empty directory is an error.
	Delete(relpath RelPath, kind Kind) error

	// AbsPath returns an absolute, backend-specific location string for
	// relpath, suitable for use as the targetAbs argument to Hardlink on
	// the same view. Not all backends can produce a meaningful value;
	// those that cannot return ErrUnsupported.
	AbsPath(relpath RelPath) (string, error)

	// FreeSpace reports the number of bytes free at the view's root.
	// Backends with no fixed capacity (e.g. object storage) report a very
	// large value rather than erroring.
	FreeSpace() (uint64, error)

	// SupportsModTime reports whether Stat/List entries carry a usable
	// mtime. NewComparatorChain refuses a compare_method chain containing
	// moddate against a view that reports false here.
	SupportsModTime() bool
}
