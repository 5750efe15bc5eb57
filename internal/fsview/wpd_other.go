//go:build !windows

package fsview

import (
	"io"
	"time"

	"frontdown/internal/backup"
)

// WPDView is unavailable outside Windows: Windows Portable Devices is a
// Windows-only shell API. See wpd_windows.go for why even the Windows
// build reports ErrUnsupported from every method.
type WPDView struct {
	DeviceID string
}

func NewWPDView(deviceID string) (*WPDView, error) {
	return nil, backup.ErrUnsupported
}

func (v *WPDView) List(backup.RelPath) ([]backup.ListEntry, error)  { return nil, backup.ErrUnsupported }
func (v *WPDView) OpenRead(backup.RelPath) (io.ReadCloser, error)   { return nil, backup.ErrUnsupported }
func (v *WPDView) OpenWrite(backup.RelPath) (io.WriteCloser, error) { return nil, backup.ErrUnsupported }
func (v *WPDView) Stat(backup.RelPath) (backup.ListEntry, error)    { return backup.ListEntry{}, backup.ErrUnsupported }
func (v *WPDView) Exists(backup.RelPath) (bool, error)              { return false, backup.ErrUnsupported }
func (v *WPDView) Mkdir(backup.RelPath) error                       { return backup.ErrUnsupported }
func (v *WPDView) SetModTime(backup.RelPath, time.Time) error       { return backup.ErrUnsupported }
func (v *WPDView) Hardlink(string, backup.RelPath) error            { return backup.ErrUnsupported }
func (v *WPDView) Delete(backup.RelPath, backup.Kind) error         { return backup.ErrUnsupported }
func (v *WPDView) AbsPath(backup.RelPath) (string, error)           { return "", backup.ErrUnsupported }
func (v *WPDView) FreeSpace() (uint64, error)                       { return 0, backup.ErrUnsupported }
func (v *WPDView) SupportsModTime() bool                            { return false }

var _ backup.FilesystemView = (*WPDView)(nil)
