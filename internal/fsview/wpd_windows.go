//go:build windows

package fsview

import (
	"io"
	"time"

	"frontdown/internal/backup"
)

// WPDView is a placeholder for a Windows Portable Devices source (phones,
// cameras, MTP-mounted devices addressed by a device/object-id pair rather
// than a drive letter), per spec.md §4.1's optional device sources.
//
// A real implementation needs a COM binding to the WPD API
// (IPortableDeviceManager/IPortableDeviceContent) that appears nowhere in
// the retrieved example corpus, and no pure-Go WPD client exists in the
// wider ecosystem either. Rather than fabricate one, every method reports
// ErrUnsupported; wiring this up for real is a DESIGN.md-recorded gap, not
// a silent one.
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
