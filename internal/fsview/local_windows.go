//go:build windows

package fsview

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

// longPathThreshold matches Windows' legacy MAX_PATH limit; paths at or
// beyond it must use the \\?\ extended-length prefix to avoid silent
// truncation by APIs that haven't opted into long path support.
const longPathThreshold = 260

func extendedPath(p string) string {
	if len(p) < longPathThreshold || strings.HasPrefix(p, `\\?\`) {
		return p
	}
	if strings.HasPrefix(p, `\\`) {
		return `\\?\UNC\` + p[2:]
	}
	return `\\?\` + p
}

// isJunction reports whether info describes a reparse point (directory
// junction or symlink). Junctions are not followed by the scanner; they
// are reported as empty directories with a warning.
func isJunction(info os.FileInfo) bool {
	return info.Mode()&os.ModeIrregular != 0 || info.Sys() != nil && isReparsePoint(info)
}

func isReparsePoint(info os.FileInfo) bool {
	if sys, ok := info.Sys().(*windows.Win32FileAttributeData); ok {
		return sys.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0
	}
	return false
}

func freeSpace(root string) (uint64, error) {
	var free, total, totalFree uint64
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(rootPtr, &free, &total, &totalFree); err != nil {
		return 0, err
	}
	return free, nil
}
