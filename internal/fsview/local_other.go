//go:build !windows

package fsview

import (
	"os"

	"golang.org/x/sys/unix"
)

// extendedPath is a no-op outside Windows, which has no analogous
// MAX_PATH limitation.
func extendedPath(p string) string { return p }

// isJunction is meaningless outside Windows.
func isJunction(os.FileInfo) bool { return false }

func freeSpace(root string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
