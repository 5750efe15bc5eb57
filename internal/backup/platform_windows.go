//go:build windows

package backup

// platformCaseInsensitive reports the case-folding convention of the
// host's default filesystem (NTFS).
func platformCaseInsensitive() bool { return true }
