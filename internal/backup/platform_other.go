//go:build !windows

package backup

// platformCaseInsensitive reports the case-folding convention of the
// host's default filesystem (case-sensitive on Linux/macOS ext4/APFS-HFS+
// defaults; operators on case-insensitive mounts must rely on exact
// exclude patterns).
func platformCaseInsensitive() bool { return false }
