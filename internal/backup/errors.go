package backup

import "errors"

// Sentinel error kinds, matching the taxonomy in the design notes. Callers
// distinguish them with errors.Is rather than switching on type, since the
// underlying cause (a filesystem-view error, a budget check, a cooperative
// cancellation) varies by site.
var (
	ErrInvalidRelPath     = errors.New("invalid relative path")
	ErrAccessDenied       = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrTransient          = errors.New("transient I/O error")
	ErrCrossDevice        = errors.New("cross-device link")
	ErrUnsupported        = errors.New("operation not supported by this filesystem view")
	ErrComparison         = errors.New("comparison error")
	ErrBudgetExceeded     = errors.New("error budget exceeded")
	ErrCancelled          = errors.New("job cancelled")
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrTargetUnavailable  = errors.New("target unavailable")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrNoHardlinkBase     = errors.New("hardlink mode requires a compare root")
	ErrMissingModTime     = errors.New("compare method moddate requires mtime support")
)
