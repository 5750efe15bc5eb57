package app

import "frontdown/internal/backup"

// RunState tracks one backup job invocation from the CLI's perspective:
// which config drove it, in what mode, its status, and (through ID being
// set) whether its start has been recorded in run history.
type RunState struct {
	ID         string
	ConfigPath string
	Mode       string
	Status     string // "running", "success", "partial", "error", "cancelled"
}

// NewRunState creates an in-memory RunState with no ID assigned yet.
func NewRunState(configPath, mode string) *RunState {
	return &RunState{
		ConfigPath: configPath,
		Mode:       mode,
		Status:     "running",
	}
}

// Started reports whether this run has been assigned an ID and recorded
// to history.
func (r *RunState) Started() bool {
	return r.ID != ""
}

// statusFor derives a RunState.Status from a completed job's outcome:
// "cancelled" when the run was interrupted, "success" when every source
// completed cleanly, "partial" when the job finished but tripped an
// error budget or left a source incomplete, "error" on anything else.
func statusFor(result *backup.JobResult, err error) string {
	if err == backup.ErrCancelled || (result != nil && result.Cancelled) {
		return "cancelled"
	}
	if result == nil {
		return "error"
	}
	if result.Success {
		return "success"
	}
	return "partial"
}
