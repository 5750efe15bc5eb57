package backup

// DecisionCallback is consulted whenever a *_action config field is set to
// "prompt": target drive full before applying a plan, or a source
// unavailable before scanning it. internal/app wires a terminal-aware
// implementation; a nil callback counts as a declined prompt.
type DecisionCallback interface {
	// Confirm asks a yes/no question about situation and returns whether
	// the job should proceed.
	Confirm(situation string, details map[string]any) (bool, error)
}

// resolveAction applies the proceed/prompt/abort policy for one situation,
// consulting cb only when policy is ActionPrompt.
func resolveAction(policy DriveFullAction, cb DecisionCallback, situation string, details map[string]any) (proceed bool, err error) {
	switch policy {
	case ActionProceed:
		return true, nil
	case ActionAbort:
		return false, nil
	case ActionPrompt:
		if cb == nil {
			return false, nil
		}
		return cb.Confirm(situation, details)
	default:
		return false, ErrConfiguration
	}
}
