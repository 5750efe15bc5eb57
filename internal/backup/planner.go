package backup

import "sort"

// Mode selects the matrix the Planner applies to each diff entry.
type Mode string

const (
	ModeSave     Mode = "save"
	ModeMirror   Mode = "mirror"
	ModeHardlink Mode = "hardlink"
)

func (m Mode) Validate() error {
	switch m {
	case ModeSave, ModeMirror, ModeHardlink:
		return nil
	default:
		return ErrConfiguration
	}
}

// DriveFullAction is the job's response to a pre-apply free-space shortfall.
type DriveFullAction string

const (
	ActionProceed DriveFullAction = "proceed"
	ActionPrompt  DriveFullAction = "prompt"
	ActionAbort   DriveFullAction = "abort"
)

// PlanOptions configures one Planner.Plan call.
type PlanOptions struct {
	Mode          Mode
	CopyEmptyDirs bool
	// RootExists tells the Planner whether the backup-instance root for
	// this source already exists (BackupJob checks for the source's folder
	// inside the instance directory, so it is false on a fresh versioned
	// instance and the root gets new_dir). The root's own directory action
	// is unconditional and is
	// never subject to the empty-directory rule.
	RootExists bool
	SourceView  FilesystemView
	CompareView FilesystemView
}

// Planner turns a classified diff stream into a totally ordered ActionList
// per spec.md §4.4. The ordering invariants — directory-creating actions
// before the file actions inside them, and deletions last in reverse depth
// order — are enforced by construction: non-delete actions are emitted in
// diff order (which is pre-order, so parents always precede children), and
// deletes are collected separately and appended sorted by depth descending.
type Planner struct {
	Logger Logger
}

func NewPlanner(logger Logger) *Planner {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Planner{Logger: logger}
}

// Plan builds the action list for one source from its diff stream.
func (p *Planner) Plan(entries []DiffEntry, opts PlanOptions) (ActionList, error) {
	if err := opts.Mode.Validate(); err != nil {
		return nil, err
	}

	var actions ActionList
	var deletes ActionList

	if opts.RootExists {
		actions = append(actions, Action{Type: ActionExistingDir, Path: "", Kind: KindDirectory})
	} else {
		actions = append(actions, Action{Type: ActionNewDir, Path: "", Kind: KindDirectory})
	}

	for _, d := range entries {
		switch {
		case d.Source != nil && d.Compare == nil:
			actions = append(actions, p.sourceOnly(*d.Source, opts)...)
		case d.Source == nil && d.Compare != nil:
			if act, ok := p.compareOnly(*d.Compare, opts); ok {
				deletes = append(deletes, act)
			}
		default:
			actions = append(actions, p.both(*d.Source, *d.Compare, d.Verdict, opts)...)
		}
	}

	sort.SliceStable(deletes, func(i, j int) bool {
		return deletes[i].depth() > deletes[j].depth()
	})
	actions = append(actions, deletes...)
	return actions, nil
}

func (p *Planner) sourceOnly(e Entry, opts PlanOptions) ActionList {
	if e.Kind == KindDirectory {
		if e.IsEmptyDir {
			if opts.CopyEmptyDirs {
				return ActionList{{Type: ActionEmptyDir, Path: e.RelPath, Kind: KindDirectory, ModTime: e.ModTime}}
			}
			return nil
		}
		return ActionList{{Type: ActionNewDir, Path: e.RelPath, Kind: KindDirectory, ModTime: e.ModTime}}
	}
	return ActionList{p.copyAction(e, opts)}
}

func (p *Planner) compareOnly(e Entry, opts PlanOptions) (Action, bool) {
	if opts.Mode != ModeMirror {
		return Action{}, false
	}
	return Action{Type: ActionDelete, Path: e.RelPath, Kind: e.Kind}, true
}

func (p *Planner) both(s, c Entry, verdict Verdict, opts PlanOptions) ActionList {
	if s.Kind == KindDirectory {
		return ActionList{{Type: ActionExistingDir, Path: s.RelPath, Kind: KindDirectory, ModTime: s.ModTime}}
	}
	if verdict == VerdictDifferent {
		return ActionList{p.copyAction(s, opts)}
	}
	// Same file. SAVE/MIRROR ignore it; HARDLINK must still materialize it
	// into the new backup instance.
	if opts.Mode != ModeHardlink {
		return nil
	}
	abs, _ := opts.CompareView.AbsPath(c.RelPath)
	return ActionList{{
		Type:          ActionHardlink,
		Path:          s.RelPath,
		Kind:          KindFile,
		AbsLinkTarget: abs,
		Size:          s.Size,
		ModTime:       s.ModTime,
	}}
}

func (p *Planner) copyAction(e Entry, opts PlanOptions) Action {
	abs, _ := opts.SourceView.AbsPath(e.RelPath)
	return Action{
		Type:      ActionCopy,
		Path:      e.RelPath,
		Kind:      KindFile,
		AbsSource: abs,
		Size:      e.Size,
		ModTime:   e.ModTime,
	}
}

// CheckFreeSpace compares the plan's expected bytes to copy against the
// backup root's free space and reports whether the job should proceed
// without prompting, per target_drive_full_action.
func CheckFreeSpace(actions ActionList, targetView FilesystemView) (ok bool, expected int64, free uint64, err error) {
	expected = actions.ExpectedBytesCopied()
	free, err = targetView.FreeSpace()
	if err != nil {
		return false, expected, 0, err
	}
	return uint64(expected) <= free, expected, free, nil
}
