package backup

import (
	"fmt"
	"time"
)

// SourceSpec describes one source to back up: its filesystem view, its name
// (which becomes its backup subfolder), its root (recorded in the action
// record so apply-actions can reopen the same tree later), and its
// exclusion patterns.
type SourceSpec struct {
	Name            string
	View            FilesystemView
	Root            string
	ExcludePatterns []string
}

// CompareRootFinder locates the most recent successful backup instance
// under rootView, excluding the instance currently being written (which
// may already exist as an empty directory). Implemented by internal/report
// against the on-disk metadata.json files, kept out of this package so the
// core pipeline has no JSON/report dependency.
type CompareRootFinder interface {
	FindMostRecentSuccessful(rootView FilesystemView, excludeInstance RelPath) (instance RelPath, found bool, err error)
}

// InstanceRecorder persists per-instance artifacts (metadata.json,
// actions.json) that the job produces as a side effect of running.
// Implemented by internal/report; kept out of this package for the same
// reason as CompareRootFinder.
type InstanceRecorder interface {
	WriteMetadata(rootView FilesystemView, instance RelPath, meta InstanceMetadata) error
	WriteActionRecord(rootView FilesystemView, instance RelPath, rec *ActionRecord) error
	WriteActionHTML(rootView FilesystemView, instance RelPath, rec *ActionRecord, excludeTypes []ActionType) error
}

// InstanceMetadata is the minimal per-instance record the job writes so a
// later run (or the CLI's history feature) can determine success without
// re-scanning.
type InstanceMetadata struct {
	Name       string    `json:"name"`
	Successful bool      `json:"successful"`
	Started    time.Time `json:"started"`
	Sources    []string  `json:"sources"`
}

// JobSpec configures one BackupJob.Run invocation.
type JobSpec struct {
	Sources     []SourceSpec
	BackupRoot  FilesystemView

	Mode                  Mode
	Versioned             bool
	VersionName           string
	CompareWithLastBackup bool
	CopyEmptyDirs         bool

	SaveActionFile          bool
	SaveActionHTML          bool
	ExcludeActionHTMLTypes  []ActionType
	ApplyActions            bool

	CompareMethods []CompareMethod

	MaxScanningErrors int64
	MaxBackupErrors   int64

	TargetDriveFullAction   DriveFullAction
	SourceUnavailableAction DriveFullAction

	CompareRootFinder CompareRootFinder
	Recorder          InstanceRecorder
	Decision          DecisionCallback

	Clock    Clock
	IDGen    RunIDGenerator
	Logger   Logger
	Progress ProgressSink
	Cancel   func() bool
}

// SourceResult is the per-source outcome of one job run.
type SourceResult struct {
	Name       string
	Skipped    bool
	SkipReason string
	Statistics *Statistics
}

// JobResult is the outcome of one BackupJob.Run call.
type JobResult struct {
	InstanceDir string
	Success     bool
	Cancelled   bool
	Statistics  *Statistics
	Sources     []SourceResult
}

// BackupJob orchestrates a multi-source run per spec.md §4.7: resolving the
// instance directory, selecting each source's compare root, scanning,
// diffing, planning, recording, and executing, then aggregating statistics
// and deciding overall success.
type BackupJob struct{}

// Run executes spec once.
func (BackupJob) Run(spec JobSpec) (*JobResult, error) {
	if err := spec.Mode.Validate(); err != nil {
		return nil, err
	}
	if spec.Mode == ModeHardlink {
		spec.Versioned = true
		spec.CompareWithLastBackup = true
	}
	clock := spec.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := spec.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	progress := spec.Progress
	if progress == nil {
		progress = NopProgressSink{}
	}

	started := clock.Now()
	instanceRel, err := resolveInstanceDir(spec, started)
	if err != nil {
		return nil, fmt.Errorf("resolving backup instance directory: %w", err)
	}
	if err := spec.BackupRoot.Mkdir(instanceRel); err != nil {
		if exists, existsErr := spec.BackupRoot.Exists(instanceRel); existsErr != nil || !exists {
			return nil, fmt.Errorf("creating backup instance directory: %w", err)
		}
	}

	total := &Statistics{StartTime: started}
	result := &JobResult{InstanceDir: string(instanceRel), Statistics: total}

	var compareInstance RelPath
	haveCompare := false
	if spec.CompareWithLastBackup {
		if spec.CompareRootFinder == nil {
			return nil, fmt.Errorf("compare_with_last_backup requires a compare root finder")
		}
		found, ok, ferr := spec.CompareRootFinder.FindMostRecentSuccessful(spec.BackupRoot, instanceRel)
		if ferr != nil {
			return nil, fmt.Errorf("finding compare root: %w", ferr)
		}
		compareInstance, haveCompare = found, ok
		if !haveCompare && spec.Mode == ModeHardlink {
			logger.Warn("hardlink mode requested but no prior successful backup exists; falling back to a full copy")
		}
	}

	anyCompleted := false
	rec := &ActionRecord{InstanceDir: string(instanceRel)}
	persistRec := func() {
		if spec.SaveActionFile && spec.Recorder != nil {
			if err := spec.Recorder.WriteActionRecord(spec.BackupRoot, instanceRel, rec); err != nil {
				logger.Warn("failed to persist action record", "error", err)
			}
		}
		if spec.SaveActionHTML && spec.Recorder != nil {
			if err := spec.Recorder.WriteActionHTML(spec.BackupRoot, instanceRel, rec, spec.ExcludeActionHTMLTypes); err != nil {
				logger.Warn("failed to render action html", "error", err)
			}
		}
	}
	for _, src := range spec.Sources {
		sourceStats := &Statistics{}
		sr := SourceResult{Name: src.Name, Statistics: sourceStats}

		if err := checkSourceAvailable(src.View); err != nil {
			proceed, derr := resolveAction(spec.SourceUnavailableAction, spec.Decision, "source unavailable: "+src.Name, map[string]any{"source": src.Name, "error": err.Error()})
			if derr != nil {
				return nil, derr
			}
			if !proceed {
				sr.Skipped = true
				sr.SkipReason = "source unavailable"
				result.Sources = append(result.Sources, sr)
				if spec.SourceUnavailableAction == ActionAbort {
					return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.Name, err)
				}
				continue
			}
		}

		if spec.Cancel != nil && spec.Cancel() {
			result.Cancelled = true
			total.EndTime = clock.Now()
			persistRec()
			return result, ErrCancelled
		}

		targetView := NewSubView(spec.BackupRoot, instanceRel.Join(src.Name))
		rootExists, err := spec.BackupRoot.Exists(instanceRel.Join(src.Name))
		if err != nil {
			return nil, fmt.Errorf("checking target root: %w", err)
		}

		var compareView FilesystemView
		if haveCompare {
			compareView = NewSubView(spec.BackupRoot, compareInstance.Join(src.Name))
		} else if !spec.Versioned {
			compareView = targetView
			rootExists, _ = spec.BackupRoot.Exists(instanceRel.Join(src.Name))
		}

		excl := NewGlobExcludeMatcher(src.ExcludePatterns)
		scanner := NewScanner(src.View, excl, logger)
		sourceScan := scanner.Scan("")
		sourceStats.ScanErrors += int64(sourceScan.ScanErrors)

		var compareEntries []Entry
		if compareView != nil {
			compareScan := NewScanner(compareView, nil, logger).Scan("")
			compareEntries = compareScan.Entries
			sourceStats.ScanErrors += int64(compareScan.ScanErrors)
		}

		if spec.MaxScanningErrors >= 0 && sourceStats.ScanErrors > spec.MaxScanningErrors {
			logger.Error("scanning error budget exceeded", "source", src.Name)
			result.Sources = append(result.Sources, sr)
			total.Merge(sourceStats)
			continue
		}

		var chain *ComparatorChain
		if compareView != nil && len(sourceScan.Entries) > 0 {
			chain, err = NewComparatorChain(spec.CompareMethods, src.View, compareView)
			if err != nil {
				return nil, fmt.Errorf("building comparator chain for %s: %w", src.Name, err)
			}
		}

		diffEntries := Diff(sourceScan.Entries, compareEntries, chain)
		for _, d := range diffEntries {
			if d.ComparisonErr != nil {
				sourceStats.IncScanErrors()
			}
		}

		planner := NewPlanner(logger)
		actions, err := planner.Plan(diffEntries, PlanOptions{
			Mode:          spec.Mode,
			CopyEmptyDirs: spec.CopyEmptyDirs,
			RootExists:    rootExists,
			SourceView:    src.View,
			CompareView:   compareView,
		})
		if err != nil {
			return nil, fmt.Errorf("planning for %s: %w", src.Name, err)
		}

		sourceRec := SourceActionRecord{
			Name:       src.Name,
			SourceRoot: src.Root,
			Mode:       spec.Mode,
			CreatedAt:  started,
			Actions:    ToEntries(actions),
		}
		if haveCompare {
			sourceRec.CompareRoot = string(compareInstance)
		}
		rec.Sources = append(rec.Sources, sourceRec)

		if spec.ApplyActions {
			ok, expected, free, ferr := CheckFreeSpace(actions, targetView)
			if ferr == nil && !ok {
				proceed, derr := resolveAction(spec.TargetDriveFullAction, spec.Decision, "target drive full", map[string]any{
					"source": src.Name, "expected_bytes": expected, "free_bytes": free,
				})
				if derr != nil {
					return nil, derr
				}
				if !proceed {
					sr.SkipReason = "target drive full"
					result.Sources = append(result.Sources, sr)
					total.Merge(sourceStats)
					if spec.TargetDriveFullAction == ActionAbort {
						return nil, fmt.Errorf("%w: insufficient free space for %s", ErrTargetUnavailable, src.Name)
					}
					continue
				}
			}

			executor := &Executor{
				SourceView:      src.View,
				TargetView:      targetView,
				Stats:           sourceStats,
				Logger:          logger,
				MaxBackupErrors: spec.MaxBackupErrors,
				Progress:        progress,
				Cancel:          spec.Cancel,
			}
			if err := executor.Apply(actions); err != nil {
				if err == ErrCancelled {
					result.Cancelled = true
					total.Merge(sourceStats)
					total.EndTime = clock.Now()
					persistRec()
					return result, ErrCancelled
				}
				logger.Warn("executor stopped early", "source", src.Name, "error", err)
			}
		}

		anyCompleted = true
		total.Merge(sourceStats)
		result.Sources = append(result.Sources, sr)
	}

	persistRec()
	total.EndTime = clock.Now()
	scanOK := spec.MaxScanningErrors < 0 || total.ScanErrors <= spec.MaxScanningErrors
	backupOK := spec.MaxBackupErrors < 0 || total.BackupErrors <= spec.MaxBackupErrors
	result.Success = anyCompleted && scanOK && backupOK

	if spec.Recorder != nil {
		names := make([]string, 0, len(spec.Sources))
		for _, s := range spec.Sources {
			names = append(names, s.Name)
		}
		meta := InstanceMetadata{Name: string(instanceRel), Successful: result.Success, Started: started, Sources: names}
		if err := spec.Recorder.WriteMetadata(spec.BackupRoot, instanceRel, meta); err != nil {
			logger.Warn("failed to persist instance metadata", "error", err)
		}
	}

	return result, nil
}

func resolveInstanceDir(spec JobSpec, now time.Time) (RelPath, error) {
	if !spec.Versioned {
		return NewRelPath("")
	}
	pattern := spec.VersionName
	if pattern == "" {
		pattern = "%Y-%m-%d_%H%M%S"
	}
	base := FormatVersionName(pattern, now)
	name, err := DisambiguateName(base, func(candidate string) (bool, error) {
		rp, err := NewRelPath(candidate)
		if err != nil {
			return false, err
		}
		return spec.BackupRoot.Exists(rp)
	})
	if err != nil {
		return "", err
	}
	return NewRelPath(name)
}

func checkSourceAvailable(view FilesystemView) error {
	_, err := view.List("")
	return err
}
