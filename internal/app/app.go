// Package app wires config, filesystem views, run history, and logging
// into a runnable backup.BackupJob, the way this codebase's BTApp wires
// its own service layer from config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"frontdown/internal/backup"
	fdconfig "frontdown/internal/config"
	"frontdown/internal/fsview"
	"frontdown/internal/history"
	"frontdown/internal/report"
)

// BackupApp is the application layer between the CLI and the backup
// package: it constructs FilesystemViews from a Config, runs one job, and
// records the outcome to run history.
type BackupApp struct {
	cfg        *fdconfig.Config
	configPath string
	hist       *history.Store
	logger     *slog.Logger
	logFile    *os.File
}

// NewBackupApp builds a fully wired BackupApp from cfg, which was read
// from configPath (recorded in run history for later reference). The
// caller must call Close when done.
func NewBackupApp(cfg *fdconfig.Config, configPath string) (*BackupApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	hist, err := openHistory(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	return &BackupApp{cfg: cfg, configPath: configPath, hist: hist}, nil
}

func openHistory(dbCfg fdconfig.DatabaseConfig) (*history.Store, error) {
	if dbCfg.Type == "memory" {
		return history.Open(":memory:")
	}
	dataDir := dbCfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return history.Open(filepath.Join(dataDir, "history.db"))
}

// RunBackup executes one backup job per the wired configuration.
func (a *BackupApp) RunBackup(ctx context.Context) (*backup.JobResult, error) {
	idGen := backup.UUIDRunIDGenerator{}
	runID := idGen.NewRunID()

	logger, logFile, err := newLogger(a.cfg.LogDir, runID, a.cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger
	a.logFile = logFile

	backupLogger := &slogLogger{l: logger}

	sources := make([]backup.SourceSpec, 0, len(a.cfg.Sources))
	for _, sc := range a.cfg.Sources {
		view, err := buildSourceView(sc)
		if err != nil {
			return nil, fmt.Errorf("building source view for %s: %w", sc.Name, err)
		}
		sources = append(sources, backup.SourceSpec{
			Name:            sc.Name,
			View:            view,
			Root:            sourceRootString(sc),
			ExcludePatterns: sc.ExcludePaths,
		})
	}

	rootView, err := buildBackupRootView(a.cfg.BackupRoot)
	if err != nil {
		return nil, fmt.Errorf("building backup root view: %w", err)
	}

	compareMethods := make([]backup.CompareMethod, 0, len(a.cfg.CompareMethod))
	for _, m := range a.cfg.CompareMethod {
		compareMethods = append(compareMethods, backup.CompareMethod(m))
	}

	excludeTypes := make([]backup.ActionType, 0, len(a.cfg.ExcludeActionHTMLTypes))
	for _, t := range a.cfg.ExcludeActionHTMLTypes {
		excludeTypes = append(excludeTypes, backup.ActionType(t))
	}

	recorder := report.Recorder{}
	started := time.Now()

	run := NewRunState(a.configPath, a.cfg.Mode)
	if err := a.hist.RecordStart(ctx, runID, a.configPath, a.cfg.Mode, started); err != nil {
		backupLogger.Warn("run history: failed to record start", "error", err)
	} else {
		run.ID = runID
	}

	spec := backup.JobSpec{
		Sources:    sources,
		BackupRoot: rootView,

		Mode:                  backup.Mode(a.cfg.Mode),
		Versioned:             a.cfg.Versioned,
		VersionName:           a.cfg.VersionName,
		CompareWithLastBackup: a.cfg.CompareWithLastBackup,
		CopyEmptyDirs:         a.cfg.CopyEmptyDirs,

		SaveActionFile:         a.cfg.SaveActionFile,
		SaveActionHTML:         a.cfg.SaveActionHTML,
		ExcludeActionHTMLTypes: excludeTypes,
		ApplyActions:           a.cfg.ApplyActions,

		CompareMethods: compareMethods,

		MaxScanningErrors: int64(a.cfg.MaxScanningErrors),
		MaxBackupErrors:   int64(a.cfg.MaxBackupErrors),

		TargetDriveFullAction:   backup.DriveFullAction(a.cfg.TargetDriveFullAction),
		SourceUnavailableAction: backup.DriveFullAction(a.cfg.SourceUnavailableAction),

		CompareRootFinder: recorder,
		Recorder:          recorder,
		Decision:          NewInteractiveDecision(),

		Clock:  backup.SystemClock{},
		IDGen:  idGen,
		Logger: backupLogger,
		Cancel: func() bool { return ctx.Err() != nil },
	}

	result, runErr := backup.BackupJob{}.Run(spec)
	run.Status = statusFor(result, runErr)

	finished := time.Now()
	if result != nil && run.Started() {
		if err := a.hist.RecordFinish(ctx, run.ID, finished, result); err != nil {
			backupLogger.Warn("run history: failed to record finish", "error", err, "status", run.Status)
		}
	}
	backupLogger.Info("run finished", "run_id", run.ID, "status", run.Status)

	return result, runErr
}

// Close releases the history database connection and the run's log file.
func (a *BackupApp) Close() error {
	var firstErr error
	if a.hist != nil {
		if err := a.hist.Close(); err != nil {
			firstErr = fmt.Errorf("closing run history: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// buildSourceView constructs the FilesystemView named by sc.Type.
func buildSourceView(sc fdconfig.SourceConfig) (backup.FilesystemView, error) {
	switch sc.Type {
	case "", "local":
		return fsview.NewLocalView(sc.Dir)
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(sc.S3Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(cfg)
		return fsview.NewS3View(client, sc.S3Bucket, sc.S3Prefix), nil
	case "ftp":
		return fsview.NewFTPView(sc.FTPHost, sc.FTPPort, sc.FTPUser, sc.FTPPass, sc.FTPRoot)
	case "wpd":
		return fsview.NewWPDView(sc.WPDDeviceID)
	default:
		return nil, fmt.Errorf("unrecognized source type %q", sc.Type)
	}
}

// sourceRootString renders sc's root as the descriptive string persisted
// into an action record's source_root field, so apply-actions can later
// reopen the same tree without re-deriving it from config.
func sourceRootString(sc fdconfig.SourceConfig) string {
	switch sc.Type {
	case "", "local":
		return sc.Dir
	case "s3":
		return fmt.Sprintf("s3://%s/%s", sc.S3Bucket, sc.S3Prefix)
	case "ftp":
		return fmt.Sprintf("ftp://%s:%d/%s", sc.FTPHost, sc.FTPPort, sc.FTPRoot)
	case "wpd":
		return "wpd://" + sc.WPDDeviceID
	default:
		return sc.Dir
	}
}

// buildBackupRootView constructs the FilesystemView for the backup root.
// An "s3://bucket/prefix" spelling routes to S3; anything else is a local
// path.
func buildBackupRootView(root string) (backup.FilesystemView, error) {
	if strings.HasPrefix(root, "s3://") {
		rest := strings.TrimPrefix(root, "s3://")
		parts := strings.SplitN(rest, "/", 2)
		bucket := parts[0]
		prefix := ""
		if len(parts) == 2 {
			prefix = parts[1]
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(cfg)
		return fsview.NewS3View(client, bucket, prefix), nil
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating backup root: %w", err)
	}
	return fsview.NewLocalView(root)
}
