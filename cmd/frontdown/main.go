package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"frontdown/internal/app"
	"frontdown/internal/backup"
	"frontdown/internal/config"
	"frontdown/internal/fsview"
	"frontdown/internal/history"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a run's terminal error to a process exit status:
// 0 success, 1 partial failure, 2 configuration/abort failure, 130 cancelled.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, backup.ErrCancelled):
		return 130
	case errors.Is(err, backup.ErrConfiguration), errors.Is(err, backup.ErrSourceUnavailable), errors.Is(err, backup.ErrTargetUnavailable):
		return 2
	default:
		return 1
	}
}

var rootCmd = &cobra.Command{
	Use:   "frontdown",
	Short: "Versioned, hardlink-capable file-tree backup engine",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		hostID, _ := os.Hostname()
		if hostID == "" {
			hostID = "frontdown-host"
		}

		cfg := config.NewConfig(hostID, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Backup root: %s\n", cfg.BackupRoot)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Mode:        %s\n", cfg.Mode)
		fmt.Printf("Backup root: %s\n", cfg.BackupRoot)
		fmt.Printf("Versioned:   %v\n", cfg.Versioned)
		fmt.Printf("Sources:\n")
		for _, sc := range cfg.Sources {
			typ := sc.Type
			if typ == "" {
				typ = "local"
			}
			fmt.Printf("  %-15s %-6s %s\n", sc.Name, typ, sc.Dir)
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup CONFIG",
	Short: "Run a backup job from a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := args[0]

		cfg, err := config.ReadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		a, err := app.NewBackupApp(cfg, configPath)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := a.RunBackup(ctx)
		if result != nil {
			printSummary(result)
		}
		if err != nil {
			return err
		}
		if result != nil && !result.Success {
			return backup.ErrBudgetExceeded
		}
		return nil
	},
}

func printSummary(result *backup.JobResult) {
	fmt.Printf("Instance: %s\n", result.InstanceDir)
	if result.Cancelled {
		fmt.Println("Cancelled.")
	}
	for _, sr := range result.Sources {
		if sr.Skipped {
			fmt.Printf("  %-15s skipped (%s)\n", sr.Name, sr.SkipReason)
			continue
		}
		s := sr.Statistics.Snapshot()
		fmt.Printf("  %-15s copied=%d hardlinked=%d deleted=%d scan_errors=%d backup_errors=%d\n",
			sr.Name, s.FilesCopied, s.FilesHardlinked, s.FilesDeleted, s.ScanErrors, s.BackupErrors)
	}
	if result.Success {
		fmt.Println("OK")
	} else {
		fmt.Println("FAILED")
	}
}

var applyActionsCmd = &cobra.Command{
	Use:   "apply-actions INSTANCE_DIR",
	Short: "Replay a previously saved action record without rescanning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceDir := args[0]

		recordPath := filepath.Join(instanceDir, "actions.json")
		rec, err := backup.ReadActionRecord(recordPath)
		if err != nil {
			return fmt.Errorf("loading action record: %w", err)
		}

		for _, src := range rec.Sources {
			fmt.Printf("applying %s (%d actions)\n", src.Name, len(src.Actions))

			sourceView, err := localView(src.SourceRoot)
			if err != nil {
				return fmt.Errorf("opening source %s: %w", src.Name, err)
			}
			targetDir := filepath.Join(instanceDir, src.Name)
			targetView, err := localView(targetDir)
			if err != nil {
				return fmt.Errorf("opening target for %s: %w", src.Name, err)
			}

			stats := &backup.Statistics{}
			executor := &backup.Executor{
				SourceView: sourceView,
				TargetView: targetView,
				Stats:      stats,
				Logger:     backup.NopLogger{},
			}
			if err := executor.Apply(backup.FromEntries(src.Actions)); err != nil {
				return fmt.Errorf("applying actions for %s: %w", src.Name, err)
			}
			s := stats.Snapshot()
			fmt.Printf("  copied=%d hardlinked=%d deleted=%d errors=%d\n",
				s.FilesCopied, s.FilesHardlinked, s.FilesDeleted, s.BackupErrors)
		}
		return nil
	},
}

// localView opens a local-disk FilesystemView, creating the directory if
// it does not already exist (apply-actions may target a fresh instance
// directory that a prior, partially failed run never created).
func localView(dir string) (backup.FilesystemView, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	return fsview.NewLocalView(dir)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent backup runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		dataDir := cfg.Database.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		store, err := history.Open(filepath.Join(dataDir, "history.db"))
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("reading run history: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No backup runs recorded.")
			return nil
		}

		for _, r := range runs {
			status := "running"
			if r.Successful.Valid {
				if r.Successful.Bool {
					status = "ok"
				} else {
					status = "failed"
				}
			}
			fmt.Printf("%-36s  %-8s  %s  %-8s  copied=%d bytes=%d\n",
				r.ID, r.Mode, r.StartedAt.Format("2006-01-02 15:04:05"), status,
				r.FilesCopied, r.BytesCopied)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(applyActionsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
}
