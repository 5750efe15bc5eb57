// Package config decodes and encodes the TOML job configuration consumed
// by cmd/frontdown, following the same BurntSushi/toml-based Manager shape
// this codebase uses for its other configuration surfaces.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is one backup job's full configuration, matching the field table
// in the job's external interface: one or more sources, a backup root, a
// mode, and the policy knobs governing versioning, comparison, reporting,
// and error budgets.
type Config struct {
	HostID  string `toml:"host_id"`
	LogDir  string `toml:"log_dir"`
	LogLevel string `toml:"log_level"` // "debug", "info", "warn", "error"

	Sources    []SourceConfig `toml:"sources"`
	BackupRoot string         `toml:"backup_root_dir"`

	Mode        string `toml:"mode"`         // "save", "mirror", "hardlink"
	Versioned   bool   `toml:"versioned"`
	VersionName string `toml:"version_name"` // strftime pattern, e.g. "%Y-%m-%d_%H%M%S"

	CompareWithLastBackup bool     `toml:"compare_with_last_backup"`
	CopyEmptyDirs         bool     `toml:"copy_empty_dirs"`
	CompareMethod         []string `toml:"compare_method"` // ordered subset of {moddate,size,bytes,hash}

	SaveActionFile bool `toml:"save_actionfile"`
	OpenActionFile bool `toml:"open_actionfile"`
	ApplyActions   bool `toml:"apply_actions"`

	SaveActionHTML         bool     `toml:"save_actionhtml"`
	OpenActionHTML         bool     `toml:"open_actionhtml"`
	ExcludeActionHTMLTypes []string `toml:"exclude_actionhtml_actions"`

	MaxScanningErrors int `toml:"max_scanning_errors"` // -1 disables the budget
	MaxBackupErrors   int `toml:"max_backup_errors"`

	TargetDriveFullAction   string `toml:"target_drive_full_action"`   // proceed, prompt, abort
	SourceUnavailableAction string `toml:"source_unavailable_action"`

	Database DatabaseConfig `toml:"database"`
}

// SourceConfig is one entry in sources[]: a name, a root directory
// (optionally on a non-local view), and paths excluded from that source.
// This uses the tagged-union pattern this codebase applies to every
// backend-selectable config block: Type selects which of the
// backend-specific fields apply.
type SourceConfig struct {
	Name         string   `toml:"name"`
	Type         string   `toml:"type"` // "local" (default), "s3", "ftp", "wpd"
	Dir          string   `toml:"dir"`
	ExcludePaths []string `toml:"exclude_paths"`

	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	FTPHost string `toml:"ftp_host,omitempty"`
	FTPPort int    `toml:"ftp_port,omitempty"`
	FTPUser string `toml:"ftp_user,omitempty"`
	FTPPass string `toml:"ftp_pass,omitempty"`
	FTPRoot string `toml:"ftp_root,omitempty"`

	WPDDeviceID string `toml:"wpd_device_id,omitempty"`
}

// DatabaseConfig selects the run-history backend. This uses the same
// tagged-union pattern as SourceConfig: Type determines which other field
// is relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"` // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"`
}

// NewConfig returns a Config with the defaults spec.md's field table
// implies where it is silent: proceed-on-full-disk over prompting (a
// non-interactive run should never block indefinitely), no error budget
// unless the caller sets one, and a whole-source moddate+size comparator
// chain.
func NewConfig(hostID, backupRoot string) *Config {
	return &Config{
		HostID:                  hostID,
		BackupRoot:              backupRoot,
		Mode:                    "save",
		VersionName:             "%Y-%m-%d_%H%M%S",
		CompareMethod:           []string{"moddate", "size"},
		MaxScanningErrors:       -1,
		MaxBackupErrors:         -1,
		TargetDriveFullAction:   "proceed",
		SourceUnavailableAction: "abort",
		LogLevel:                "info",
		Database:                DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(backupRoot, ".frontdown", "history")},
	}
}

// Validate checks that Config's enum-like fields hold a recognized value
// and that at least one source is configured, before the job wiring
// layer builds FilesystemViews from it.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	if err := validateOneOf("mode", c.Mode, "save", "mirror", "hardlink"); err != nil {
		return err
	}
	if err := validateOneOf("target_drive_full_action", c.TargetDriveFullAction, "proceed", "prompt", "abort"); err != nil {
		return err
	}
	if err := validateOneOf("source_unavailable_action", c.SourceUnavailableAction, "proceed", "prompt", "abort"); err != nil {
		return err
	}
	for _, m := range c.CompareMethod {
		if err := validateOneOf("compare_method", m, "moddate", "size", "bytes", "hash"); err != nil {
			return err
		}
	}
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("config: source with empty name")
		}
		if err := validateOneOf("sources[].type", s.Type, "", "local", "s3", "ftp", "wpd"); err != nil {
			return err
		}
	}
	return nil
}

func validateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("config: %s = %q is not one of %v", field, value, allowed)
}

// Manager reads and writes Config, rejecting unrecognized TOML keys so a
// typo in a job file fails loudly instead of silently taking a default.
type Manager struct{}

// Read decodes a Config from r, returning an error naming any key with no
// matching field.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unrecognized config keys: %v", undecoded)
	}
	return &cfg, nil
}

// Write encodes cfg to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the file at path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
