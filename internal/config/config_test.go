package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:     "test-host-abc",
		LogDir:     "/home/user/.local/share/frontdown/log",
		BackupRoot: "/backup/target",
		Sources: []SourceConfig{
			{Name: "documents", Type: "local", Dir: "/home/user/documents", ExcludePaths: []string{"*.tmp", "cache/"}},
		},
		Mode:                  "mirror",
		Versioned:             true,
		VersionName:           "%Y-%m-%d_%H%M%S",
		CompareWithLastBackup: true,
		CompareMethod:         []string{"moddate", "size"},
		MaxScanningErrors:     10,
		MaxBackupErrors:       5,
		TargetDriveFullAction: "prompt",
		SourceUnavailableAction: "abort",
		Database:              DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/frontdown/db"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.BackupRoot != original.BackupRoot {
		t.Errorf("BackupRoot = %q, want %q", got.BackupRoot, original.BackupRoot)
	}
	if len(got.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(got.Sources))
	}
	if got.Sources[0].Name != "documents" {
		t.Errorf("Sources[0].Name = %q, want %q", got.Sources[0].Name, "documents")
	}
	if len(got.Sources[0].ExcludePaths) != 2 {
		t.Fatalf("len(Sources[0].ExcludePaths) = %d, want 2", len(got.Sources[0].ExcludePaths))
	}
	if got.Mode != "mirror" {
		t.Errorf("Mode = %q, want %q", got.Mode, "mirror")
	}
	if !got.Versioned {
		t.Error("Versioned = false, want true")
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/frontdown-backups")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.BackupRoot != "/data/frontdown-backups" {
		t.Errorf("BackupRoot = %q, want %q", cfg.BackupRoot, "/data/frontdown-backups")
	}
	if cfg.Mode != "save" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "save")
	}
	if cfg.MaxScanningErrors != -1 || cfg.MaxBackupErrors != -1 {
		t.Errorf("expected disabled error budgets by default, got scanning=%d backup=%d", cfg.MaxScanningErrors, cfg.MaxBackupErrors)
	}
}

func TestManager_Read_RejectsUnknownKeys(t *testing.T) {
	m := &Manager{}
	_, err := m.Read(strings.NewReader("host_id = \"h\"\nnot_a_real_field = true\n"))
	if err == nil {
		t.Fatal("Read() expected error for unrecognized key")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := NewConfig("h", "/backup")
	valid.Sources = []SourceConfig{{Name: "docs", Type: "local", Dir: "/home/docs"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	noSources := NewConfig("h", "/backup")
	if err := noSources.Validate(); err == nil {
		t.Fatal("Validate() expected error for no sources")
	}

	badMode := NewConfig("h", "/backup")
	badMode.Sources = valid.Sources
	badMode.Mode = "clone"
	if err := badMode.Validate(); err == nil {
		t.Fatal("Validate() expected error for unrecognized mode")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "frontdown.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "frontdown.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "frontdown.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/frontdown.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
