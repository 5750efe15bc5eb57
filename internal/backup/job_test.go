package backup_test

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"frontdown/internal/backup"
	"frontdown/internal/fsview"
	"frontdown/internal/report"
)

func TestBackupJob_Run_SaveMode(t *testing.T) {
	source := fsview.NewMemoryView()
	writeFile(t, source, "a.txt", []byte("hello"))
	writeFile(t, source, "sub/b.txt", []byte("world"))

	root := fsview.NewMemoryView()

	spec := backup.JobSpec{
		Sources:           []backup.SourceSpec{{Name: "docs", View: source}},
		BackupRoot:        root,
		Mode:              backup.ModeSave,
		SaveActionFile:    true,
		ApplyActions:      true,
		CompareMethods:    []backup.CompareMethod{backup.CompareSize},
		MaxScanningErrors: -1,
		MaxBackupErrors:   -1,
		Recorder:          report.Recorder{},
		Clock:             backup.SystemClock{},
		IDGen:             backup.UUIDRunIDGenerator{},
		Logger:            backup.NopLogger{},
	}

	result, err := backup.BackupJob{}.Run(spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("result.Success = false, want true: %+v", result.Statistics.Snapshot())
	}

	if exists, _ := root.Exists("docs/a.txt"); !exists {
		t.Error("docs/a.txt was not copied into the backup root")
	}
	if exists, _ := root.Exists("docs/sub/b.txt"); !exists {
		t.Error("docs/sub/b.txt was not copied into the backup root")
	}
	if exists, _ := root.Exists("actions.json"); !exists {
		t.Error("actions.json was not written")
	}
	if exists, _ := root.Exists("metadata.json"); !exists {
		t.Error("metadata.json was not written")
	}
}

func TestBackupJob_Run_ActionRecordCoversEverySourceAndRoot(t *testing.T) {
	docs := fsview.NewMemoryView()
	writeFile(t, docs, "a.txt", []byte("hello"))
	photos := fsview.NewMemoryView()
	writeFile(t, photos, "b.jpg", []byte("world"))

	root := fsview.NewMemoryView()

	spec := backup.JobSpec{
		Sources: []backup.SourceSpec{
			{Name: "docs", View: docs, Root: "/home/user/docs"},
			{Name: "photos", View: photos, Root: "/home/user/photos"},
		},
		BackupRoot:        root,
		Mode:              backup.ModeSave,
		SaveActionFile:    true,
		ApplyActions:      true,
		CompareMethods:    []backup.CompareMethod{backup.CompareSize},
		MaxScanningErrors: -1,
		MaxBackupErrors:   -1,
		Recorder:          report.Recorder{},
		Clock:             backup.SystemClock{},
		IDGen:             backup.UUIDRunIDGenerator{},
		Logger:            backup.NopLogger{},
	}

	result, err := backup.BackupJob{}.Run(spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("result.Success = false, want true")
	}

	r, err := root.OpenRead(backup.RelPath("actions.json"))
	if err != nil {
		t.Fatalf("OpenRead(actions.json) error = %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	var rec backup.ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(rec.Sources) != 2 {
		t.Fatalf("rec.Sources = %+v, want an entry for both docs and photos", rec.Sources)
	}
	roots := map[string]string{}
	for _, s := range rec.Sources {
		roots[s.Name] = s.SourceRoot
	}
	if roots["docs"] != "/home/user/docs" || roots["photos"] != "/home/user/photos" {
		t.Errorf("source roots = %+v, want docs and photos roots preserved", roots)
	}
}

func TestBackupJob_Run_MirrorModeDeletesStaleFiles(t *testing.T) {
	source := fsview.NewMemoryView()
	writeFile(t, source, "keep.txt", []byte("keep"))

	root := fsview.NewMemoryView()
	writeFile(t, root, "docs/keep.txt", []byte("keep"))
	writeFile(t, root, "docs/stale.txt", []byte("stale"))

	spec := backup.JobSpec{
		Sources:               []backup.SourceSpec{{Name: "docs", View: source}},
		BackupRoot:            root,
		Mode:                  backup.ModeMirror,
		ApplyActions:          true,
		CompareWithLastBackup: false,
		CompareMethods:        []backup.CompareMethod{backup.CompareSize},
		MaxScanningErrors:     -1,
		MaxBackupErrors:       -1,
		Clock:                 backup.SystemClock{},
		IDGen:                 backup.UUIDRunIDGenerator{},
		Logger:                backup.NopLogger{},
	}

	result, err := backup.BackupJob{}.Run(spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("result.Success = false, want true")
	}
	if exists, _ := root.Exists("docs/stale.txt"); exists {
		t.Error("docs/stale.txt should have been deleted in mirror mode")
	}
	if exists, _ := root.Exists("docs/keep.txt"); !exists {
		t.Error("docs/keep.txt should still be present")
	}
}

func TestBackupJob_Run_VersionedHardlinkReusesPriorInstance(t *testing.T) {
	source := fsview.NewMemoryView()
	writeFile(t, source, "a.txt", []byte("unchanged"))

	root := fsview.NewMemoryView()
	recorder := report.Recorder{}

	clock := &backup.FixedClock{At: time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)}

	firstSpec := backup.JobSpec{
		Sources:        []backup.SourceSpec{{Name: "docs", View: source}},
		BackupRoot:     root,
		Mode:           backup.ModeSave,
		Versioned:      true,
		VersionName:    "%Y-%m-%d_%H%M%S",
		ApplyActions:   true,
		CompareMethods: []backup.CompareMethod{backup.CompareSize},
		Recorder:       recorder,
		Clock:          clock,
		IDGen:          backup.UUIDRunIDGenerator{},
		Logger:         backup.NopLogger{},
	}
	first, err := backup.BackupJob{}.Run(firstSpec)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if !first.Success {
		t.Fatal("first run did not succeed")
	}

	clock.Advance(time.Hour)

	secondSpec := firstSpec
	secondSpec.Mode = backup.ModeHardlink
	secondSpec.CompareRootFinder = recorder
	second, err := backup.BackupJob{}.Run(secondSpec)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !second.Success {
		t.Fatal("second run did not succeed")
	}
	if second.InstanceDir == first.InstanceDir {
		t.Fatal("second run reused the first run's instance directory")
	}

	snap := second.Statistics.Snapshot()
	if snap.FilesHardlinked != 1 {
		t.Errorf("FilesHardlinked = %d, want 1 (unchanged file should be hardlinked)", snap.FilesHardlinked)
	}
}

func TestBackupJob_Run_RejectsInvalidMode(t *testing.T) {
	spec := backup.JobSpec{Mode: backup.Mode("nonsense")}
	if _, err := (backup.BackupJob{}).Run(spec); err != backup.ErrConfiguration {
		t.Errorf("error = %v, want %v", err, backup.ErrConfiguration)
	}
}

func TestBackupJob_Run_StopsWhenCancelled(t *testing.T) {
	source := fsview.NewMemoryView()
	writeFile(t, source, "a.txt", []byte("x"))
	root := fsview.NewMemoryView()

	spec := backup.JobSpec{
		Sources:        []backup.SourceSpec{{Name: "docs", View: source}},
		BackupRoot:     root,
		Mode:           backup.ModeSave,
		CompareMethods: []backup.CompareMethod{backup.CompareSize},
		Clock:          backup.SystemClock{},
		IDGen:          backup.UUIDRunIDGenerator{},
		Logger:         backup.NopLogger{},
		Cancel:         func() bool { return true },
	}

	result, err := backup.BackupJob{}.Run(spec)
	if err != backup.ErrCancelled {
		t.Fatalf("error = %v, want %v", err, backup.ErrCancelled)
	}
	if result == nil || !result.Cancelled {
		t.Errorf("result = %+v, want Cancelled=true", result)
	}
}
