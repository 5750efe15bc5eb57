package history

import (
	"context"
	"testing"
	"time"

	"frontdown/internal/backup"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.RecordStart(ctx, "run-1", "/etc/frontdown/job.toml", "mirror", started); err != nil {
		t.Fatalf("RecordStart() error = %v", err)
	}

	stats := &backup.Statistics{}
	stats.AddBytesCopied(2048)
	stats.IncFilesCopied()

	result := &backup.JobResult{
		InstanceDir: "/backup/2026-01-02_030405",
		Success:     true,
		Statistics:  stats,
		Sources: []backup.SourceResult{
			{Name: "documents"},
		},
	}

	if err := s.RecordFinish(ctx, "run-1", started.Add(time.Minute), result); err != nil {
		t.Fatalf("RecordFinish() error = %v", err)
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != "run-1" {
		t.Errorf("ID = %q, want %q", got.ID, "run-1")
	}
	if !got.Successful.Valid || !got.Successful.Bool {
		t.Error("Successful should be true")
	}
	if got.BytesCopied != 2048 {
		t.Errorf("BytesCopied = %d, want 2048", got.BytesCopied)
	}
	if got.FilesCopied != 1 {
		t.Errorf("FilesCopied = %d, want 1", got.FilesCopied)
	}
}

func TestStore_Recent_OrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-old", "run-new"} {
		started := base.Add(time.Duration(i) * time.Hour)
		if err := s.RecordStart(ctx, id, "job.toml", "save", started); err != nil {
			t.Fatalf("RecordStart(%s) error = %v", id, err)
		}
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-new" {
		t.Errorf("runs[0].ID = %q, want %q", runs[0].ID, "run-new")
	}
}
