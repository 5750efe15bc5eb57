package fsview_test

import (
	"io"
	"testing"
	"time"

	"frontdown/internal/backup"
	"frontdown/internal/fsview"
)

func write(t *testing.T, v backup.FilesystemView, relpath string, content string) {
	t.Helper()
	// OpenWrite does not create parent directories, so create any missing
	// ancestors first.
	var parents []backup.RelPath
	for p, _ := backup.RelPath(relpath).Parent(); p != ""; p, _ = p.Parent() {
		parents = append(parents, p)
	}
	for i := len(parents) - 1; i >= 0; i-- {
		if ok, _ := v.Exists(parents[i]); !ok {
			if err := v.Mkdir(parents[i]); err != nil {
				t.Fatalf("Mkdir(%s) error = %v", parents[i], err)
			}
		}
	}
	w, err := v.OpenWrite(backup.RelPath(relpath))
	if err != nil {
		t.Fatalf("OpenWrite(%s) error = %v", relpath, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("Write(%s) error = %v", relpath, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close(%s) error = %v", relpath, err)
	}
}

func TestMemoryView_WriteReadRoundTrip(t *testing.T) {
	v := fsview.NewMemoryView()
	write(t, v, "a/b.txt", "payload")

	r, err := v.OpenRead("a/b.txt")
	if err != nil {
		t.Fatalf("OpenRead() error = %v", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q, want %q", data, "payload")
	}
}

func TestMemoryView_List(t *testing.T) {
	v := fsview.NewMemoryView()
	write(t, v, "dir/a.txt", "a")
	write(t, v, "dir/b.txt", "bb")

	entries, err := v.List("dir")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	sizes := map[string]int64{}
	for _, e := range entries {
		sizes[e.Name] = e.Size
	}
	if sizes["a.txt"] != 1 || sizes["b.txt"] != 2 {
		t.Errorf("sizes = %v, want a.txt=1 b.txt=2", sizes)
	}
}

func TestMemoryView_Mkdir_IsIdempotent(t *testing.T) {
	v := fsview.NewMemoryView()
	if err := v.Mkdir("a"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := v.Mkdir("a"); err != nil {
		t.Fatalf("second Mkdir() error = %v, want nil (idempotent)", err)
	}
}

func TestMemoryView_Exists(t *testing.T) {
	v := fsview.NewMemoryView()
	write(t, v, "a.txt", "x")

	if ok, _ := v.Exists("a.txt"); !ok {
		t.Error("Exists(a.txt) = false, want true")
	}
	if ok, _ := v.Exists("missing.txt"); ok {
		t.Error("Exists(missing.txt) = true, want false")
	}
}

func TestMemoryView_DeleteRejectsNonEmptyDirectory(t *testing.T) {
	v := fsview.NewMemoryView()
	write(t, v, "dir/a.txt", "x")

	if err := v.Delete("dir", backup.KindDirectory); err == nil {
		t.Error("Delete() on a non-empty directory should fail")
	}
}

func TestMemoryView_Hardlink_SharesContent(t *testing.T) {
	v := fsview.NewMemoryView()
	write(t, v, "base/a.txt", "shared")
	abs, _ := v.AbsPath("base/a.txt")

	if err := v.Hardlink(abs, "linked.txt"); err != nil {
		t.Fatalf("Hardlink() error = %v", err)
	}

	r, err := v.OpenRead("linked.txt")
	if err != nil {
		t.Fatalf("OpenRead(linked.txt) error = %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "shared" {
		t.Errorf("data = %q, want %q", data, "shared")
	}
}

func TestMemoryView_SetModTime(t *testing.T) {
	v := fsview.NewMemoryView()
	write(t, v, "a.txt", "x")

	mt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := v.SetModTime("a.txt", mt); err != nil {
		t.Fatalf("SetModTime() error = %v", err)
	}
	info, err := v.Stat("a.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime.Equal(mt) {
		t.Errorf("ModTime = %v, want %v", info.ModTime, mt)
	}
}

func TestMemoryView_ListMissingDirectory(t *testing.T) {
	v := fsview.NewMemoryView()
	if _, err := v.List("nope"); err != backup.ErrNotFound {
		t.Errorf("error = %v, want %v", err, backup.ErrNotFound)
	}
}
