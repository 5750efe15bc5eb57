package backup_test

import (
	"testing"

	"frontdown/internal/backup"
	"frontdown/internal/fsview"
)

func TestPlanner_Plan(t *testing.T) {
	sourceView := fsview.NewMemoryView()
	compareView := fsview.NewMemoryView()

	baseOpts := func(mode backup.Mode) backup.PlanOptions {
		return backup.PlanOptions{Mode: mode, SourceView: sourceView, CompareView: compareView}
	}

	t.Run("root gets new_dir when it does not exist", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		actions, err := p.Plan(nil, baseOpts(backup.ModeSave))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 1 || actions[0].Type != backup.ActionNewDir || actions[0].Path != "" {
			t.Fatalf("actions = %+v, want a single root new_dir", actions)
		}
	})

	t.Run("root gets existing_dir when it already exists", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		opts := baseOpts(backup.ModeSave)
		opts.RootExists = true
		actions, err := p.Plan(nil, opts)
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if actions[0].Type != backup.ActionExistingDir {
			t.Fatalf("actions[0].Type = %v, want existing_dir", actions[0].Type)
		}
	})

	t.Run("source-only file becomes a copy", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		entries := []backup.DiffEntry{{RelPath: "a.txt", Source: &backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 10}}}
		actions, err := p.Plan(entries, baseOpts(backup.ModeSave))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 2 || actions[1].Type != backup.ActionCopy {
			t.Fatalf("actions = %+v, want [root, copy]", actions)
		}
	})

	t.Run("source-only empty directory is skipped unless CopyEmptyDirs", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		entries := []backup.DiffEntry{{RelPath: "empty", Source: &backup.Entry{RelPath: "empty", Kind: backup.KindDirectory, IsEmptyDir: true}}}

		actions, err := p.Plan(entries, baseOpts(backup.ModeSave))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 1 {
			t.Fatalf("actions = %+v, want just the root (empty dir dropped)", actions)
		}

		opts := baseOpts(backup.ModeSave)
		opts.CopyEmptyDirs = true
		actions, err = p.Plan(entries, opts)
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 2 || actions[1].Type != backup.ActionEmptyDir {
			t.Fatalf("actions = %+v, want [root, empty_dir] with CopyEmptyDirs", actions)
		}
	})

	t.Run("compare-only file is ignored in save mode", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		entries := []backup.DiffEntry{{RelPath: "gone.txt", Compare: &backup.Entry{RelPath: "gone.txt", Kind: backup.KindFile}}}
		actions, err := p.Plan(entries, baseOpts(backup.ModeSave))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 1 {
			t.Fatalf("actions = %+v, want just the root in save mode", actions)
		}
	})

	t.Run("compare-only file becomes a delete in mirror mode", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		entries := []backup.DiffEntry{{RelPath: "gone.txt", Compare: &backup.Entry{RelPath: "gone.txt", Kind: backup.KindFile}}}
		actions, err := p.Plan(entries, baseOpts(backup.ModeMirror))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 2 || actions[1].Type != backup.ActionDelete {
			t.Fatalf("actions = %+v, want [root, delete]", actions)
		}
	})

	t.Run("deletes are ordered deepest first", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		entries := []backup.DiffEntry{
			{RelPath: "a", Compare: &backup.Entry{RelPath: "a", Kind: backup.KindFile}},
			{RelPath: "a/b/c", Compare: &backup.Entry{RelPath: "a/b/c", Kind: backup.KindFile}},
			{RelPath: "a/b", Compare: &backup.Entry{RelPath: "a/b", Kind: backup.KindFile}},
		}
		actions, err := p.Plan(entries, baseOpts(backup.ModeMirror))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		deletes := actions[1:]
		if len(deletes) != 3 {
			t.Fatalf("got %d deletes, want 3", len(deletes))
		}
		if deletes[0].Path != "a/b/c" || deletes[2].Path != "a" {
			t.Errorf("delete order = %v, want deepest path first", deletes)
		}
	})

	t.Run("unchanged file is skipped in save and mirror", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		s := backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 1}
		c := backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 1}
		entries := []backup.DiffEntry{{RelPath: "a.txt", Source: &s, Compare: &c, Verdict: backup.VerdictSame}}
		actions, err := p.Plan(entries, baseOpts(backup.ModeSave))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 1 {
			t.Fatalf("actions = %+v, want just the root", actions)
		}
	})

	t.Run("unchanged file becomes a hardlink in hardlink mode", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		s := backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 1}
		c := backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 1}
		entries := []backup.DiffEntry{{RelPath: "a.txt", Source: &s, Compare: &c, Verdict: backup.VerdictSame}}
		actions, err := p.Plan(entries, baseOpts(backup.ModeHardlink))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 2 || actions[1].Type != backup.ActionHardlink {
			t.Fatalf("actions = %+v, want [root, hardlink]", actions)
		}
	})

	t.Run("changed file is still copied in hardlink mode", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		s := backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 1}
		c := backup.Entry{RelPath: "a.txt", Kind: backup.KindFile, Size: 2}
		entries := []backup.DiffEntry{{RelPath: "a.txt", Source: &s, Compare: &c, Verdict: backup.VerdictDifferent}}
		actions, err := p.Plan(entries, baseOpts(backup.ModeHardlink))
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(actions) != 2 || actions[1].Type != backup.ActionCopy {
			t.Fatalf("actions = %+v, want [root, copy]", actions)
		}
	})

	t.Run("rejects an invalid mode", func(t *testing.T) {
		p := backup.NewPlanner(nil)
		opts := baseOpts(backup.Mode("bogus"))
		if _, err := p.Plan(nil, opts); err != backup.ErrConfiguration {
			t.Errorf("error = %v, want %v", err, backup.ErrConfiguration)
		}
	})
}

func TestCheckFreeSpace(t *testing.T) {
	view := fsview.NewMemoryView() // reports 1<<40 bytes free

	t.Run("plan fits", func(t *testing.T) {
		actions := backup.ActionList{{Type: backup.ActionCopy, Size: 100}}
		ok, expected, _, err := backup.CheckFreeSpace(actions, view)
		if err != nil {
			t.Fatalf("CheckFreeSpace() error = %v", err)
		}
		if !ok || expected != 100 {
			t.Errorf("ok = %v, expected = %d, want true, 100", ok, expected)
		}
	})

	t.Run("plan exceeds free space", func(t *testing.T) {
		actions := backup.ActionList{{Type: backup.ActionCopy, Size: 1 << 50}}
		ok, _, _, err := backup.CheckFreeSpace(actions, view)
		if err != nil {
			t.Fatalf("CheckFreeSpace() error = %v", err)
		}
		if ok {
			t.Error("ok = true, want false when the plan exceeds free space")
		}
	})
}
