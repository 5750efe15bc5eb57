package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ActionRecord is the durable, human-readable form of a plan: the action
// record file of spec.md §6. Field names are part of the on-disk contract
// and must stay stable across versions.
type ActionRecord struct {
	BackupRoot  string               `json:"backup_root"`
	InstanceDir string               `json:"instance_dir"`
	Sources     []SourceActionRecord `json:"sources"`
}

// SourceActionRecord is the per-source section of an ActionRecord.
type SourceActionRecord struct {
	Name        string          `json:"name"`
	SourceRoot  string          `json:"source_root"`
	CompareRoot string          `json:"compare_root,omitempty"`
	Mode        Mode            `json:"mode"`
	CreatedAt   time.Time       `json:"created_at"`
	Actions     []ActionEntry   `json:"actions"`
}

// ActionEntry is the on-disk shape of one Action. Kind is persisted
// explicitly rather than inferred from Type: ActionDelete covers both file
// and empty-directory removal, and only file deletions increment
// files_deleted, so collapsing that distinction on round-trip would change
// what an apply-actions replay deletes and counts.
type ActionEntry struct {
	Type          ActionType `json:"type"`
	RelPath       string     `json:"relpath"`
	Kind          Kind       `json:"kind"`
	AbsSource     string     `json:"abs_source,omitempty"`
	AbsLinkTarget string     `json:"abs_link_target,omitempty"`
	Size          int64      `json:"size,omitempty"`
	ModTime       *time.Time `json:"mtime,omitempty"`
}

// ToEntries converts an in-memory ActionList to its serializable form.
func ToEntries(actions ActionList) []ActionEntry {
	entries := make([]ActionEntry, 0, len(actions))
	for _, a := range actions {
		e := ActionEntry{
			Type:          a.Type,
			RelPath:       string(a.Path),
			Kind:          a.Kind,
			AbsSource:     a.AbsSource,
			AbsLinkTarget: a.AbsLinkTarget,
			Size:          a.Size,
		}
		if !a.ModTime.IsZero() {
			mt := a.ModTime
			e.ModTime = &mt
		}
		entries = append(entries, e)
	}
	return entries
}

// FromEntries is the inverse of ToEntries.
func FromEntries(entries []ActionEntry) ActionList {
	actions := make(ActionList, 0, len(entries))
	for _, e := range entries {
		a := Action{
			Type:          e.Type,
			Path:          RelPath(e.RelPath),
			Kind:          e.Kind,
			AbsSource:     e.AbsSource,
			AbsLinkTarget: e.AbsLinkTarget,
			Size:          e.Size,
		}
		if e.ModTime != nil {
			a.ModTime = *e.ModTime
		}
		actions = append(actions, a)
	}
	return actions
}

// WriteActionRecord persists rec atomically: write to a temp file in the
// same directory, then rename over the destination, following the
// write-then-rename discipline used throughout this codebase for any
// durable artifact.
func WriteActionRecord(path string, rec *ActionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling action record: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".actions-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp action record: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing action record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing action record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming action record into place: %w", err)
	}
	success = true
	return nil
}

// ReadActionRecord loads a previously persisted action record, for the
// apply-actions CLI path.
func ReadActionRecord(path string) (*ActionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading action record: %w", err)
	}
	var rec ActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing action record: %w", err)
	}
	return &rec, nil
}
