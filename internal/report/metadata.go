// Package report renders and reads the per-instance artifacts a backup run
// produces: metadata.json (success flag, start time and source names; no
// statistics are stored in it), actions.json (the
// durable action record), and actions.html (a human-readable plan),
// matching the on-disk layout of spec.md §6. It also implements
// backup.CompareRootFinder against metadata.json, mirroring the original
// tool's findMostRecentSuccessfulBackup.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"frontdown/internal/backup"
)

const (
	metadataFilename    = "metadata.json"
	actionsFilename     = "actions.json"
	actionsHTMLFilename = "actions.html"
)

// Recorder implements backup.InstanceRecorder and backup.CompareRootFinder
// using encoding/json and html/template against a backup.FilesystemView.
// No JSON or HTML templating library beyond the standard library appears
// anywhere in the retrieved example corpus for this kind of static report
// generation, so both are implemented on stdlib — see DESIGN.md.
type Recorder struct{}

var (
	_ backup.InstanceRecorder = Recorder{}
	_ backup.CompareRootFinder = Recorder{}
)

func (Recorder) WriteMetadata(rootView backup.FilesystemView, instance backup.RelPath, meta backup.InstanceMetadata) error {
	return writeJSON(rootView, instance.Join(metadataFilename), meta)
}

func (Recorder) WriteActionRecord(rootView backup.FilesystemView, instance backup.RelPath, rec *backup.ActionRecord) error {
	return writeJSON(rootView, instance.Join(actionsFilename), rec)
}

func writeJSON(view backup.FilesystemView, relpath backup.RelPath, v any) error {
	w, err := view.OpenWrite(relpath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", relpath, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		w.Close()
		return fmt.Errorf("encoding %s: %w", relpath, err)
	}
	return w.Close()
}

func readMetadata(view backup.FilesystemView, instance backup.RelPath) (backup.InstanceMetadata, error) {
	var meta backup.InstanceMetadata
	r, err := view.OpenRead(instance.Join(metadataFilename))
	if err != nil {
		return meta, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// FindMostRecentSuccessful scans rootView's top-level entries for
// subdirectories carrying a metadata.json, parses each, and returns the
// most recently started one with Successful=true, matching backup_job.py's
// findMostRecentSuccessfulBackup.
func (Recorder) FindMostRecentSuccessful(rootView backup.FilesystemView, exclude backup.RelPath) (backup.RelPath, bool, error) {
	entries, err := rootView.List("")
	if err != nil {
		return "", false, err
	}

	type candidate struct {
		rel  backup.RelPath
		meta backup.InstanceMetadata
	}
	var candidates []candidate
	for _, e := range entries {
		if e.Kind != backup.KindDirectory {
			continue
		}
		rel := backup.RelPath(e.Name)
		if rel == exclude {
			continue
		}
		meta, err := readMetadata(rootView, rel)
		if err != nil {
			continue // no metadata.json, or unreadable: not a valid instance
		}
		candidates = append(candidates, candidate{rel: rel, meta: meta})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].meta.Started.After(candidates[j].meta.Started)
	})

	for _, c := range candidates {
		if c.meta.Successful {
			return c.rel, true, nil
		}
	}
	return "", false, nil
}
