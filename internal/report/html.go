package report

import (
	"fmt"
	"html/template"

	"frontdown/internal/backup"
)

var actionsHTMLTemplate = template.Must(template.New("actions").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Frontdown plan: {{.InstanceDir}}</title></head>
<body>
<h1>Backup plan for {{.InstanceDir}}</h1>
{{range .Sources}}
<h2>{{.Name}} ({{.Mode}})</h2>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Type</th><th>Path</th><th>Size</th></tr>
{{range .Actions}}<tr><td>{{.Type}}</td><td>{{.RelPath}}</td><td>{{.Size}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

// WriteActionHTML renders rec as a human-readable table, omitting any
// action whose type is listed in excludeTypes (exclude_actionhtml_actions
// in the configuration record).
func (Recorder) WriteActionHTML(rootView backup.FilesystemView, instance backup.RelPath, rec *backup.ActionRecord, excludeTypes []backup.ActionType) error {
	filtered := filterActionRecord(rec, excludeTypes)

	w, err := rootView.OpenWrite(instance.Join(actionsHTMLFilename))
	if err != nil {
		return fmt.Errorf("opening %s: %w", actionsHTMLFilename, err)
	}
	if err := actionsHTMLTemplate.Execute(w, filtered); err != nil {
		w.Close()
		return fmt.Errorf("rendering action html: %w", err)
	}
	return w.Close()
}

func filterActionRecord(rec *backup.ActionRecord, excludeTypes []backup.ActionType) *backup.ActionRecord {
	if len(excludeTypes) == 0 {
		return rec
	}
	excluded := make(map[backup.ActionType]bool, len(excludeTypes))
	for _, t := range excludeTypes {
		excluded[t] = true
	}
	out := *rec
	out.Sources = make([]backup.SourceActionRecord, len(rec.Sources))
	for i, src := range rec.Sources {
		copySrc := src
		copySrc.Actions = nil
		for _, a := range src.Actions {
			if !excluded[a.Type] {
				copySrc.Actions = append(copySrc.Actions, a)
			}
		}
		out.Sources[i] = copySrc
	}
	return &out
}
