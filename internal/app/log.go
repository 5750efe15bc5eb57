package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"frontdown/internal/backup"
)

// runHandler is a slog.Handler that formats records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
//
// one line per record, so a run's <runID>.log can be grepped the same way
// regardless of which subsystem emitted the line.
type runHandler struct {
	w     io.Writer
	runID string
	attrs []slog.Attr
}

func (h *runHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *runHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	if _, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message); err != nil {
		return err
	}
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.w)
	return err
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{
		w:     h.w,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *runHandler) WithGroup(string) slog.Handler { return h }

// newLogger builds a structured logger for one run, writing to both
// logDir/<runID>.log and stderr, at the level named by levelName
// ("debug", "info", "warn", "error"; unrecognized names fall back to info).
func newLogger(logDir, runID, levelName string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, runID+".log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	w := io.MultiWriter(f, os.Stderr)
	handler := &runHandler{w: w, runID: runID}
	lvl, _ := parseLevel(levelName)
	logger := slog.New(&leveledHandler{runHandler: handler, min: lvl})
	return logger, f, nil
}

func parseLevel(name string) (slog.Level, bool) {
	switch name {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// leveledHandler wraps runHandler with a minimum level filter, since
// runHandler itself always reports Enabled=true.
type leveledHandler struct {
	*runHandler
	min slog.Level
}

func (h *leveledHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *leveledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveledHandler{runHandler: h.runHandler.WithAttrs(attrs).(*runHandler), min: h.min}
}

// slogLogger adapts *slog.Logger to backup.Logger.
type slogLogger struct {
	l *slog.Logger
}

func (a *slogLogger) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogLogger) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogLogger) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogLogger) Error(msg string, args ...any) { a.l.Error(msg, args...) }

var _ backup.Logger = (*slogLogger)(nil)
