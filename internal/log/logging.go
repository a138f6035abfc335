package log

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/coreos/go-systemd/v22/journal"
)

// NewLogger builds the process-wide slog.Logger. format selects "text" or
// "json"; when running under systemd on Linux and the journal is reachable,
// log lines are additionally mirrored to the journal at a matching syslog
// priority. The daemon sends no sd_notify readiness or watchdog messages.
func NewLogger(format string, level slog.Level) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if runtime.GOOS == "linux" {
		if ok, _ := journal.StatusOk(); ok {
			handler = &teeJournalHandler{inner: handler}
		}
	}

	return slog.New(handler)
}

// teeJournalHandler mirrors every record to the systemd journal in addition
// to the wrapped handler, translating slog levels to journal priorities.
type teeJournalHandler struct {
	inner slog.Handler
}

func (h *teeJournalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *teeJournalHandler) Handle(ctx context.Context, r slog.Record) error {
	pri := journal.PriInfo
	switch {
	case r.Level >= slog.LevelError:
		pri = journal.PriErr
	case r.Level >= slog.LevelWarn:
		pri = journal.PriWarning
	case r.Level < slog.LevelInfo:
		pri = journal.PriDebug
	}
	vars := map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		vars[a.Key] = a.Value.String()
		return true
	})
	_ = journal.Send(r.Message, pri, vars)
	return h.inner.Handle(ctx, r)
}

func (h *teeJournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeJournalHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *teeJournalHandler) WithGroup(name string) slog.Handler {
	return &teeJournalHandler{inner: h.inner.WithGroup(name)}
}
