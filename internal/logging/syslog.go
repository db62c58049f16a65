package logging

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
)

// syslogHandler adapts slog's structured records to the classic
// priority-tagged syslog(3) call, delivering under facility LOG_DAEMON as
// the original resolver does via openlog()/syslog(). Only the message and
// level map cleanly onto a syslog line; attributes are appended as
// key=value pairs.
type syslogHandler struct {
	writer *syslog.Writer
	level  slog.Leveler
	attrs  []slog.Attr
}

// NewSyslogHandler dials the local syslog daemon under facility
// LOG_DAEMON and returns an slog.Handler that writes to it. tag is the
// program identity syslog will prefix each line with (equivalent to
// openlog's ident argument).
func NewSyslogHandler(tag string, level slog.Leveler) (slog.Handler, error) {
	w, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, fmt.Errorf("logging: connect to syslog: %w", err)
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &syslogHandler{writer: w, level: level}, nil
}

func (h *syslogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *syslogHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	r.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	for _, a := range h.attrs {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}

	switch {
	case r.Level >= slog.LevelError:
		return h.writer.Err(msg)
	case r.Level >= slog.LevelWarn:
		return h.writer.Warning(msg)
	case r.Level >= slog.LevelInfo:
		return h.writer.Info(msg)
	default:
		return h.writer.Debug(msg)
	}
}

func (h *syslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &syslogHandler{writer: h.writer, level: h.level}
	next.attrs = append(next.attrs, h.attrs...)
	next.attrs = append(next.attrs, attrs...)
	return next
}

func (h *syslogHandler) WithGroup(_ string) slog.Handler {
	// Groups have no natural syslog-line representation; attributes are
	// flattened instead of nested.
	return h
}
