package logging

import (
	"context"
	"log/slog"
)

// contextHandler copies the request and run IDs carried by the context
// onto every record, so loggers from New pick them up as well.
type contextHandler struct {
	next slog.Handler
}

func withContextIDs(h slog.Handler) slog.Handler {
	return &contextHandler{next: h}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	var ids []slog.Attr
	if requestID := GetRequestID(ctx); requestID != "" {
		ids = append(ids, slog.String("requestID", requestID))
	}
	if runID := GetRunID(ctx); runID != "" {
		ids = append(ids, slog.String("runID", runID))
	}
	if len(ids) == 0 {
		return h.next.Handle(ctx, r)
	}

	// IDs go first, ahead of the caller's attributes
	tagged := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	tagged.AddAttrs(ids...)
	r.Attrs(func(a slog.Attr) bool {
		tagged.AddAttrs(a)
		return true
	})
	return h.next.Handle(ctx, tagged)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
