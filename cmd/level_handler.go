package cmd

import (
	"context"
	"log/slog"
)

// levelHandler gates a handler that has no level option of its own, such as the
// OpenTelemetry bridge, behind a runtime level.
type levelHandler struct {
	level slog.Leveler
	next  slog.Handler
}

func newLevelHandler(level slog.Leveler, next slog.Handler) *levelHandler {
	return &levelHandler{level: level, next: next}
}

func (h *levelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() && h.next.Enabled(ctx, l)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newLevelHandler(h.level, h.next.WithAttrs(attrs))
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return newLevelHandler(h.level, h.next.WithGroup(name))
}
