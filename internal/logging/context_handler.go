package logging

import (
	"context"
	"log/slog"
	"maps"
)

// FieldSessionID tags every record emitted by one CLI invocation.
const FieldSessionID = "session_id"

// contextHandler stamps the session ID on every record and copies the
// operation and correlation fields from the context handed to the *Context
// logging methods. Fields the logger already bound through WithContext are
// not repeated.
type contextHandler struct {
	base      slog.Handler
	sessionID string
	bound     map[string]struct{}
	grouped   bool
}

func newContextHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &contextHandler{base: base, sessionID: sessionID}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	for _, attr := range ContextFields(ctx) {
		if _, ok := h.bound[attr.Key]; ok {
			continue
		}
		record.AddAttrs(attr)
	}
	return h.base.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &contextHandler{
		base:      h.base.WithAttrs(attrs),
		sessionID: h.sessionID,
		bound:     h.bound,
		grouped:   h.grouped,
	}
	// Keys inside a group do not collide with the top-level context fields.
	if !h.grouped {
		next.bound = maps.Clone(h.bound)
		if next.bound == nil {
			next.bound = make(map[string]struct{}, len(attrs))
		}
		for _, attr := range attrs {
			next.bound[attr.Key] = struct{}{}
		}
	}
	return next
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{
		base:      h.base.WithGroup(name),
		sessionID: h.sessionID,
		bound:     h.bound,
		grouped:   true,
	}
}
