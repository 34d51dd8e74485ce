package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// BufferedHandler is an slog.Handler that captures records in memory
// instead of writing them anywhere, so tests can assert on what the
// document graph and xref resolver logged (a skipped page-tree node,
// an xref recovery fallback) without redirecting stderr.
type BufferedHandler struct {
	level      slog.Leveler
	buffer     *bytes.Buffer
	mu         *sync.Mutex
	preAttrs   []slog.Attr
	groupNames []string
}

// NewBufferedHandler creates an empty BufferedHandler. Pass nil to
// capture every level.
func NewBufferedHandler(opts *slog.HandlerOptions) *BufferedHandler {
	h := &BufferedHandler{buffer: &bytes.Buffer{}, mu: &sync.Mutex{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *BufferedHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return true
	}
	return level >= h.level.Level()
}

func (h *BufferedHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var attrs []string
	for _, a := range h.preAttrs {
		attrs = append(attrs, h.prefixed(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.prefixed(a))
		return true
	})

	h.buffer.WriteString(r.Time.Format(time.RFC3339))
	h.buffer.WriteByte(' ')
	h.buffer.WriteString(r.Level.String())
	h.buffer.WriteByte(' ')
	h.buffer.WriteString(r.Message)
	for _, a := range attrs {
		h.buffer.WriteByte(' ')
		h.buffer.WriteString(a)
	}
	h.buffer.WriteByte('\n')
	return nil
}

func (h *BufferedHandler) prefixed(a slog.Attr) string {
	if len(h.groupNames) == 0 {
		return a.String()
	}
	return strings.Join(h.groupNames, ".") + "." + a.String()
}

func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]slog.Attr, len(h.preAttrs), len(h.preAttrs)+len(attrs))
	copy(next, h.preAttrs)
	next = append(next, attrs...)
	return &BufferedHandler{level: h.level, buffer: h.buffer, mu: h.mu, preAttrs: next, groupNames: h.groupNames}
}

func (h *BufferedHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]string, len(h.groupNames), len(h.groupNames)+1)
	copy(next, h.groupNames)
	next = append(next, name)
	return &BufferedHandler{level: h.level, buffer: h.buffer, mu: h.mu, preAttrs: h.preAttrs, groupNames: next}
}

// String returns everything captured so far.
func (h *BufferedHandler) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffer.String()
}

// Contains reports whether s appears anywhere in the captured output.
func (h *BufferedHandler) Contains(s string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.Contains(h.buffer.String(), s)
}
