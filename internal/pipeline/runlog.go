package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
)

// RunLog is a slog.Handler that keeps a human-readable copy of a run's
// progress while forwarding every record to the process logger. Each record
// at Info or above becomes one line of the form
//
//	[15:04:05] message key=value ...
//
// Levels other than Info are written after the timestamp.
type RunLog struct {
	state  *runLogState
	next   slog.Handler
	clock  clockwork.Clock
	prefix string // preformatted handler attrs
	group  string // dotted group prefix for record attrs
}

type runLogState struct {
	mu    sync.Mutex
	lines []string
}

// NewRunLog creates an empty run log forwarding to next.
func NewRunLog(next slog.Handler, clock clockwork.Clock) *RunLog {
	return &RunLog{state: &runLogState{}, next: next, clock: clock}
}

func (h *RunLog) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.next.Enabled(ctx, level)
}

func (h *RunLog) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo {
		h.append(r)
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *RunLog) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		writeAttr(&b, h.group, a)
	}
	return &RunLog{
		state:  h.state,
		next:   h.next.WithAttrs(attrs),
		clock:  h.clock,
		prefix: b.String(),
		group:  h.group,
	}
}

func (h *RunLog) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &RunLog{
		state:  h.state,
		next:   h.next.WithGroup(name),
		clock:  h.clock,
		prefix: h.prefix,
		group:  h.group + name + ".",
	}
}

// Lines returns a copy of the lines recorded so far, oldest first.
func (h *RunLog) Lines() []string {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	out := make([]string, len(h.state.lines))
	copy(out, h.state.lines)
	return out
}

// String joins the recorded lines with newlines.
func (h *RunLog) String() string {
	return strings.Join(h.Lines(), "\n")
}

func (h *RunLog) append(r slog.Record) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", h.clock.Now().Format("15:04:05"))
	if r.Level != slog.LevelInfo {
		b.WriteString(r.Level.String())
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})

	h.state.mu.Lock()
	h.state.lines = append(h.state.lines, b.String())
	h.state.mu.Unlock()
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := group
		if a.Key != "" {
			sub += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, sub, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(group)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	s := v.String()
	if s == "" || strings.ContainsAny(s, " =\"\n\t") {
		return strconv.Quote(s)
	}
	return s
}
