package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/amrtrace/internal/ui/output"
	"go.trai.ch/amrtrace/internal/ui/style"
)

// ElapsedKey is the attribute a finished span carries its duration under.
// The pretty handler moves it to the end of the line as "(12ms)".
const ElapsedKey = "elapsed"

// PrettyHandler is a slog.Handler rendering session and span records as one
// line each: the message, its attributes as key=value, then the elapsed time.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []string
	groups []string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	var color termenv.Color

	switch {
	case r.Level >= slog.LevelError:
		b.WriteString(style.Cross + " ")
		color = termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		b.WriteString(style.Warning + " ")
		color = termenv.RGBColor(string(style.Yellow))
	default:
		color = termenv.RGBColor(string(style.Slate))
	}
	b.WriteString(r.Message)

	line := newLine(h.attrs)
	r.Attrs(func(attr slog.Attr) bool {
		line.add(h.groups, attr)
		return true
	})

	for _, p := range line.parts {
		b.WriteString(" " + p)
	}
	if line.elapsed >= 0 {
		b.WriteString(" (" + line.elapsed.String() + ")")
	}

	styled := h.out.String(b.String()).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")

	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	l := newLine(h.attrs)
	for _, a := range attrs {
		l.add(h.groups, a)
	}

	return &PrettyHandler{
		out:    h.out,
		level:  h.level,
		attrs:  l.parts,
		groups: h.groups,
	}
}

// WithGroup returns a new Handler qualifying later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{
		out:    h.out,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(h.groups[:len(h.groups):len(h.groups)], name),
	}
}

// line collects the rendered attributes of one record. A negative elapsed
// means the record carried none.
type line struct {
	parts   []string
	elapsed time.Duration
}

func newLine(prefix []string) line {
	return line{parts: prefix[:len(prefix):len(prefix)], elapsed: -1}
}

func (l *line) add(groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(groups[:len(groups):len(groups)], attr.Key)
		}
		for _, a := range attr.Value.Group() {
			l.add(inner, a)
		}
		return
	}

	if attr.Key == ElapsedKey && len(groups) == 0 && attr.Value.Kind() == slog.KindDuration {
		l.elapsed = attr.Value.Duration().Round(time.Millisecond)
		return
	}

	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	l.parts = append(l.parts, key+"="+formatValue(attr.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	default:
		return v.String()
	}
}
