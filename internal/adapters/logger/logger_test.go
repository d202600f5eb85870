package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/amrtrace/internal/adapters/logger"
	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger returns a logger writing uncolored output to a buffer.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Golden(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("some message") },
			goldenName: "info_basic",
		},
		{
			name:       "multiline info",
			log:        func(l *logger.Logger) { l.Info("line1\nline2") },
			goldenName: "info_multiline",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("some warning") },
			goldenName: "warn_basic",
		},
		{
			name:       "stdlib error",
			log:        func(l *logger.Logger) { l.Error(os.ErrPermission) },
			goldenName: "error_simple",
		},
		{
			name: "zerr chain",
			log: func(l *logger.Logger) {
				l.Error(zerr.Wrap(
					zerr.Wrap(errors.New("database connection failed"), "failed to load user data"),
					"failed to process request",
				))
			},
			goldenName: "error_chain_zerr",
		},
		{
			name: "metadata on main error",
			log: func(l *logger.Logger) {
				err := zerr.Wrap(errors.New("no such file or directory"), domain.ErrConfigReadFailed.Error())
				l.Error(zerr.With(err, "path", "/work/amrtrace.yaml"))
			},
			goldenName: "error_metadata_config",
		},
		{
			name: "metadata carried past an empty level",
			log: func(l *logger.Logger) {
				err := errors.Join(domain.ErrEventParseFailed, errors.New("bad id"))
				l.Error(zerr.With(err, "line", 3))
			},
			goldenName: "error_metadata_carried",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	err := zerr.With(zerr.Wrap(errors.New("disk full"), domain.ErrStoreWriteFailed.Error()), "key", "abc")
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"error":"failed to write run summary: disk full"`)
	assert.Contains(t, out, `"key":"abc"`)
	assert.NotContains(t, out, "✗")

	buf.Reset()
	lg.SetJSON(false)
	lg.Error(errors.New("back to pretty"))
	assert.Equal(t, "✗ Error: back to pretty\n", buf.String())
}

func TestLogger_SetOutput_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		lg := logger.New().(*logger.Logger)
		lg.SetOutput(nil)
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() { lg.Info("concurrent info") })
		wg.Go(func() { lg.Warn("concurrent warn") })
		wg.Go(func() { lg.Error(errors.New("concurrent error")) })
		wg.Go(func() { lg.SetJSON(false) })
	}
	wg.Wait()
}

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []logger.ErrorEntry
	}{
		{
			name: "standard error",
			err:  errors.New("simple"),
			want: []logger.ErrorEntry{{Message: "simple"}},
		},
		{
			name: "sentinel with metadata",
			err:  zerr.With(zerr.With(domain.ErrInvalidSink, "kind", "tape"), "sink", 1),
			want: []logger.ErrorEntry{
				{Message: "invalid sink, expected kind 'graph' or 'events'", Metadata: map[string]any{"kind": "tape", "sink": 1}},
			},
		},
		{
			name: "wrapped chain",
			err: func() error {
				inner := zerr.With(zerr.New("inner"), "inner_key", "inner_val")
				return zerr.With(zerr.Wrap(inner, "outer"), "outer_key", "outer_val")
			}(),
			want: []logger.ErrorEntry{
				{Message: "outer", Metadata: map[string]any{"outer_key": "outer_val"}},
				{Message: "inner", Metadata: map[string]any{"inner_key": "inner_val"}},
			},
		},
		{
			name: "nil",
			err:  nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.CollectErrorEntries(tt.err))
		})
	}
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
		{
			name:    "single",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name: "causes with metadata",
			entries: []logger.ErrorEntry{
				{Message: "main", Metadata: map[string]any{"zebra": "z", "alpha": "a"}},
				{Message: "cause line1\ncause line2", Metadata: map[string]any{"n": 3}},
				{Message: "root"},
			},
			want: "Error: main\n" +
				"       alpha: a\n" +
				"       zebra: z\n\n" +
				"  Caused by:\n" +
				"    → cause line1\n" +
				"      cause line2\n" +
				"      n: 3\n" +
				"    → root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}

func TestLogger_Span(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Span("stencil:graph.json", 42*time.Millisecond+400*time.Microsecond,
		slog.String("workload", "stencil"),
		slog.String("sink", "graph"),
		slog.Int64("tasks", 51264))

	g := goldie.New(t)
	g.Assert(t, "span_pretty", buf.Bytes())
}

func TestLogger_SpanJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Span("scheduler.run", 3*time.Millisecond, slog.Int64("epochs", 4))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "scheduler.run", rec["msg"])
	assert.InDelta(t, 4, rec["epochs"], 0)
	assert.InDelta(t, float64(3*time.Millisecond), rec[logger.ElapsedKey], 0)
}

func TestPrettyHandler(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*slog.Logger)
		goldenName string
	}{
		{
			name:       "attributes",
			log:        func(l *slog.Logger) { l.With("key", "value").Info("sink ready", "b", 2) },
			goldenName: "handler_attrs",
		},
		{
			name:       "group",
			log:        func(l *slog.Logger) { l.WithGroup("grp").Info("sink ready", "key", "value") },
			goldenName: "handler_group",
		},
		{
			name:       "debug filtered",
			log:        func(l *slog.Logger) { l.Debug("hidden") },
			goldenName: "handler_debug_filtered",
		},
		{
			name: "elapsed trails",
			log: func(l *slog.Logger) {
				l.Info("scheduler.run",
					slog.Duration(logger.ElapsedKey, 1234567*time.Microsecond),
					slog.Int64("tasks", 804), slog.Int64("epochs", 2))
			},
			goldenName: "handler_elapsed",
		},
		{
			name: "nested groups",
			log: func(l *slog.Logger) {
				l.WithGroup("session").WithGroup("stats").Info("done",
					slog.Group("sched", slog.Int("nodes", 3)),
					slog.Duration(logger.ElapsedKey, time.Second))
			},
			goldenName: "handler_nested_groups",
		},
		{
			name: "quoted values",
			log: func(l *slog.Logger) {
				l.Warn("sink skipped", "file", "out dir/graph.json", "seed", "", "ratio", 0.25)
			},
			goldenName: "handler_quoted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			tt.log(slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}
