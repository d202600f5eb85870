package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/amrtrace/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor by logging every finished span
// with its attributes.
type Bridge struct {
	logger ports.Logger
}

// spanLogger is implemented by loggers that render span attributes
// themselves instead of receiving a preformatted line.
type spanLogger interface {
	Span(name string, elapsed time.Duration, attrs ...slog.Attr)
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// OnStart does nothing.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span. Failed spans are logged as warnings.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "span failed"
		}
		b.logger.Warn(fmt.Sprintf("%s failed: %s", s.Name(), desc))
		return
	}

	dur := s.EndTime().Sub(s.StartTime())
	if sl, ok := b.logger.(spanLogger); ok {
		attrs := make([]slog.Attr, 0, len(s.Attributes()))
		for _, kv := range s.Attributes() {
			attrs = append(attrs, slogAttr(kv))
		}
		sl.Span(s.Name(), dur, attrs...)
		return
	}

	parts := []string{s.Name()}
	for _, kv := range s.Attributes() {
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	b.logger.Info(fmt.Sprintf("%s (%s)", strings.Join(parts, " "), dur.Round(time.Millisecond)))
}

// slogAttr keeps counters numeric so JSON logs carry them as numbers.
func slogAttr(kv attribute.KeyValue) slog.Attr {
	key := string(kv.Key)
	switch kv.Value.Type() {
	case attribute.BOOL:
		return slog.Bool(key, kv.Value.AsBool())
	case attribute.INT64:
		return slog.Int64(key, kv.Value.AsInt64())
	case attribute.FLOAT64:
		return slog.Float64(key, kv.Value.AsFloat64())
	case attribute.STRING:
		return slog.String(key, kv.Value.AsString())
	default:
		return slog.String(key, kv.Value.Emit())
	}
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
