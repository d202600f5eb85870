package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/amrtrace/internal/adapters/logger"
	"go.trai.ch/amrtrace/internal/adapters/telemetry"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/amrtrace/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newBridgedTracer(t *testing.T, log ports.Logger) *telemetry.OTelTracer {
	t.Helper()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(log)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return telemetry.NewOTelTracer(tp, "test")
}

func TestBridge_LogsFinishedSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	var got string
	mockLogger.EXPECT().Info(gomock.Any()).Do(func(msg string) { got = msg }).Times(1)

	tracer := newBridgedTracer(t, mockLogger)
	_, span := tracer.Start(context.Background(), "scheduler.run", ports.WithAttribute("root", "stencil"))
	span.SetAttribute("tasks", uint64(7))
	span.End()

	assert.Contains(t, got, "scheduler.run")
	assert.Contains(t, got, "root=stencil")
	assert.Contains(t, got, "tasks=7")
}

func TestBridge_RendersSpanAttributes(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)

	tracer := newBridgedTracer(t, lg)
	_, span := tracer.Start(context.Background(), "events:events.txt",
		ports.WithAttribute("workload", "converge"),
		ports.WithAttribute("sink", "events"))
	span.SetAttribute("tasks", uint64(404))
	span.SetAttribute("epochs", 101)
	span.End()

	assert.Regexp(t,
		`^events:events\.txt sink=events workload=converge tasks=404 epochs=101 \(\d+(\.\d+)?[µnm]?s\)\n$`,
		buf.String())
}

func TestBridge_WarnsOnFailedSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("session failed: engine invariant violated").Times(1)

	tracer := newBridgedTracer(t, mockLogger)
	_, span := tracer.Start(context.Background(), "session")
	span.RecordError(errors.New("engine invariant violated"))
	span.End()
}

func TestBridge_NilLogger(t *testing.T) {
	tracer := newBridgedTracer(t, nil)
	_, span := tracer.Start(context.Background(), "quiet")
	assert.NotPanics(t, span.End)
}
