package logging

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceHook_AddsSpanIDs(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	entry := logrus.NewEntry(logrus.New()).WithContext(ctx)
	assert.NoError(t, TraceHook{}.Fire(entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry.Data["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry.Data["span_id"])
}

func TestTraceHook_NoContext(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())
	assert.NoError(t, TraceHook{}.Fire(entry))
	assert.NotContains(t, entry.Data, "trace_id")
}
