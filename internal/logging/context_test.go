package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_Correlation(t *testing.T) {
	ctx := WithInvocationID(context.Background(), "3f1c")
	ctx = WithCommand(ctx, "handoff open")
	ctx = WithStoreRoot(ctx, "/repo")

	fields := ContextFields(ctx)

	assertFieldExists(t, fields, "invocation.id", "3f1c")
	assertFieldExists(t, fields, "command", "handoff open")
	assertFieldExists(t, fields, "store.root", "/repo")
}

func TestContextFields_TraceSpan(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := ContextFields(ctx)

	assertFieldExists(t, fields, "trace_id", "4bf92f3577b34da6a3ce929d0e0e4736")
	assertFieldExists(t, fields, "span_id", "00f067aa0ba902b7")
}

func TestContextGetters_Missing(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, InvocationIDFromContext(ctx))
	assert.Empty(t, CommandFromContext(ctx))
	assert.Empty(t, StoreRootFromContext(ctx))
}

func TestLogger_AutoInjectContextFields(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	ctx := WithCommand(context.Background(), "what")
	logger.Info(ctx, "memory recorded", zap.String("id", "cr-ab12"))

	logs := observed.All()
	require.Len(t, logs, 1)
	assertFieldExists(t, logs[0].Context, "command", "what")
	assertFieldExists(t, logs[0].Context, "id", "cr-ab12")
}

func TestWithLogger_FromContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)

	assert.Same(t, tl.Logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func assertFieldExists(t *testing.T, fields []zap.Field, key, value string) {
	t.Helper()
	for _, f := range fields {
		if f.Key == key && f.String == value {
			return
		}
	}
	t.Errorf("field %s=%s not found in %+v", key, value, fields)
}
