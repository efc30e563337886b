// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if id := InvocationIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("invocation.id", id))
	}
	if cmd := CommandFromContext(ctx); cmd != "" {
		fields = append(fields, zap.String("command", cmd))
	}
	if root := StoreRootFromContext(ctx); root != "" {
		fields = append(fields, zap.String("store.root", root))
	}

	return fields
}

// Context key types
type invocationCtxKey struct{}
type commandCtxKey struct{}
type storeRootCtxKey struct{}

// WithInvocationID tags ctx with the id of the current CLI run.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationCtxKey{}, id)
}

// InvocationIDFromContext extracts the invocation id from context.
func InvocationIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(invocationCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithCommand tags ctx with the command being executed, e.g. "handoff open".
func WithCommand(ctx context.Context, cmd string) context.Context {
	return context.WithValue(ctx, commandCtxKey{}, cmd)
}

// CommandFromContext extracts the command name from context.
func CommandFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(commandCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithStoreRoot tags ctx with the resolved store root.
func WithStoreRoot(ctx context.Context, root string) context.Context {
	return context.WithValue(ctx, storeRootCtxKey{}, root)
}

// StoreRootFromContext extracts the store root from context.
func StoreRootFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(storeRootCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
