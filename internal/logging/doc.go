// Package logging provides structured logging for the cr CLI.
//
// # Overview
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Context-aware methods that inject correlation fields
//     (trace_id, invocation.id, command, store.root)
//   - Console or JSON encoding on a caller-supplied writer (stderr for cr)
//   - An otelzap tee that exports the same entries as OTel log records
//     when telemetry supplies a LoggerProvider (nil disables it)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, os.Stderr, tel.LoggerProvider())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithInvocationID(ctx, uuid.NewString())
//	ctx = logging.WithCommand(ctx, "handoff mark")
//	logger.Info(ctx, "handoff created", zap.String("id", h.ID))
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//
// Logger is safe for concurrent use.
package logging
