// Package telemetry wires OpenTelemetry tracing, metrics and logs for cr.
//
// Telemetry is off by default. When enabled, spans, counters and log
// records (via the zap bridge in internal/logging) are exported over OTLP
// (gRPC or HTTP/protobuf) and flushed when the command exits:
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Instrumented packages take a trace.Tracer and metric.Meter from their
// options and fall back to the global providers, which New installs.
// Tests use NewTestTelemetry to record spans, metrics and logs in memory.
package telemetry
