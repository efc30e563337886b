package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug for per-record detail such as handoff range
// computation.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name. It accepts "trace" in addition to
// zap's names and returns WarnLevel alongside any error.
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "trace") {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.WarnLevel, err
	}
	return l, nil
}

// levelName is zap's level name, or "trace" for TraceLevel.
func levelName(l zapcore.Level) string {
	if l == TraceLevel {
		return "trace"
	}
	return l.String()
}

func encodeLevel(upper bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name := levelName(l)
		if upper {
			name = strings.ToUpper(name)
		}
		enc.AppendString(name)
	}
}
