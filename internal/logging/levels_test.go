package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTraceLevel_BelowDebug(t *testing.T) {
	assert.Equal(t, zapcore.Level(-2), TraceLevel)
	assert.True(t, TraceLevel.Enabled(zapcore.DebugLevel))
	assert.False(t, zapcore.DebugLevel.Enabled(TraceLevel))
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"trace", TraceLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"WARN", zapcore.WarnLevel},
		{"TRACE", TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := LevelFromString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFromString_Invalid(t *testing.T) {
	got, err := LevelFromString("loud")
	require.Error(t, err)
	assert.Equal(t, zapcore.WarnLevel, got)
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "trace", levelName(TraceLevel))
	assert.Equal(t, "debug", levelName(zapcore.DebugLevel))
}
