package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger_Assertions(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithCommand(context.Background(), "handoff mark")

	tl.Info(ctx, "handoff created", zap.String("id", "hf-ab12"), zap.Int("window", 10))

	tl.AssertLogged(t, zapcore.InfoLevel, "handoff created")
	tl.AssertLogged(t, zapcore.InfoLevel, "created")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "handoff created")
	tl.AssertField(t, "handoff created", "id", "hf-ab12")
	tl.AssertField(t, "handoff created", "window", 10)
	tl.AssertField(t, "handoff created", "command", "handoff mark")
	assert.Len(t, tl.Entries("handoff"), 1)
	assert.Empty(t, tl.Entries("memory"))
}

func TestTestLogger_RecordsTrace(t *testing.T) {
	tl := NewTestLogger()
	tl.Trace(context.Background(), "handoff range")

	tl.AssertLogged(t, TraceLevel, "handoff range")
	assert.Equal(t, []string{"trace handoff range"}, tl.messages())
}

func TestTestLogger_Reset(t *testing.T) {
	tl := NewTestLogger()
	tl.Debug(context.Background(), "store ready")
	assert.Len(t, tl.Entries(""), 1)

	tl.Reset()
	assert.Empty(t, tl.Entries(""))
}
