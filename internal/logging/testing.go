package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger keeps every entry in memory, at every level, for assertions.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

// NewTestLogger creates a TestLogger that records from TraceLevel up.
func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	return &TestLogger{
		Logger: &Logger{z: zap.New(core), level: zap.NewAtomicLevelAt(TraceLevel)},
		logs:   logs,
	}
}

// Entries returns the entries whose message contains snippet. An empty
// snippet returns everything.
func (t *TestLogger) Entries(snippet string) []observer.LoggedEntry {
	return t.logs.FilterMessageSnippet(snippet).All()
}

// Reset discards recorded entries.
func (t *TestLogger) Reset() {
	t.logs.TakeAll()
}

// AssertLogged fails tb unless an entry at level contains snippet.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, snippet string) {
	tb.Helper()
	if t.logs.FilterLevelExact(level).FilterMessageSnippet(snippet).Len() == 0 {
		tb.Errorf("no %s entry containing %q; got %v", levelName(level), snippet, t.messages())
	}
}

// AssertNotLogged fails tb if an entry at level contains snippet.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, snippet string) {
	tb.Helper()
	if n := t.logs.FilterLevelExact(level).FilterMessageSnippet(snippet).Len(); n > 0 {
		tb.Errorf("unexpected %s entry containing %q (%d found)", levelName(level), snippet, n)
	}
}

// AssertField fails tb unless an entry containing snippet carries key with
// a value equal to expected. Integer fields compare as int64.
func (t *TestLogger) AssertField(tb testing.TB, snippet, key string, expected any) {
	tb.Helper()
	for _, e := range t.Entries(snippet) {
		if got, ok := e.ContextMap()[key]; ok && assert.ObjectsAreEqualValues(expected, got) {
			return
		}
	}
	tb.Errorf("no entry containing %q has %s=%v", snippet, key, expected)
}

func (t *TestLogger) messages() []string {
	all := t.logs.All()
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = levelName(e.Level) + " " + e.Message
	}
	return out
}
