package journal

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(sec, ms int) time.Time {
	return time.Date(2025, 1, 2, 3, 4, sec, ms*int(time.Millisecond), time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), DefaultDirName))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStore_EnsureWritesHeaders(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ensure())

	mem, err := os.ReadFile(s.MemoriesPath())
	require.NoError(t, err)
	assert.Equal(t, "id,kind,text,ts_utc,cwd,git_branch,git_head\n", string(mem))

	hf, err := os.ReadFile(s.HandoffsPath())
	require.NoError(t, err)
	assert.Equal(t, "id,ts_utc,from_memory_id,to_memory_id,suggested_window,cwd,git_branch,git_head\n", string(hf))

	// A second Ensure must not truncate existing content.
	require.NoError(t, s.AppendMemory(MemoryEntry{ID: "cr-aaaa", Kind: KindWhat, Text: "x", Timestamp: ts(0, 0), WorkingDir: "."}))
	require.NoError(t, s.Ensure())
	got, err := s.Memories()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_MissingFilesReadEmpty(t *testing.T) {
	s := newTestStore(t)

	memories, err := s.Memories()
	require.NoError(t, err)
	assert.Empty(t, memories)

	handoffs, err := s.Handoffs()
	require.NoError(t, err)
	assert.Empty(t, handoffs)

	_, err = os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err), "reads must not create the store")
}

func TestStore_MemoryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := []MemoryEntry{
		{
			ID:         "cr-ab12",
			Kind:       KindWhat,
			Text:       `tests need "SEED=1", always`,
			Timestamp:  ts(5, 123),
			WorkingDir: "pkg/a,b",
			Branch:     String("main"),
			Revision:   String("0123456789abcdef0123456789abcdef01234567"),
		},
		{
			ID:         "cr-ab13",
			Kind:       KindWhy,
			Text:       "chose csv for diffability",
			Timestamp:  ts(6, 0),
			WorkingDir: "/outside/root",
		},
	}
	for _, m := range in {
		require.NoError(t, s.AppendMemory(m))
	}

	out, err := s.Memories()
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].Kind, out[i].Kind)
		assert.Equal(t, in[i].Text, out[i].Text)
		assert.True(t, in[i].Timestamp.Equal(out[i].Timestamp), "timestamp %d", i)
		assert.Equal(t, in[i].WorkingDir, out[i].WorkingDir)
		assert.Equal(t, in[i].Branch, out[i].Branch)
		assert.Equal(t, in[i].Revision, out[i].Revision)
	}
	assert.Nil(t, out[1].Branch)
	assert.Nil(t, out[1].Revision)
}

func TestStore_HandoffRoundTrip(t *testing.T) {
	s := newTestStore(t)

	first := Handoff{ID: "hf-0001", Timestamp: ts(1, 0), ToMemoryID: "cr-aaaa", SuggestedWindow: 10, WorkingDir: "."}
	second := Handoff{
		ID: "hf-0002", Timestamp: ts(2, 500), FromMemoryID: String("cr-aaaa"), ToMemoryID: "cr-bbbb",
		SuggestedWindow: 3, WorkingDir: "src", Branch: String("HEAD"),
	}
	require.NoError(t, s.AppendHandoff(first))
	require.NoError(t, s.AppendHandoff(second))

	out, err := s.Handoffs()
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Nil(t, out[0].FromMemoryID)
	assert.Equal(t, "cr-aaaa", out[0].ToMemoryID)
	assert.Equal(t, 10, out[0].SuggestedWindow)

	require.NotNil(t, out[1].FromMemoryID)
	assert.Equal(t, "cr-aaaa", *out[1].FromMemoryID)
	assert.Equal(t, 3, out[1].SuggestedWindow)
	assert.Equal(t, "HEAD", *out[1].Branch)
	assert.Nil(t, out[1].Revision)
	assert.True(t, ts(2, 500).Equal(out[1].Timestamp))
}

func TestStore_TimestampFormat(t *testing.T) {
	s := newTestStore(t)
	local := time.Date(2025, 6, 1, 12, 0, 0, 7*int(time.Millisecond), time.FixedZone("X", 2*3600))
	require.NoError(t, s.AppendMemory(MemoryEntry{ID: "cr-aaaa", Kind: KindWhat, Text: "x", Timestamp: local, WorkingDir: "."}))

	raw, err := os.ReadFile(s.MemoriesPath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), ",2025-06-01T10:00:00.007Z,")
}

func TestStore_HeaderMappedByName(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.MemoriesPath(),
		"ts_utc,id,text,kind,git_head,git_branch,cwd\n"+
			"2025-01-02T03:04:05.000Z,cr-zz99,reordered,why,,dev,.\n")

	out, err := s.Memories()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "cr-zz99", out[0].ID)
	assert.Equal(t, KindWhy, out[0].Kind)
	assert.Equal(t, "reordered", out[0].Text)
	assert.Equal(t, "dev", *out[0].Branch)
	assert.Nil(t, out[0].Revision)
}

func TestStore_ParseErrors(t *testing.T) {
	header := "id,kind,text,ts_utc,cwd,git_branch,git_head\n"
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "missing column", content: "id,kind,text,ts_utc,cwd\n", wantErr: `missing column "git_branch"`},
		{name: "short row", content: header + "cr-aaaa,what,x\n", wantErr: "line 2"},
		{name: "bad kind", content: header + "cr-aaaa,how,x,2025-01-02T03:04:05.000Z,.,,\n", wantErr: "column kind"},
		{name: "bad timestamp", content: header + "cr-aaaa,what,x,yesterday,.,,\n", wantErr: "column ts_utc"},
		{name: "empty id", content: header + ",what,x,2025-01-02T03:04:05.000Z,.,,\n", wantErr: "column id is empty"},
		{name: "bare quote", content: header + "cr-aaaa,what,a\"b,2025-01-02T03:04:05.000Z,.,,\n", wantErr: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			writeFile(t, s.MemoriesPath(), tt.content)

			_, err := s.Memories()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStore_HandoffParseErrors(t *testing.T) {
	header := "id,ts_utc,from_memory_id,to_memory_id,suggested_window,cwd,git_branch,git_head\n"
	for name, row := range map[string]string{
		"zero window":  "hf-aaaa,2025-01-02T03:04:05.000Z,,cr-aaaa,0,.,,\n",
		"text window":  "hf-aaaa,2025-01-02T03:04:05.000Z,,cr-aaaa,ten,.,,\n",
		"empty target": "hf-aaaa,2025-01-02T03:04:05.000Z,,,10,.,,\n",
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			writeFile(t, s.HandoffsPath(), header+row)

			_, err := s.Handoffs()
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestStore_AppendUnderRegularFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o644))

	// MkdirAll fails with ENOTDIR regardless of the caller's privileges.
	s := NewStore(filepath.Join(parent, DefaultDirName))
	err := s.AppendMemory(MemoryEntry{ID: "cr-aaaa", Kind: KindWhat, Text: "x", Timestamp: ts(0, 0), WorkingDir: "."})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, syscall.ENOTDIR)
}

func TestRecordTagsMatchColumns(t *testing.T) {
	mem, err := gocsv.MarshalString([]memoryRecord{})
	require.NoError(t, err)
	assert.Equal(t, strings.Join(MemoryColumns, ",")+"\n", mem)

	hf, err := gocsv.MarshalString([]handoffRecord{})
	require.NoError(t, err)
	assert.Equal(t, strings.Join(HandoffColumns, ",")+"\n", hf)
}

func TestStore_ConversionErrorReportsPhysicalLine(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.MemoriesPath(),
		"id,kind,text,ts_utc,cwd,git_branch,git_head\n"+
			"cr-aaaa,what,\"spans\ntwo lines\",2025-01-02T03:04:05.000Z,.,,\n"+
			"cr-bbbb,why,x,not-a-time,.,,\n")

	_, err := s.Memories()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "line 4")
	assert.Contains(t, err.Error(), "column ts_utc")
}

func TestStore_TextRoundTripsVerbatim(t *testing.T) {
	s := newTestStore(t)
	text := "=SUM(A1) -flag, \"quoted\"\nnext line"
	require.NoError(t, s.AppendMemory(MemoryEntry{ID: "cr-aaaa", Kind: KindWhat, Text: text, Timestamp: ts(0, 0), WorkingDir: "."}))

	got, err := s.Memories()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, text, got[0].Text)
}
