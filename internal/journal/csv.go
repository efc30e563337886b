package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
)

// Column layouts of the two store files. They match the csv tags of
// memoryRecord and handoffRecord.
var (
	MemoryColumns  = []string{"id", "kind", "text", "ts_utc", "cwd", "git_branch", "git_head"}
	HandoffColumns = []string{"id", "ts_utc", "from_memory_id", "to_memory_id", "suggested_window", "cwd", "git_branch", "git_head"}
)

// csvTime is a ts_utc column in TimestampLayout.
type csvTime time.Time

// MarshalCSV implements gocsv.TypeMarshaller.
func (t csvTime) MarshalCSV() (string, error) {
	return FormatTimestamp(time.Time(t)), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (t *csvTime) UnmarshalCSV(s string) error {
	ts, err := ParseTimestamp(s)
	if err != nil {
		return fmt.Errorf("column ts_utc: %v", err)
	}
	*t = csvTime(ts)
	return nil
}

// memoryRecord is one row of memories.csv.
type memoryRecord struct {
	ID         string  `csv:"id"`
	Kind       string  `csv:"kind"`
	Text       string  `csv:"text"`
	Timestamp  csvTime `csv:"ts_utc"`
	WorkingDir string  `csv:"cwd"`
	Branch     string  `csv:"git_branch"`
	Revision   string  `csv:"git_head"`
}

// handoffRecord is one row of handoffs.csv.
type handoffRecord struct {
	ID              string  `csv:"id"`
	Timestamp       csvTime `csv:"ts_utc"`
	FromMemoryID    string  `csv:"from_memory_id"`
	ToMemoryID      string  `csv:"to_memory_id"`
	SuggestedWindow string  `csv:"suggested_window"`
	WorkingDir      string  `csv:"cwd"`
	Branch          string  `csv:"git_branch"`
	Revision        string  `csv:"git_head"`
}

func newMemoryRecord(m MemoryEntry) memoryRecord {
	return memoryRecord{
		ID:         m.ID,
		Kind:       string(m.Kind),
		Text:       m.Text,
		Timestamp:  csvTime(m.Timestamp),
		WorkingDir: m.WorkingDir,
		Branch:     deref(m.Branch),
		Revision:   deref(m.Revision),
	}
}

func newHandoffRecord(h Handoff) handoffRecord {
	return handoffRecord{
		ID:              h.ID,
		Timestamp:       csvTime(h.Timestamp),
		FromMemoryID:    deref(h.FromMemoryID),
		ToMemoryID:      h.ToMemoryID,
		SuggestedWindow: strconv.Itoa(h.SuggestedWindow),
		WorkingDir:      h.WorkingDir,
		Branch:          deref(h.Branch),
		Revision:        deref(h.Revision),
	}
}

// entry validates a decoded row. line is its physical line in the file.
func (r memoryRecord) entry(path string, line int) (MemoryEntry, error) {
	if r.ID == "" {
		return MemoryEntry{}, parseError(path, line, "column id is empty")
	}
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return MemoryEntry{}, parseError(path, line, "column kind: %q is not what or why", r.Kind)
	}
	return MemoryEntry{
		ID:         r.ID,
		Kind:       kind,
		Text:       r.Text,
		Timestamp:  time.Time(r.Timestamp),
		WorkingDir: r.WorkingDir,
		Branch:     String(r.Branch),
		Revision:   String(r.Revision),
	}, nil
}

func (r handoffRecord) handoff(path string, line int) (Handoff, error) {
	if r.ID == "" {
		return Handoff{}, parseError(path, line, "column id is empty")
	}
	if r.ToMemoryID == "" {
		return Handoff{}, parseError(path, line, "column to_memory_id is empty")
	}
	window, err := strconv.Atoi(r.SuggestedWindow)
	if err != nil || window < 1 {
		return Handoff{}, parseError(path, line, "column suggested_window: %q is not a positive integer", r.SuggestedWindow)
	}
	return Handoff{
		ID:              r.ID,
		Timestamp:       time.Time(r.Timestamp),
		FromMemoryID:    String(r.FromMemoryID),
		ToMemoryID:      r.ToMemoryID,
		SuggestedWindow: window,
		WorkingDir:      r.WorkingDir,
		Branch:          String(r.Branch),
		Revision:        String(r.Revision),
	}, nil
}

// ensureFile creates path with the header row of R when it is missing or
// empty.
func ensureFile[R any](path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioError("create", filepath.Dir(path), err)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Size() > 0:
		return nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return ioError("stat", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return ioError("create", path, err)
	}
	if err := gocsv.MarshalCSV([]R{}, gocsv.NewSafeCSVWriter(csv.NewWriter(f))); err != nil {
		f.Close()
		return ioError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return ioError("close", path, err)
	}
	return nil
}

// appendRecord adds rec at the end of path and syncs it to disk.
func appendRecord[R any](path string, rec R) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ioError("open for append", path, err)
	}
	if err := gocsv.MarshalCSVWithoutHeaders([]R{rec}, gocsv.NewSafeCSVWriter(csv.NewWriter(f))); err != nil {
		f.Close()
		return ioError("append", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return ioError("flush", path, err)
	}
	if err := f.Close(); err != nil {
		return ioError("close", path, err)
	}
	return nil
}

// table is a store file split into records, header first.
type table struct {
	path  string
	rows  [][]string
	lines []int // physical line of each data row
}

// readTable splits path into records and checks the header carries every
// required column. A missing or empty file yields an empty table.
func readTable(path string, required []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &table{path: path}, nil
		}
		return nil, ioError("open", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &table{path: path}, nil
	}
	if err != nil {
		return nil, csvError(path, nil, err)
	}

	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, name := range required {
		if !present[name] {
			return nil, parseError(path, 1, "header is missing column %q", name)
		}
	}

	// Field count is enforced against the header by encoding/csv.
	r.FieldsPerRecord = len(header)
	t := &table{path: path, rows: [][]string{header}}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(path, nil, err)
		}
		line, _ := r.FieldPos(0)
		t.rows = append(t.rows, row)
		t.lines = append(t.lines, line)
	}
	return t, nil
}

// decode maps the table onto records by header name.
func decode[R any](t *table) ([]R, error) {
	var out []R
	if len(t.rows) < 2 {
		return out, nil
	}
	if err := gocsv.UnmarshalCSV(&rowsReader{rows: t.rows}, &out); err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, csvError(t.path, t.lines, err)
		}
		// The rows are already in memory, so anything else is a header or
		// mapping problem.
		return nil, parseError(t.path, 1, "%v", err)
	}
	return out, nil
}

// csvError converts a CSV syntax or conversion error to ErrParse. gocsv
// reports the record index (header is line 1); lines maps it back to the
// physical line.
func csvError(path string, lines []int, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line := pe.Line
		if i := line - 2; lines != nil && i >= 0 && i < len(lines) {
			line = lines[i]
		}
		return parseError(path, line, "%v", pe.Err)
	}
	return ioError("read", path, err)
}

func (t *table) memories() ([]MemoryEntry, error) {
	records, err := decode[memoryRecord](t)
	if err != nil {
		return nil, err
	}
	out := make([]MemoryEntry, 0, len(records))
	for i, rec := range records {
		m, err := rec.entry(t.path, t.lines[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (t *table) handoffs() ([]Handoff, error) {
	records, err := decode[handoffRecord](t)
	if err != nil {
		return nil, err
	}
	out := make([]Handoff, 0, len(records))
	for i, rec := range records {
		h, err := rec.handoff(t.path, t.lines[i])
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// rowsReader feeds already split records to gocsv.
type rowsReader struct {
	rows [][]string
}

func (r *rowsReader) Read() ([]string, error) {
	if len(r.rows) == 0 {
		return nil, io.EOF
	}
	row := r.rows[0]
	r.rows = r.rows[1:]
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rows := r.rows
	r.rows = nil
	return rows, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
