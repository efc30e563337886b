package journal

import (
	"path/filepath"
)

const (
	// DefaultDirName is the store directory created under the store root.
	DefaultDirName = ".crumbs"
	// MemoriesFile holds memory entries.
	MemoriesFile = "memories.csv"
	// HandoffsFile holds handoff checkpoints.
	HandoffsFile = "handoffs.csv"
)

// Store is the file-backed pair of append-only logs.
//
// The store assumes it is the only writer; it takes no locks.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir (typically <root>/.crumbs).
// Nothing is created until Ensure or an append is called.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// MemoriesPath returns the path of the memories log.
func (s *Store) MemoriesPath() string { return filepath.Join(s.dir, MemoriesFile) }

// HandoffsPath returns the path of the handoffs log.
func (s *Store) HandoffsPath() string { return filepath.Join(s.dir, HandoffsFile) }

// Ensure creates the store directory and both logs with their header rows.
// Existing non-empty files are left untouched.
func (s *Store) Ensure() error {
	if err := ensureFile[memoryRecord](s.MemoriesPath()); err != nil {
		return err
	}
	return ensureFile[handoffRecord](s.HandoffsPath())
}

// AppendMemory durably appends m to the memories log.
func (s *Store) AppendMemory(m MemoryEntry) error {
	if err := ensureFile[memoryRecord](s.MemoriesPath()); err != nil {
		return err
	}
	return appendRecord(s.MemoriesPath(), newMemoryRecord(m))
}

// AppendHandoff durably appends h to the handoffs log.
func (s *Store) AppendHandoff(h Handoff) error {
	if err := ensureFile[handoffRecord](s.HandoffsPath()); err != nil {
		return err
	}
	return appendRecord(s.HandoffsPath(), newHandoffRecord(h))
}

// Memories reads every memory entry in append order.
// A missing file yields no entries.
func (s *Store) Memories() ([]MemoryEntry, error) {
	t, err := readTable(s.MemoriesPath(), MemoryColumns)
	if err != nil {
		return nil, err
	}
	return t.memories()
}

// Handoffs reads every checkpoint in append order.
// A missing file yields no checkpoints.
func (s *Store) Handoffs() ([]Handoff, error) {
	t, err := readTable(s.HandoffsPath(), HandoffColumns)
	if err != nil {
		return nil, err
	}
	return t.handoffs()
}
