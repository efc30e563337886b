package journal

import (
	"fmt"
	"time"
)

// Kind distinguishes facts from rationale.
type Kind string

const (
	// KindWhat records a constraint, fact, change or gotcha.
	KindWhat Kind = "what"
	// KindWhy records a decision or rationale.
	KindWhy Kind = "why"
)

// ParseKind parses the stored form of a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindWhat, KindWhy:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown memory kind %q: %w", s, ErrValidation)
	}
}

// TimestampLayout is the on-disk form of record timestamps: ISO-8601 UTC
// with millisecond precision, e.g. 2025-01-02T15:04:05.123Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Origin describes where a record was created.
type Origin struct {
	// WorkingDir is relative to the store root, "." for the root itself,
	// or absolute when outside the root.
	WorkingDir string

	// Branch and Revision are nil when version-control metadata was
	// unavailable.
	Branch   *string
	Revision *string
}

// MemoryEntry is one atomic recorded fact or rationale.
type MemoryEntry struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"ts_utc"`
	WorkingDir string    `json:"cwd"`
	Branch     *string   `json:"git_branch,omitempty"`
	Revision   *string   `json:"git_head,omitempty"`
}

// RecordID implements Record.
func (m MemoryEntry) RecordID() string { return m.ID }

// RecordTime implements Record.
func (m MemoryEntry) RecordTime() time.Time { return m.Timestamp }

// Handoff is a checkpoint over a contiguous, timestamp-ordered range of
// memory entries: everything after FromMemoryID up to and including
// ToMemoryID.
type Handoff struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"ts_utc"`
	FromMemoryID    *string   `json:"from_memory_id,omitempty"`
	ToMemoryID      string    `json:"to_memory_id"`
	SuggestedWindow int       `json:"suggested_window"`
	WorkingDir      string    `json:"cwd"`
	Branch          *string   `json:"git_branch,omitempty"`
	Revision        *string   `json:"git_head,omitempty"`
}

// RecordID implements Record.
func (h Handoff) RecordID() string { return h.ID }

// RecordTime implements Record.
func (h Handoff) RecordTime() time.Time { return h.Timestamp }

// Record is implemented by both record kinds so that ordering and prefix
// resolution are written once.
type Record interface {
	RecordID() string
	RecordTime() time.Time
}

// IDs returns the identifiers of records in their current order.
func IDs[R Record](records []R) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RecordID()
	}
	return ids
}
