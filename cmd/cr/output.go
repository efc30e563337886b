package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fyrsmithlabs/crumbs/internal/journal"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRows prints memories as tab-separated id, kind, ts, cwd, text.
func writeRows(w io.Writer, memories []journal.MemoryEntry) {
	for _, m := range memories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Kind, journal.FormatTimestamp(m.Timestamp), m.WorkingDir, m.Text)
	}
}

// writeMemories prints memories as rows or a JSON array.
func writeMemories(w io.Writer, memories []journal.MemoryEntry) error {
	if outputJSON {
		if memories == nil {
			memories = []journal.MemoryEntry{}
		}
		return writeJSON(w, memories)
	}
	writeRows(w, memories)
	return nil
}

func writeMemory(w io.Writer, m *journal.MemoryEntry) error {
	if outputJSON {
		return writeJSON(w, m)
	}
	fmt.Fprintf(w, "id:   %s\n", m.ID)
	fmt.Fprintf(w, "kind: %s\n", m.Kind)
	fmt.Fprintf(w, "ts:   %s\n", journal.FormatTimestamp(m.Timestamp))
	fmt.Fprintf(w, "cwd:  %s\n", m.WorkingDir)
	if m.Branch != nil {
		fmt.Fprintf(w, "git_branch: %s\n", *m.Branch)
	}
	if m.Revision != nil {
		fmt.Fprintf(w, "git_head:   %s\n", *m.Revision)
	}
	fmt.Fprintf(w, "text: %s\n", m.Text)
	return nil
}

func writeHandoffHeader(w io.Writer, h *journal.Handoff) {
	fmt.Fprintf(w, "handoff: %s\n", h.ID)
	fmt.Fprintf(w, "to:      %s\n", h.ToMemoryID)
	if h.FromMemoryID != nil {
		fmt.Fprintf(w, "from:    %s\n", *h.FromMemoryID)
	} else {
		fmt.Fprintln(w, "from:    <start>")
	}
	fmt.Fprintf(w, "window:  %d\n", h.SuggestedWindow)
}
