package journal

import "strings"

// Latest returns at most n memories, newest first.
func Latest(memories []MemoryEntry, n int) []MemoryEntry {
	return take(SortNewest(memories), n)
}

// Search returns at most limit memories whose text contains query,
// ignoring case, newest first. Only the text column is searched.
func Search(memories []MemoryEntry, query string, limit int) []MemoryEntry {
	needle := strings.ToLower(query)
	var hits []MemoryEntry
	for _, m := range memories {
		if strings.Contains(strings.ToLower(m.Text), needle) {
			hits = append(hits, m)
		}
	}
	return take(SortNewest(hits), limit)
}

func take[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
