package journal

import (
	"fmt"
	"slices"
	"strings"
)

// Prefixes names the id prefixes of one record kind.
type Prefixes struct {
	// Noun is used in error messages ("memory", "handoff").
	Noun      string
	Canonical string
	Legacy    string
}

var (
	// MemoryPrefixes resolves memory ids (cr-xxxx, legacy c_xxxx).
	MemoryPrefixes = Prefixes{Noun: "memory", Canonical: "cr-", Legacy: "c_"}

	// HandoffPrefixes resolves checkpoint ids (hf-xxxx, legacy h_xxxx).
	HandoffPrefixes = Prefixes{Noun: "handoff", Canonical: "hf-", Legacy: "h_"}
)

// Candidates returns the lowercased prefixes that input may stand for.
// A bare suffix (no '-' or '_') also matches under both kind prefixes.
func (p Prefixes) Candidates(input string) []string {
	lower := strings.ToLower(input)
	out := []string{lower}
	if !strings.ContainsAny(input, "-_") {
		out = append(out,
			strings.ToLower(p.Canonical)+lower,
			strings.ToLower(p.Legacy)+lower,
		)
	}
	return out
}

// SortNewest returns a copy of records ordered by timestamp, newest first.
// Records with equal timestamps keep their append order.
func SortNewest[R Record](records []R) []R {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b R) int {
		return b.RecordTime().Compare(a.RecordTime())
	})
	return out
}

// Newest returns the most recent record.
func Newest[R Record](records []R) (R, bool) {
	var zero R
	if len(records) == 0 {
		return zero, false
	}
	return SortNewest(records)[0], true
}

// FindByID returns the most recent record whose id equals id, ignoring case.
func FindByID[R Record](records []R, id string) (R, bool) {
	var matches []R
	for _, r := range records {
		if strings.EqualFold(r.RecordID(), id) {
			matches = append(matches, r)
		}
	}
	return Newest(matches)
}

// Resolve maps an id or unambiguous id prefix to exactly one record.
//
// Matching is case-insensitive. Zero matching ids is an ErrNotFound error;
// more than one distinct matching id is an ErrAmbiguous error, with no
// tie-breaking. If several rows share the single matching id the newest
// row wins.
func Resolve[R Record](records []R, input string, p Prefixes) (R, error) {
	var zero R
	candidates := p.Candidates(input)

	seen := make(map[string]bool)
	var ids []string
	var rows []R
	for _, r := range records {
		id := strings.ToLower(r.RecordID())
		if !hasAnyPrefix(id, candidates) {
			continue
		}
		rows = append(rows, r)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, r.RecordID())
		}
	}

	switch len(ids) {
	case 0:
		return zero, fmt.Errorf("no %s matching id prefix %q: %w", p.Noun, input, ErrNotFound)
	case 1:
		r, _ := Newest(rows)
		return r, nil
	default:
		return zero, fmt.Errorf("%s id prefix %q is ambiguous (%s): %w",
			p.Noun, input, strings.Join(ids, ", "), ErrAmbiguous)
	}
}

func hasAnyPrefix(id string, candidates []string) bool {
	for _, c := range candidates {
		if strings.HasPrefix(id, c) {
			return true
		}
	}
	return false
}
