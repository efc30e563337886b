// Package handoff creates and opens checkpoints over the memory journal.
//
// A checkpoint bookmarks everything up to the newest memory at the time it
// was marked. Successive checkpoints chain: each one starts where the
// previous one ended, so their slices never overlap and never leave a gap.
package handoff
