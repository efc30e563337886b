// Package journal is the append-only memory journal behind the cr CLI.
//
// The journal keeps two independent logs inside a store directory
// (".crumbs" by default):
//
//	memories.csv  id,kind,text,ts_utc,cwd,git_branch,git_head
//	handoffs.csv  id,ts_utc,from_memory_id,to_memory_id,suggested_window,cwd,git_branch,git_head
//
// Records are appended once and never edited or removed. Reads parse the
// whole file and order records by timestamp, newest first.
//
// # Identifiers
//
// Memory ids use the "cr-" prefix (legacy "c_"), handoff ids use "hf-"
// (legacy "h_"). Users may type any unambiguous prefix of an id, with or
// without the kind prefix:
//
//	Resolve(memories, "ab12", MemoryPrefixes)    // matches cr-ab12...
//	Resolve(memories, "cr-ab", MemoryPrefixes)   // matches cr-ab...
//
// A prefix that matches more than one id is an error wrapping
// ErrAmbiguous; a prefix that matches nothing wraps ErrNotFound.
//
// # Errors
//
// Every error returned by this package wraps one of ErrValidation,
// ErrNotFound, ErrAmbiguous, ErrState, ErrIO or ErrParse and can be
// classified with errors.Is.
package journal
