// Package raftlog is the replicated log: a 1-indexed sequence of
// (term, command) entries (spec.md §3: "Log Entry"). Persistence and
// compaction are explicit non-goals (spec.md §1); the log lives only in
// memory, the way the teacher's in-memory Log type does before it's
// handed an io.Writer to persist to.
package raftlog

import "github.com/raftkv/gateway/message"

// Entry is one replicated log entry.
type Entry struct {
	Term    int
	Command message.Envelope
}

// Log is a 1-indexed append/truncate log. Index 0 is the sentinel
// "nothing yet" position used by AppendEntries' prev_log_index=0 base
// case (spec.md §9: "Log indices: 1-based externally").
type Log struct {
	entries []Entry // entries[i] is log index i+1
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// LastIndex returns the index of the final entry, or 0 if the log is
// empty.
func (l *Log) LastIndex() int {
	return len(l.entries)
}

// LastTerm returns the term of the final entry, or 0 if the log is
// empty.
func (l *Log) LastTerm() int {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Term
}

// Get returns the entry at the given 1-based index. index must be in
// [1, LastIndex()]; Get(0) is never valid to call (callers special-case
// index 0 as "vacuously matches", per spec.md §4.1.1).
func (l *Log) Get(index int) Entry {
	return l.entries[index-1]
}

// HasEntryAt reports whether index is within the log's current bounds.
// index 0 always reports true (it matches vacuously).
func (l *Log) HasEntryAt(index int) bool {
	return index == 0 || (index >= 1 && index <= len(l.entries))
}

// TermAt returns the term of the entry at index, or 0 for index 0.
func (l *Log) TermAt(index int) int {
	if index == 0 {
		return 0
	}
	return l.Get(index).Term
}

// Append adds entries to the end of the log.
func (l *Log) Append(entries ...Entry) {
	l.entries = append(l.entries, entries...)
}

// TruncateAndAppend discards any suffix after prevIndex and appends
// entries in its place. This is the only way a follower's log suffix is
// ever overwritten (spec.md §3 invariant: "A leader never overwrites or
// deletes entries in its log; followers may truncate suffixes").
func (l *Log) TruncateAndAppend(prevIndex int, entries []Entry) {
	l.entries = l.entries[:prevIndex]
	l.entries = append(l.entries, entries...)
}

// Tail returns a copy of the entries starting at the 1-based fromIndex
// (inclusive), used to build a leader's append_entries payload for a
// lagging peer (spec.md §4.1.3: "entries := log[prev_log_index ..]").
func (l *Log) Tail(fromIndex int) []Entry {
	if fromIndex > len(l.entries) {
		return nil
	}
	if fromIndex < 1 {
		fromIndex = 1
	}
	out := make([]Entry, len(l.entries)-fromIndex+1)
	copy(out, l.entries[fromIndex-1:])
	return out
}
