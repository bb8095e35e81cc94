package document

import "time"

// HistoryEntry is one immutable record in a document's transition history.
// Label encodes the transition that was applied, including which gate was
// exercised and whether a substitute acted (see workflow.Label).
type HistoryEntry struct {
	Label     string    `json:"label"`
	Actor     UserID    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// History is an append-only ordered sequence of transition records.
// Insertion order is chronological order.
type History []HistoryEntry

// First returns the earliest entry matching the predicate, or false if none
func (h History) First(match func(HistoryEntry) bool) (HistoryEntry, bool) {
	for _, e := range h {
		if match(e) {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// Last returns the most recent entry matching the predicate, or false if none
func (h History) Last(match func(HistoryEntry) bool) (HistoryEntry, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if match(h[i]) {
			return h[i], true
		}
	}
	return HistoryEntry{}, false
}

// Append returns a new history with the entry added; the receiver is unchanged
func (h History) Append(e HistoryEntry) History {
	out := make(History, 0, len(h)+1)
	out = append(out, h...)
	return append(out, e)
}
