package search

import (
	"strings"
	"sync"
)

// DefaultHistoryCap is the number of recent searches kept.
const DefaultHistoryCap = 10

// History is a bounded most-recent-first list of search queries.
type History struct {
	mu      sync.Mutex
	limit   int
	entries []string
}

// NewHistory returns a History holding at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryCap
	}
	return &History{limit: limit}
}

// Add puts query at the front, dropping any case-insensitive duplicate first.
func (h *History) Add(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	kept := make([]string, 0, len(h.entries)+1)
	kept = append(kept, query)
	for _, e := range h.entries {
		if strings.EqualFold(e, query) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > h.limit {
		kept = kept[:h.limit]
	}
	h.entries = kept
}

// Remove deletes query, ignoring case.
func (h *History) Remove(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.entries[:0]
	for _, e := range h.entries {
		if !strings.EqualFold(e, query) {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

// Entries returns the queries, most recent first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Clear forgets every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
