package command

import (
	"sync"

	"github.com/MrJi421/VOCEX/internal/domain"
)

// Compile-time interface check.
var _ domain.HistoryStore = (*History)(nil)

// DefaultHistoryCap bounds the in-memory command log. Older entries are
// discarded once the cap is reached.
const DefaultHistoryCap = 100

// History is the session command log: append-only, capped, in-memory.
// Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	cap     int
}

// NewHistory creates an empty history with the given capacity.
// A capacity <= 0 falls back to DefaultHistoryCap.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{cap: capacity}
}

// Append records a command. When the log is full the oldest entry is
// dropped.
func (h *History) Append(entry domain.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (h *History) Recent(n int) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]domain.HistoryEntry, n)
	for i := 0; i < n; i++ {
		out[i] = h.entries[len(h.entries)-1-i]
	}
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear empties the log.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
