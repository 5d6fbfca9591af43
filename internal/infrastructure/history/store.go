// Package history holds the append-only, size-bounded execution log.
// Entries are immutable; the store never edits, only appends and evicts
// the oldest entries past the per-session cap.
package history

import (
	"sync"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

// MemoryStore is the in-memory history log. Mutation happens only through
// Append and Replace; readers always get copies.
type MemoryStore struct {
	mu      sync.RWMutex
	cap     int
	entries []domain.HistoryEntry
	counts  map[string]int
}

// NewMemoryStore builds a store with the given per-session cap (<=0 uses
// the default).
func NewMemoryStore(cap int) *MemoryStore {
	if cap <= 0 {
		cap = domain.DefaultHistoryCap
	}
	return &MemoryStore{cap: cap, counts: map[string]int{}}
}

// Append implements ports.HistoryStore.
func (s *MemoryStore) Append(entry domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.counts[entry.SessionID]++
	if s.counts[entry.SessionID] > s.cap {
		s.evictOldestLocked(entry.SessionID)
	}
}

func (s *MemoryStore) evictOldestLocked(sessionID string) {
	for i, entry := range s.entries {
		if entry.SessionID == sessionID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.counts[sessionID]--
			return
		}
	}
}

// Entries returns the chronological log for one session, or the whole log
// when sessionID is empty.
func (s *MemoryStore) Entries(sessionID string) []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.HistoryEntry
	for _, entry := range s.entries {
		if sessionID == "" || entry.SessionID == sessionID {
			out = append(out, entry)
		}
	}
	return out
}

// Recent returns the newest n entries for the session, oldest first.
func (s *MemoryStore) Recent(sessionID string, n int) []domain.HistoryEntry {
	if n <= 0 {
		n = domain.DefaultRecentWindow
	}
	entries := s.Entries(sessionID)
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}

// Len reports the total number of retained entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot copies the full log for export.
func (s *MemoryStore) Snapshot() []domain.HistoryEntry {
	return s.Entries("")
}

// Replace swaps the whole log, used by import. Caps still apply.
func (s *MemoryStore) Replace(entries []domain.HistoryEntry) {
	s.mu.Lock()
	s.entries = nil
	s.counts = map[string]int{}
	s.mu.Unlock()
	for _, entry := range entries {
		s.Append(entry)
	}
}

var _ ports.HistoryStore = (*MemoryStore)(nil)
