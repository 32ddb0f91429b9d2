package scan

import (
	"sync"

	"github.com/wonny/leapscreener/internal/contracts"
)

// Store keeps the most recent completed scan for readers (api, serve mode).
// Reports are replaced, never mutated.
type Store struct {
	mu     sync.RWMutex
	latest *contracts.ScanReport
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Set replaces the latest report
func (s *Store) Set(report *contracts.ScanReport) {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
}

// Latest returns the latest report, if any
func (s *Store) Latest() (*contracts.ScanReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}
