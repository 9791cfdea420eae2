package memory

import (
	"context"
	"fmt"
	"sync"

	"finboard/internal/core"
	"finboard/internal/journal"
)

var _ journal.Journal = (*Store)(nil)

// Store keeps snapshots in process memory. It is the default journal when no
// database is configured, and doubles as an exporter in tests.
type Store struct {
	mu    sync.Mutex
	items []core.NetWorthSnapshot
}

func New() *Store {
	return &Store{}
}

// Record stores the snapshot and returns a synthetic "mem:N" reference.
func (s *Store) Record(_ context.Context, snap core.NetWorthSnapshot) (string, error) {
	if err := snap.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, snap)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Export records the snapshot; the memory store accepts exports unchanged.
func (s *Store) Export(ctx context.Context, snap core.NetWorthSnapshot) (string, error) {
	return s.Record(ctx, snap)
}

// ListSnapshots returns snapshots newest first.
func (s *Store) ListSnapshots(_ context.Context, limit int) ([]core.NetWorthSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.NetWorthSnapshot, 0, n)
	for i := len(s.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
