package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"marketplacego/internal/domain"
	"marketplacego/internal/markerrors"
)

// MemoryStore is a concurrency-safe in-memory ListingStore. Each listing gets
// its own mutex so updates to the same listing serialize while updates to
// different listings run in parallel. Version is bumped on every committed
// mutation.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	listing *domain.Listing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[string]*entry)}
}

func (s *MemoryStore) Create(ctx context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[l.ID]; ok {
		return fmt.Errorf("store: listing %s already exists", l.ID)
	}
	cp, err := deepCopy(l)
	if err != nil {
		return err
	}
	// Listings restored from a snapshot keep their version so stale
	// snapshots never overwrite newer ones after a restart.
	if cp.Version < 1 {
		cp.Version = 1
	}
	s.listings[l.ID] = &entry{listing: cp}
	l.Version = cp.Version
	return nil
}

// Get returns a copy; callers never see shared mutable state.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	e, ok := s.listings[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: get listing %s: %w", id, markerrors.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return deepCopy(e.listing)
}

func (s *MemoryStore) List(ctx context.Context) ([]*domain.Listing, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.listings))
	for _, e := range s.listings {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*domain.Listing, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		cp, err := deepCopy(e.listing)
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*domain.Listing) error) (*domain.Listing, error) {
	s.mu.RLock()
	e, ok := s.listings[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: update listing %s: %w", id, markerrors.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	work, err := deepCopy(e.listing)
	if err != nil {
		return nil, err
	}
	if err := mutate(work); err != nil {
		return nil, err
	}
	work.Version = e.listing.Version + 1
	e.listing = work

	return deepCopy(work)
}

func deepCopy(l *domain.Listing) (*domain.Listing, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("store: copy listing: %w", err)
	}
	cp := &domain.Listing{}
	if err := json.Unmarshal(raw, cp); err != nil {
		return nil, fmt.Errorf("store: copy listing: %w", err)
	}
	return cp, nil
}
