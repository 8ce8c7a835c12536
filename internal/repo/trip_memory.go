package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// memoryTripStore is the non-durable TripStore. A single mutex makes each
// Load/Insert/Update atomic, which is exactly the compare-and-swap contract
// the Postgres implementation provides via its conditional UPDATE. Trips are
// stored and handed out as clones so callers never share mutable state with
// the map.
type memoryTripStore struct {
	mu    sync.Mutex
	trips map[domain.TripID]*domain.Trip
}

// NewMemoryTripStore constructs an empty in-memory TripStore.
func NewMemoryTripStore() TripStore {
	return &memoryTripStore{trips: make(map[domain.TripID]*domain.Trip)}
}

func (s *memoryTripStore) Load(ctx context.Context, id domain.TripID) (*domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[id]
	if !ok {
		return nil, fmt.Errorf("repo.MemoryTripStore.Load: trip %s: %w", id, domain.ErrNotFound)
	}
	return trip.Clone(), nil
}

func (s *memoryTripStore) Insert(ctx context.Context, trip *domain.Trip) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[trip.ID()]; exists {
		return fmt.Errorf("repo.MemoryTripStore.Insert: trip %s already exists: %w",
			trip.ID(), domain.ErrConcurrencyConflict)
	}
	s.trips[trip.ID()] = trip.Clone()
	return nil
}

func (s *memoryTripStore) Update(ctx context.Context, trip *domain.Trip, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.trips[trip.ID()]
	if !ok {
		return fmt.Errorf("repo.MemoryTripStore.Update: trip %s: %w", trip.ID(), domain.ErrNotFound)
	}
	if existing.Version() != expectedVersion {
		return fmt.Errorf("repo.MemoryTripStore.Update: trip %s expected version %d but was %d: %w",
			trip.ID(), expectedVersion, existing.Version(), domain.ErrConcurrencyConflict)
	}

	s.trips[trip.ID()] = trip.Clone()
	return nil
}
