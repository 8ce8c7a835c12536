package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// The in-memory resource repos mirror their Postgres counterparts behind the
// same interfaces. Values are stored by copy, so callers cannot mutate the
// map contents through a returned struct.

type memoryDriverRepo struct {
	mu      sync.RWMutex
	drivers map[domain.DriverID]domain.Driver
}

// NewMemoryDriverRepo constructs an empty in-memory DriverRepo.
func NewMemoryDriverRepo() DriverRepo {
	return &memoryDriverRepo{drivers: make(map[domain.DriverID]domain.Driver)}
}

func (r *memoryDriverRepo) Insert(ctx context.Context, driver domain.Driver) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[driver.ID] = driver
	return nil
}

func (r *memoryDriverRepo) GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	if err := ctx.Err(); err != nil {
		return domain.Driver{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	driver, ok := r.drivers[id]
	if !ok {
		return domain.Driver{}, fmt.Errorf("repo.MemoryDriverRepo.GetByID: driver %s: %w", id, domain.ErrNotFound)
	}
	return driver, nil
}

type memoryVehicleRepo struct {
	mu       sync.RWMutex
	vehicles map[domain.VehicleID]domain.Vehicle
}

// NewMemoryVehicleRepo constructs an empty in-memory VehicleRepo.
func NewMemoryVehicleRepo() VehicleRepo {
	return &memoryVehicleRepo{vehicles: make(map[domain.VehicleID]domain.Vehicle)}
}

func (r *memoryVehicleRepo) Insert(ctx context.Context, vehicle domain.Vehicle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[vehicle.ID] = vehicle
	return nil
}

func (r *memoryVehicleRepo) GetByID(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vehicle{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	vehicle, ok := r.vehicles[id]
	if !ok {
		return domain.Vehicle{}, fmt.Errorf("repo.MemoryVehicleRepo.GetByID: vehicle %s: %w", id, domain.ErrNotFound)
	}
	return vehicle, nil
}

type memoryRouteRepo struct {
	mu     sync.RWMutex
	routes map[domain.RouteID]domain.Route
}

// NewMemoryRouteRepo constructs an empty in-memory RouteRepo.
func NewMemoryRouteRepo() RouteRepo {
	return &memoryRouteRepo{routes: make(map[domain.RouteID]domain.Route)}
}

func (r *memoryRouteRepo) Insert(ctx context.Context, route domain.Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := route
	stored.Checkpoints = append([]domain.RouteCheckpoint(nil), route.Checkpoints...)
	r.routes[route.ID] = stored
	return nil
}

func (r *memoryRouteRepo) GetByID(ctx context.Context, id domain.RouteID) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.routes[id]
	if !ok {
		return domain.Route{}, fmt.Errorf("repo.MemoryRouteRepo.GetByID: route %s: %w", id, domain.ErrNotFound)
	}
	out := route
	out.Checkpoints = append([]domain.RouteCheckpoint(nil), route.Checkpoints...)
	return out, nil
}
