package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
	"github.com/Basim108/galactic-delivery-system.backend/internal/repo"
)

// ResourceService registers the drivers, vehicles, and routes that trips are
// built from.
type ResourceService struct {
	drivers  repo.DriverRepo
	vehicles repo.VehicleRepo
	routes   repo.RouteRepo
}

// NewResourceService constructs a ResourceService backed by the provided repos.
func NewResourceService(drivers repo.DriverRepo, vehicles repo.VehicleRepo, routes repo.RouteRepo) *ResourceService {
	return &ResourceService{drivers: drivers, vehicles: vehicles, routes: routes}
}

// CreateDriver validates and persists a new driver.
func (s *ResourceService) CreateDriver(ctx context.Context, name string, status domain.ResourceStatus) (domain.Driver, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Driver{}, fmt.Errorf("%w: driver name is required", domain.ErrValidation)
	}

	driver := domain.Driver{ID: domain.NewDriverID(), Name: name, Status: status}
	if err := s.drivers.Insert(ctx, driver); err != nil {
		return domain.Driver{}, fmt.Errorf("service.ResourceService.CreateDriver: %w", err)
	}
	return driver, nil
}

// CreateVehicle validates and persists a new vehicle.
func (s *ResourceService) CreateVehicle(ctx context.Context, name, vehicleType string, cargoCapacity int, status domain.ResourceStatus) (domain.Vehicle, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Vehicle{}, fmt.Errorf("%w: vehicle name is required", domain.ErrValidation)
	}

	vehicle, err := domain.NewVehicle(domain.NewVehicleID(), name, vehicleType, cargoCapacity, status)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if err := s.vehicles.Insert(ctx, vehicle); err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.ResourceService.CreateVehicle: %w", err)
	}
	return vehicle, nil
}

// CreateRoute validates and persists a new route with its ordered checkpoints.
func (s *ResourceService) CreateRoute(ctx context.Context, name string, checkpointNames []string) (domain.Route, error) {
	route, err := domain.NewRoute(domain.NewRouteID(), name, checkpointNames)
	if err != nil {
		return domain.Route{}, err
	}
	if err := s.routes.Insert(ctx, route); err != nil {
		return domain.Route{}, fmt.Errorf("service.ResourceService.CreateRoute: %w", err)
	}
	return route, nil
}
