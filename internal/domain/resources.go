package domain

import (
	"fmt"
	"strings"
)

// ResourceStatus describes whether a driver or vehicle can be assigned to a
// new trip. Only Available resources are accepted at trip creation.
type ResourceStatus string

const (
	StatusAvailable   ResourceStatus = "Available"
	StatusUnavailable ResourceStatus = "Unavailable"
	StatusMaintenance ResourceStatus = "Maintenance"
)

// ParseResourceStatus converts a wire string into a ResourceStatus.
func ParseResourceStatus(s string) (ResourceStatus, error) {
	switch ResourceStatus(s) {
	case StatusAvailable, StatusUnavailable, StatusMaintenance:
		return ResourceStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown resource status %q", ErrValidation, s)
	}
}

// Driver is a bookable crew resource.
type Driver struct {
	ID     DriverID
	Name   string
	Status ResourceStatus
}

// Vehicle is a bookable cargo vessel with a fixed capacity.
type Vehicle struct {
	ID            VehicleID
	Name          string
	Type          string
	CargoCapacity int
	Status        ResourceStatus
}

// NewVehicle validates and builds a Vehicle.
// CargoCapacity must be non-negative.
func NewVehicle(id VehicleID, name, vehicleType string, cargoCapacity int, status ResourceStatus) (Vehicle, error) {
	if cargoCapacity < 0 {
		return Vehicle{}, fmt.Errorf("%w: cargo capacity must be non-negative", ErrValidation)
	}
	return Vehicle{ID: id, Name: name, Type: vehicleType, CargoCapacity: cargoCapacity, Status: status}, nil
}

// RouteCheckpoint is one ordered waypoint on a route.
// Sequence is 1-based and contiguous within a route.
type RouteCheckpoint struct {
	ID       CheckpointID
	Sequence int
	Name     string
}

// Route is an ordered series of checkpoints a trip travels through.
type Route struct {
	ID          RouteID
	Name        string
	Checkpoints []RouteCheckpoint
}

// NewRoute validates checkpoint names (trimmed, non-empty, at least one) and
// assigns 1-based sequences in the given order.
func NewRoute(id RouteID, name string, checkpointNames []string) (Route, error) {
	if strings.TrimSpace(name) == "" {
		return Route{}, fmt.Errorf("%w: route name is required", ErrValidation)
	}
	if len(checkpointNames) == 0 {
		return Route{}, fmt.Errorf("%w: route must have at least one checkpoint", ErrValidation)
	}

	checkpoints := make([]RouteCheckpoint, 0, len(checkpointNames))
	for i, raw := range checkpointNames {
		cpName := strings.TrimSpace(raw)
		if cpName == "" {
			return Route{}, fmt.Errorf("%w: checkpoint name cannot be empty", ErrValidation)
		}
		checkpoints = append(checkpoints, RouteCheckpoint{
			ID:       NewCheckpointID(),
			Sequence: i + 1,
			Name:     cpName,
		})
	}

	return Route{ID: id, Name: name, Checkpoints: checkpoints}, nil
}

// TripCheckpoint is a checkpoint copied onto a trip at creation time.
// The copy is immutable for the lifetime of the trip even if the route is
// later edited.
type TripCheckpoint struct {
	ID       CheckpointID
	Sequence int
	Name     string
}
