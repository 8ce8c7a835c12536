package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// DriverRepo defines the persistence operations for drivers.
type DriverRepo interface {
	// Insert persists a new driver.
	Insert(ctx context.Context, driver domain.Driver) error

	// GetByID retrieves a driver by id.
	// Returns domain.ErrNotFound if no driver with that id exists.
	GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error)
}

// VehicleRepo defines the persistence operations for vehicles.
type VehicleRepo interface {
	Insert(ctx context.Context, vehicle domain.Vehicle) error
	GetByID(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error)
}

// RouteRepo defines the persistence operations for routes.
type RouteRepo interface {
	Insert(ctx context.Context, route domain.Route) error

	// GetByID retrieves a route together with its checkpoints ordered by
	// sequence. Returns domain.ErrNotFound if no route with that id exists.
	GetByID(ctx context.Context, id domain.RouteID) (domain.Route, error)
}

// ---- drivers ---------------------------------------------------------------

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

func (r *pgDriverRepo) Insert(ctx context.Context, driver domain.Driver) error {
	const q = `
		INSERT INTO drivers (id, name, status)
		VALUES (@id, @name, @status)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":     driver.ID.UUID(),
		"name":   driver.Name,
		"status": string(driver.Status),
	})
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.Insert: %w", err)
	}
	return nil
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	const q = `
		SELECT id, name, status
		FROM drivers
		WHERE id = @id`

	var (
		driver   domain.Driver
		driverID pgtype.UUID
		status   string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id.UUID()}).Scan(&driverID, &driver.Name, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: driver %s: %w", id, domain.ErrNotFound)
		}
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}

	driver.ID = domain.DriverID(driverID.Bytes)
	driver.Status = domain.ResourceStatus(status)
	return driver, nil
}

// ---- vehicles --------------------------------------------------------------

type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo backed by the provided db connection.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

func (r *pgVehicleRepo) Insert(ctx context.Context, vehicle domain.Vehicle) error {
	const q = `
		INSERT INTO vehicles (id, name, type, cargo_capacity, status)
		VALUES (@id, @name, @type, @cargo_capacity, @status)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":             vehicle.ID.UUID(),
		"name":           vehicle.Name,
		"type":           vehicle.Type,
		"cargo_capacity": vehicle.CargoCapacity,
		"status":         string(vehicle.Status),
	})
	if err != nil {
		return fmt.Errorf("repo.VehicleRepo.Insert: %w", err)
	}
	return nil
}

func (r *pgVehicleRepo) GetByID(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	const q = `
		SELECT id, name, type, cargo_capacity, status
		FROM vehicles
		WHERE id = @id`

	var (
		vehicle   domain.Vehicle
		vehicleID pgtype.UUID
		status    string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id.UUID()}).Scan(
		&vehicleID, &vehicle.Name, &vehicle.Type, &vehicle.CargoCapacity, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.GetByID: vehicle %s: %w", id, domain.ErrNotFound)
		}
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.GetByID: %w", err)
	}

	vehicle.ID = domain.VehicleID(vehicleID.Bytes)
	vehicle.Status = domain.ResourceStatus(status)
	return vehicle, nil
}

// ---- routes ----------------------------------------------------------------

type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

func (r *pgRouteRepo) Insert(ctx context.Context, route domain.Route) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.Insert: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO routes (id, name)
		VALUES (@id, @name)`

	if _, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"id":   route.ID.UUID(),
		"name": route.Name,
	}); err != nil {
		return fmt.Errorf("repo.RouteRepo.Insert: %w", err)
	}

	const cpq = `
		INSERT INTO route_checkpoints (id, route_id, sequence, name)
		VALUES (@id, @route_id, @sequence, @name)`

	for _, cp := range route.Checkpoints {
		if _, err := tx.Exec(ctx, cpq, pgx.NamedArgs{
			"id":       cp.ID.UUID(),
			"route_id": route.ID.UUID(),
			"sequence": cp.Sequence,
			"name":     cp.Name,
		}); err != nil {
			return fmt.Errorf("repo.RouteRepo.Insert: checkpoint: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.RouteRepo.Insert: commit: %w", err)
	}
	return nil
}

func (r *pgRouteRepo) GetByID(ctx context.Context, id domain.RouteID) (domain.Route, error) {
	const q = `
		SELECT id, name
		FROM routes
		WHERE id = @id`

	var (
		route   domain.Route
		routeID pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id.UUID()}).Scan(&routeID, &route.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: route %s: %w", id, domain.ErrNotFound)
		}
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: %w", err)
	}
	route.ID = domain.RouteID(routeID.Bytes)

	const cpq = `
		SELECT id, sequence, name
		FROM route_checkpoints
		WHERE route_id = @route_id
		ORDER BY sequence`

	rows, err := r.db.Query(ctx, cpq, pgx.NamedArgs{"route_id": id.UUID()})
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: checkpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cp   domain.RouteCheckpoint
			cpID pgtype.UUID
		)
		if err := rows.Scan(&cpID, &cp.Sequence, &cp.Name); err != nil {
			return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: scan checkpoint: %w", err)
		}
		cp.ID = domain.CheckpointID(cpID.Bytes)
		route.Checkpoints = append(route.Checkpoints, cp)
	}
	if err := rows.Err(); err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: rows: %w", err)
	}

	return route, nil
}
