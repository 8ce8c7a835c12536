package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// ResourceKind names the two bookable slot kinds in the ledger.
type ResourceKind string

const (
	KindDriver  ResourceKind = "Driver"
	KindVehicle ResourceKind = "Vehicle"
)

// BookingLedger binds a driver slot and a vehicle slot exclusively to one
// trip. Claims are always taken and released Driver first, then Vehicle,
// which fixes the claim ordering across all callers.
type BookingLedger interface {
	// Reserve claims both slots for tripID. A slot already held by tripID is
	// an idempotent no-op; a slot held by a different trip fails with
	// domain.ErrResourceConflict and leaves no partial claim behind.
	Reserve(ctx context.Context, driverID domain.DriverID, vehicleID domain.VehicleID, tripID domain.TripID) error

	// Release frees each slot only if it is currently held by tripID.
	// Slots held by another trip, or already free, are left untouched.
	Release(ctx context.Context, driverID domain.DriverID, vehicleID domain.VehicleID, tripID domain.TripID) error
}

// pgBookingLedger is the Postgres implementation. Both claims run inside one
// transaction, so a failed vehicle claim rolls the driver claim back without
// an explicit compensation step.
type pgBookingLedger struct {
	db db
}

// NewBookingLedger constructs a BookingLedger backed by the provided db
// connection.
func NewBookingLedger(db db) BookingLedger {
	return &pgBookingLedger{db: db}
}

func (l *pgBookingLedger) Reserve(ctx context.Context, driverID domain.DriverID, vehicleID domain.VehicleID, tripID domain.TripID) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.BookingLedger.Reserve: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := claimSlot(ctx, tx, KindDriver, driverID.UUID(), tripID); err != nil {
		return fmt.Errorf("repo.BookingLedger.Reserve: %w", err)
	}
	if err := claimSlot(ctx, tx, KindVehicle, vehicleID.UUID(), tripID); err != nil {
		return fmt.Errorf("repo.BookingLedger.Reserve: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.BookingLedger.Reserve: commit: %w", err)
	}
	return nil
}

func (l *pgBookingLedger) Release(ctx context.Context, driverID domain.DriverID, vehicleID domain.VehicleID, tripID domain.TripID) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.BookingLedger.Release: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := releaseSlot(ctx, tx, KindDriver, driverID.UUID(), tripID); err != nil {
		return fmt.Errorf("repo.BookingLedger.Release: %w", err)
	}
	if err := releaseSlot(ctx, tx, KindVehicle, vehicleID.UUID(), tripID); err != nil {
		return fmt.Errorf("repo.BookingLedger.Release: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.BookingLedger.Release: commit: %w", err)
	}
	return nil
}

// claimSlot takes one (kind, resource) slot for tripID.
// SELECT ... FOR UPDATE serializes concurrent claimers on an existing row;
// the primary key on (resource_kind, resource_id) catches two concurrent
// first-time claims, which surface as a resource conflict.
func claimSlot(ctx context.Context, tx pgx.Tx, kind ResourceKind, resourceID uuid.UUID, tripID domain.TripID) error {
	const sel = `
		SELECT trip_id
		FROM resource_bookings
		WHERE resource_kind = @resource_kind AND resource_id = @resource_id
		FOR UPDATE`

	var holder uuid.UUID
	err := tx.QueryRow(ctx, sel, pgx.NamedArgs{
		"resource_kind": string(kind),
		"resource_id":   resourceID,
	}).Scan(&holder)

	switch {
	case err == nil:
		if holder != tripID.UUID() {
			return fmt.Errorf("%s %s is already reserved by another trip: %w",
				kind, resourceID, domain.ErrResourceConflict)
		}
		// Idempotent retry by the same trip.
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		// First claim for this slot; fall through to insert.
	default:
		return fmt.Errorf("claim %s %s: %w", kind, resourceID, err)
	}

	const ins = `
		INSERT INTO resource_bookings (resource_kind, resource_id, trip_id)
		VALUES (@resource_kind, @resource_id, @trip_id)`

	_, err = tx.Exec(ctx, ins, pgx.NamedArgs{
		"resource_kind": string(kind),
		"resource_id":   resourceID,
		"trip_id":       tripID.UUID(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s reservation lost the race: %w",
				kind, resourceID, domain.ErrResourceConflict)
		}
		return fmt.Errorf("claim %s %s: %w", kind, resourceID, err)
	}
	return nil
}

// releaseSlot frees one slot only when held by tripID; otherwise a no-op.
func releaseSlot(ctx context.Context, tx pgx.Tx, kind ResourceKind, resourceID uuid.UUID, tripID domain.TripID) error {
	const q = `
		DELETE FROM resource_bookings
		WHERE resource_kind = @resource_kind AND resource_id = @resource_id AND trip_id = @trip_id`

	_, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"resource_kind": string(kind),
		"resource_id":   resourceID,
		"trip_id":       tripID.UUID(),
	})
	if err != nil {
		return fmt.Errorf("release %s %s: %w", kind, resourceID, err)
	}
	return nil
}
