package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// bookingKey addresses one slot in the in-memory ledger.
type bookingKey struct {
	kind       ResourceKind
	resourceID uuid.UUID
}

// booking is one ledger entry. Entries are created lazily on the first
// reservation attempt and never deleted — a release clears the holder and
// bumps the entry's own version.
type booking struct {
	version int64
	holder  *domain.TripID
}

// memoryBookingLedger is the non-durable BookingLedger. Unlike the Postgres
// implementation it has no transaction to lean on: Reserve claims the driver
// slot and the vehicle slot as two independent steps and manually rolls the
// driver claim back when the vehicle claim fails.
type memoryBookingLedger struct {
	mu       sync.Mutex
	bookings map[bookingKey]*booking
}

// NewMemoryBookingLedger constructs an empty in-memory BookingLedger.
func NewMemoryBookingLedger() BookingLedger {
	return &memoryBookingLedger{bookings: make(map[bookingKey]*booking)}
}

func (l *memoryBookingLedger) Reserve(ctx context.Context, driverID domain.DriverID, vehicleID domain.VehicleID, tripID domain.TripID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.claim(KindDriver, driverID.UUID(), tripID); err != nil {
		return fmt.Errorf("repo.MemoryBookingLedger.Reserve: %w", err)
	}

	if err := l.claim(KindVehicle, vehicleID.UUID(), tripID); err != nil {
		// Compensate: the driver claim must not survive a failed reservation.
		l.release(KindDriver, driverID.UUID(), tripID)
		return fmt.Errorf("repo.MemoryBookingLedger.Reserve: %w", err)
	}

	return nil
}

func (l *memoryBookingLedger) Release(ctx context.Context, driverID domain.DriverID, vehicleID domain.VehicleID, tripID domain.TripID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.release(KindDriver, driverID.UUID(), tripID)
	l.release(KindVehicle, vehicleID.UUID(), tripID)
	return nil
}

func (l *memoryBookingLedger) claim(kind ResourceKind, resourceID uuid.UUID, tripID domain.TripID) error {
	key := bookingKey{kind: kind, resourceID: resourceID}

	entry, ok := l.bookings[key]
	if !ok {
		entry = &booking{}
		l.bookings[key] = entry
	}

	if entry.holder != nil {
		if *entry.holder == tripID {
			// Idempotent retry by the same trip.
			return nil
		}
		return fmt.Errorf("%s %s is already reserved by another trip: %w",
			kind, resourceID, domain.ErrResourceConflict)
	}

	holder := tripID
	entry.version++
	entry.holder = &holder
	return nil
}

func (l *memoryBookingLedger) release(kind ResourceKind, resourceID uuid.UUID, tripID domain.TripID) {
	entry, ok := l.bookings[bookingKey{kind: kind, resourceID: resourceID}]
	if !ok || entry.holder == nil || *entry.holder != tripID {
		return
	}
	entry.version++
	entry.holder = nil
}
