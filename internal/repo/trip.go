// Package repo contains all persistence for the Galactic Delivery System.
// Each store has an interface, a Postgres implementation backed by pgx, and
// an in-memory implementation behind the same contract; which one a process
// uses is a wiring decision made in main. No business logic lives here —
// only SQL, type mapping, and the optimistic-concurrency checks.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx. Accepting this interface instead of *pgxpool.Pool directly allows
// integration tests to pass a transaction that is rolled back after each
// test, giving free per-test isolation without any manual cleanup.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripStore persists a trip as a mutable snapshot plus an append-only event
// journal. The service layer depends on this interface, not the concrete
// implementation, which allows it to be unit-tested with a mock.
type TripStore interface {
	// Load returns the trip identified by id with its full event history
	// folded into the aggregate's recorded events.
	// Returns domain.ErrNotFound if no trip with that id exists.
	Load(ctx context.Context, id domain.TripID) (*domain.Trip, error)

	// Insert writes a brand-new trip snapshot and appends all of its
	// currently recorded events starting at sequence 1.
	Insert(ctx context.Context, trip *domain.Trip) error

	// Update writes the snapshot conditioned on the stored version still
	// equalling expectedVersion, then appends any events beyond the count
	// already persisted. A lost race — version mismatch or a duplicate event
	// sequence — surfaces as domain.ErrConcurrencyConflict with no partial
	// effect. Returns domain.ErrNotFound if the trip does not exist.
	Update(ctx context.Context, trip *domain.Trip, expectedVersion int64) error
}

// pgTripStore is the Postgres implementation of TripStore.
type pgTripStore struct {
	db db
}

// NewTripStore constructs a TripStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation.
func NewTripStore(db db) TripStore {
	return &pgTripStore{db: db}
}

const uniqueViolation = "23505"

// Load reads the snapshot, the checkpoint list, and the event journal.
func (s *pgTripStore) Load(ctx context.Context, id domain.TripID) (*domain.Trip, error) {
	snapshot, err := s.loadSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.TripStore.Load: %w", err)
	}

	snapshot.Checkpoints, err = s.loadCheckpoints(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.TripStore.Load: checkpoints: %w", err)
	}

	recorded, err := s.loadEvents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo.TripStore.Load: events: %w", err)
	}

	return domain.RestoreTrip(snapshot, recorded), nil
}

// Insert writes the snapshot, checkpoints, and initial events in one
// transaction.
func (s *pgTripStore) Insert(ctx context.Context, trip *domain.Trip) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TripStore.Insert: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	snapshot := trip.Snapshot()

	const q = `
		INSERT INTO trips (id, driver_id, vehicle_id, route_id, cargo_requirement,
		                   status, version, last_reached_checkpoint_index, start_request_ids)
		VALUES (@id, @driver_id, @vehicle_id, @route_id, @cargo_requirement,
		        @status, @version, @last_reached_checkpoint_index, @start_request_ids)`

	_, err = tx.Exec(ctx, q, pgx.NamedArgs{
		"id":                            snapshot.ID.UUID(),
		"driver_id":                     snapshot.DriverID.UUID(),
		"vehicle_id":                    snapshot.VehicleID.UUID(),
		"route_id":                      snapshot.RouteID.UUID(),
		"cargo_requirement":             snapshot.CargoRequirement,
		"status":                        string(snapshot.Status),
		"version":                       snapshot.Version,
		"last_reached_checkpoint_index": snapshot.LastReachedCheckpointIndex,
		"start_request_ids":             snapshot.SeenStartRequestIDs,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("repo.TripStore.Insert: trip %s already exists: %w",
				snapshot.ID, domain.ErrConcurrencyConflict)
		}
		return fmt.Errorf("repo.TripStore.Insert: %w", err)
	}

	for _, cp := range snapshot.Checkpoints {
		const cpq = `
			INSERT INTO trip_checkpoints (id, trip_id, sequence, name)
			VALUES (@id, @trip_id, @sequence, @name)`
		if _, err := tx.Exec(ctx, cpq, pgx.NamedArgs{
			"id":       cp.ID.UUID(),
			"trip_id":  snapshot.ID.UUID(),
			"sequence": cp.Sequence,
			"name":     cp.Name,
		}); err != nil {
			return fmt.Errorf("repo.TripStore.Insert: checkpoint: %w", err)
		}
	}

	if err := appendEvents(ctx, tx, snapshot.ID, trip.RecordedEvents(), 0); err != nil {
		return fmt.Errorf("repo.TripStore.Insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TripStore.Insert: commit: %w", err)
	}
	return nil
}

// Update applies the snapshot CAS and the journal append atomically.
func (s *pgTripStore) Update(ctx context.Context, trip *domain.Trip, expectedVersion int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TripStore.Update: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	snapshot := trip.Snapshot()

	var persistedCount int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM trip_events WHERE trip_id = @trip_id`,
		pgx.NamedArgs{"trip_id": snapshot.ID.UUID()},
	).Scan(&persistedCount)
	if err != nil {
		return fmt.Errorf("repo.TripStore.Update: count events: %w", err)
	}

	const q = `
		UPDATE trips
		SET status                        = @status,
		    version                       = @version,
		    last_reached_checkpoint_index = @last_reached_checkpoint_index,
		    start_request_ids             = @start_request_ids
		WHERE id = @id AND version = @expected_version`

	tag, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"id":                            snapshot.ID.UUID(),
		"status":                        string(snapshot.Status),
		"version":                       snapshot.Version,
		"last_reached_checkpoint_index": snapshot.LastReachedCheckpointIndex,
		"start_request_ids":             snapshot.SeenStartRequestIDs,
		"expected_version":              expectedVersion,
	})
	if err != nil {
		return fmt.Errorf("repo.TripStore.Update: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`,
			pgx.NamedArgs{"id": snapshot.ID.UUID()},
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("repo.TripStore.Update: existence check: %w", err)
		}
		if !exists {
			return fmt.Errorf("repo.TripStore.Update: trip %s: %w", snapshot.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("repo.TripStore.Update: trip %s expected version %d: %w",
			snapshot.ID, expectedVersion, domain.ErrConcurrencyConflict)
	}

	if err := appendEvents(ctx, tx, snapshot.ID, trip.RecordedEvents(), persistedCount); err != nil {
		return fmt.Errorf("repo.TripStore.Update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TripStore.Update: commit: %w", err)
	}
	return nil
}

// appendEvents persists every recorded event beyond persistedCount, numbering
// them persistedCount+1, persistedCount+2, … The UNIQUE(trip_id, sequence)
// constraint turns a racing double-append into a concurrency conflict.
func appendEvents(ctx context.Context, tx pgx.Tx, tripID domain.TripID, recorded []domain.Event, persistedCount int) error {
	if len(recorded) <= persistedCount {
		return nil
	}

	const q = `
		INSERT INTO trip_events (trip_id, sequence, kind, occurred_at, payload)
		VALUES (@trip_id, @sequence, @kind, @occurred_at, @payload)`

	for i, event := range recorded[persistedCount:] {
		kind, payload, err := encodeEvent(event)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, q, pgx.NamedArgs{
			"trip_id":     tripID.UUID(),
			"sequence":    persistedCount + i + 1,
			"kind":        string(kind),
			"occurred_at": event.Time(),
			"payload":     payload,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("trip %s event sequence %d already appended: %w",
					tripID, persistedCount+i+1, domain.ErrConcurrencyConflict)
			}
			return fmt.Errorf("append event %d: %w", persistedCount+i+1, err)
		}
	}
	return nil
}

func (s *pgTripStore) loadSnapshot(ctx context.Context, id domain.TripID) (domain.TripSnapshot, error) {
	const q = `
		SELECT id, driver_id, vehicle_id, route_id, cargo_requirement,
		       status, version, last_reached_checkpoint_index, start_request_ids
		FROM trips
		WHERE id = @id`

	var (
		snapshot  domain.TripSnapshot
		tripID    pgtype.UUID
		driverID  pgtype.UUID
		vehicleID pgtype.UUID
		routeID   pgtype.UUID
		status    string
	)

	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id.UUID()}).Scan(
		&tripID, &driverID, &vehicleID, &routeID, &snapshot.CargoRequirement,
		&status, &snapshot.Version, &snapshot.LastReachedCheckpointIndex,
		&snapshot.SeenStartRequestIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripSnapshot{}, fmt.Errorf("trip %s: %w", id, domain.ErrNotFound)
		}
		return domain.TripSnapshot{}, err
	}

	snapshot.ID = domain.TripID(tripID.Bytes)
	snapshot.DriverID = domain.DriverID(driverID.Bytes)
	snapshot.VehicleID = domain.VehicleID(vehicleID.Bytes)
	snapshot.RouteID = domain.RouteID(routeID.Bytes)
	snapshot.Status = domain.TripStatus(status)

	return snapshot, nil
}

func (s *pgTripStore) loadCheckpoints(ctx context.Context, id domain.TripID) ([]domain.TripCheckpoint, error) {
	const q = `
		SELECT id, sequence, name
		FROM trip_checkpoints
		WHERE trip_id = @trip_id
		ORDER BY sequence`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": id.UUID()})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []domain.TripCheckpoint
	for rows.Next() {
		var (
			cp   domain.TripCheckpoint
			cpID pgtype.UUID
		)
		if err := rows.Scan(&cpID, &cp.Sequence, &cp.Name); err != nil {
			return nil, err
		}
		cp.ID = domain.CheckpointID(cpID.Bytes)
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

func (s *pgTripStore) loadEvents(ctx context.Context, id domain.TripID) ([]domain.Event, error) {
	const q = `
		SELECT kind, payload
		FROM trip_events
		WHERE trip_id = @trip_id
		ORDER BY sequence`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": id.UUID()})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			kind    string
			payload []byte
		)
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, err
		}
		event, err := decodeEvent(domain.EventKind(kind), payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
