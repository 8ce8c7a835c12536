// Package domain contains the core types and the Trip aggregate for the
// Galactic Delivery System. This package has zero I/O dependencies and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TripStatus is the lifecycle state of a trip.
// Transitions: Planned → Active → {Completed | Aborted}.
// Completed and Aborted are terminal.
type TripStatus string

const (
	TripStatusPlanned   TripStatus = "Planned"
	TripStatusActive    TripStatus = "Active"
	TripStatusCompleted TripStatus = "Completed"
	TripStatusAborted   TripStatus = "Aborted"
)

// Trip is the aggregate root for a single cargo run: one driver, one vehicle,
// one route, moving through an ordered checkpoint list.
//
// All fields are unexported; every mutation goes through a transition method
// that enforces the state machine and bumps the optimistic-concurrency
// version. Stores rehydrate a Trip via RestoreTrip and read it back via
// Snapshot — they never mutate one directly.
type Trip struct {
	id               TripID
	driverID         DriverID
	vehicleID        VehicleID
	routeID          RouteID
	cargoRequirement int

	status                     TripStatus
	version                    int64
	lastReachedCheckpointIndex int

	checkpoints         []TripCheckpoint
	seenStartRequestIDs map[string]struct{}

	recordedEvents    []Event
	uncommittedEvents []Event
}

// NewTrip constructs a trip in Planned state with version 0 and records a
// TripCreated event. The checkpoint list must be non-empty; cargoRequirement
// must be non-negative. Both are immutable afterwards.
func NewTrip(
	id TripID,
	driverID DriverID,
	vehicleID VehicleID,
	routeID RouteID,
	cargoRequirement int,
	checkpoints []TripCheckpoint,
	now time.Time,
) (*Trip, error) {
	if cargoRequirement < 0 {
		return nil, fmt.Errorf("%w: cargo requirement must be non-negative", ErrValidation)
	}
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("%w: trip must have at least one checkpoint", ErrValidation)
	}

	t := &Trip{
		id:                         id,
		driverID:                   driverID,
		vehicleID:                  vehicleID,
		routeID:                    routeID,
		cargoRequirement:           cargoRequirement,
		status:                     TripStatusPlanned,
		version:                    0,
		lastReachedCheckpointIndex: -1,
		checkpoints:                append([]TripCheckpoint(nil), checkpoints...),
		seenStartRequestIDs:        make(map[string]struct{}),
	}

	t.record(TripCreated{
		TripID:     id,
		DriverID:   driverID,
		VehicleID:  vehicleID,
		RouteID:    routeID,
		OccurredAt: now,
	})

	return t, nil
}

// Start activates a planned trip.
//
// requestID is an optional idempotency key ("" means none): a request id that
// was already accepted makes the call a no-op — no version bump, no event.
// The vehicle's cargo capacity must cover the trip's cargo requirement.
//
// Starting implies the vehicle is at the route origin, so the first
// checkpoint is marked reached and a CheckpointReached event is emitted
// alongside TripStarted. The origin auto-reach does not bump the version a
// second time.
func (t *Trip) Start(vehicleCargoCapacity int, now time.Time, requestID string) error {
	if requestID != "" {
		if _, seen := t.seenStartRequestIDs[requestID]; seen {
			return nil
		}
	}

	switch t.status {
	case TripStatusActive:
		return ruleViolation(CodeTripAlreadyStarted, "trip %s is already active", t.id)
	case TripStatusCompleted:
		return ruleViolation(CodeTripAlreadyCompleted, "trip %s is already completed", t.id)
	case TripStatusAborted:
		return ruleViolation(CodeTripAlreadyAborted, "trip %s is already aborted", t.id)
	}

	if vehicleCargoCapacity < t.cargoRequirement {
		return ruleViolation(CodeInsufficientCargoCapacity,
			"vehicle capacity %d is insufficient for cargo requirement %d",
			vehicleCargoCapacity, t.cargoRequirement)
	}

	t.status = TripStatusActive
	t.version++
	t.record(TripStarted{TripID: t.id, OccurredAt: now})

	if t.lastReachedCheckpointIndex < 0 {
		t.lastReachedCheckpointIndex = 0
		origin := t.checkpoints[0]
		t.record(CheckpointReached{
			TripID:         t.id,
			CheckpointID:   origin.ID,
			CheckpointName: origin.Name,
			Sequence:       origin.Sequence,
			OccurredAt:     now,
		})
	}

	if requestID != "" {
		t.seenStartRequestIDs[requestID] = struct{}{}
	}

	return nil
}

// ReachCheckpoint advances the trip to the named checkpoint.
//
// Names resolve case-insensitively against the trip's checkpoint list.
// Only the immediate next checkpoint is accepted; re-reporting the current
// tip is an idempotent no-op. Anything else fails CheckpointOutOfOrder.
func (t *Trip) ReachCheckpoint(checkpointName string, now time.Time) error {
	if err := t.ensureActive(); err != nil {
		return err
	}

	index := t.findCheckpointIndex(checkpointName)
	if index < 0 {
		return ruleViolation(CodeCheckpointOutOfOrder,
			"checkpoint %q does not exist on this route", checkpointName)
	}

	expected := t.lastReachedCheckpointIndex + 1

	if index < expected {
		// Duplicate delivery of the current tip is idempotent.
		if index == t.lastReachedCheckpointIndex {
			return nil
		}
		return ruleViolation(CodeCheckpointOutOfOrder,
			"checkpoint %q cannot be reached after checkpoint %q",
			checkpointName, t.LastReachedCheckpointName())
	}

	if index > expected {
		return ruleViolation(CodeCheckpointOutOfOrder,
			"expected checkpoint %q but got %q", t.checkpoints[expected].Name, checkpointName)
	}

	t.lastReachedCheckpointIndex = index
	t.version++

	cp := t.checkpoints[index]
	t.record(CheckpointReached{
		TripID:         t.id,
		CheckpointID:   cp.ID,
		CheckpointName: cp.Name,
		Sequence:       cp.Sequence,
		OccurredAt:     now,
	})

	return nil
}

// ReportIncident records an incident against an active trip.
//
// A Catastrophic incident additionally aborts the trip: the single call then
// bumps the version twice and emits both IncidentReported and TripAborted,
// applied as one unit from the caller's perspective.
func (t *Trip) ReportIncident(incident Incident, now time.Time) error {
	switch t.status {
	case TripStatusCompleted:
		return ruleViolation(CodeTripAlreadyCompleted, "cannot report incidents for a completed trip")
	case TripStatusAborted:
		return ruleViolation(CodeTripAlreadyAborted, "cannot report incidents for an aborted trip")
	}
	if err := t.ensureActive(); err != nil {
		return err
	}

	t.version++
	t.record(IncidentReported{
		TripID:      t.id,
		Type:        incident.Type,
		Severity:    incident.Severity,
		Description: incident.Description,
		OccurredAt:  now,
	})

	if incident.Severity == SeverityCatastrophic {
		t.status = TripStatusAborted
		t.version++
		t.record(TripAborted{
			TripID:     t.id,
			Reason:     "Catastrophic incident: " + incident.Type,
			OccurredAt: now,
		})
	}

	return nil
}

// Complete finishes an active trip that has reached its destination
// (the last checkpoint on the route).
func (t *Trip) Complete(now time.Time) error {
	if t.status != TripStatusActive {
		return ruleViolation(CodeTripNotCompletable, "trip is not in a completable state")
	}
	if t.lastReachedCheckpointIndex != len(t.checkpoints)-1 {
		return ruleViolation(CodeTripNotAtDestination,
			"trip cannot be completed before reaching the destination checkpoint")
	}

	t.status = TripStatusCompleted
	t.version++
	t.record(TripCompleted{TripID: t.id, OccurredAt: now})

	return nil
}

// DrainUncommittedEvents returns the events emitted since the previous drain
// and clears the uncommitted buffer. recordedEvents is unaffected and keeps
// the full history.
func (t *Trip) DrainUncommittedEvents() []Event {
	events := t.uncommittedEvents
	t.uncommittedEvents = nil
	return events
}

// ---- read accessors --------------------------------------------------------

func (t *Trip) ID() TripID            { return t.id }
func (t *Trip) DriverID() DriverID    { return t.driverID }
func (t *Trip) VehicleID() VehicleID  { return t.vehicleID }
func (t *Trip) RouteID() RouteID      { return t.routeID }
func (t *Trip) CargoRequirement() int { return t.cargoRequirement }
func (t *Trip) Status() TripStatus    { return t.status }

// Version is the optimistic-concurrency token. It starts at 0 and increases
// by exactly one per accepted mutating call, except a catastrophic
// ReportIncident which increases it by two.
func (t *Trip) Version() int64 { return t.version }

// LastReachedCheckpointIndex is -1 until the first checkpoint is reached.
func (t *Trip) LastReachedCheckpointIndex() int { return t.lastReachedCheckpointIndex }

// LastReachedCheckpointName returns the name of the last reached checkpoint,
// or "" when no checkpoint has been reached yet.
func (t *Trip) LastReachedCheckpointName() string {
	if t.lastReachedCheckpointIndex < 0 || t.lastReachedCheckpointIndex >= len(t.checkpoints) {
		return ""
	}
	return t.checkpoints[t.lastReachedCheckpointIndex].Name
}

// Checkpoints returns a copy of the trip's immutable checkpoint list.
func (t *Trip) Checkpoints() []TripCheckpoint {
	return append([]TripCheckpoint(nil), t.checkpoints...)
}

// RecordedEvents returns a copy of the full ordered event history.
func (t *Trip) RecordedEvents() []Event {
	return append([]Event(nil), t.recordedEvents...)
}

// SeenStartRequestIDs returns the idempotency keys accepted by Start so far,
// in unspecified order.
func (t *Trip) SeenStartRequestIDs() []string {
	ids := make([]string, 0, len(t.seenStartRequestIDs))
	for id := range t.seenStartRequestIDs {
		ids = append(ids, id)
	}
	return ids
}

// ---- persistence support ---------------------------------------------------

// TripSnapshot is the mutable operational state of a trip as persisted by a
// TripStore. It deliberately excludes uncommitted events, which are transient.
type TripSnapshot struct {
	ID                         TripID
	DriverID                   DriverID
	VehicleID                  VehicleID
	RouteID                    RouteID
	CargoRequirement           int
	Status                     TripStatus
	Version                    int64
	LastReachedCheckpointIndex int
	Checkpoints                []TripCheckpoint
	SeenStartRequestIDs        []string
}

// Snapshot captures the trip's current operational state for persistence.
func (t *Trip) Snapshot() TripSnapshot {
	return TripSnapshot{
		ID:                         t.id,
		DriverID:                   t.driverID,
		VehicleID:                  t.vehicleID,
		RouteID:                    t.routeID,
		CargoRequirement:           t.cargoRequirement,
		Status:                     t.status,
		Version:                    t.version,
		LastReachedCheckpointIndex: t.lastReachedCheckpointIndex,
		Checkpoints:                t.Checkpoints(),
		SeenStartRequestIDs:        t.SeenStartRequestIDs(),
	}
}

// RestoreTrip rehydrates a trip from a persisted snapshot plus its recorded
// event history. Operational state comes entirely from the snapshot; the
// events only reconstruct the audit trail. The restored trip has no
// uncommitted events.
func RestoreTrip(snapshot TripSnapshot, recorded []Event) *Trip {
	seen := make(map[string]struct{}, len(snapshot.SeenStartRequestIDs))
	for _, id := range snapshot.SeenStartRequestIDs {
		seen[id] = struct{}{}
	}

	return &Trip{
		id:                         snapshot.ID,
		driverID:                   snapshot.DriverID,
		vehicleID:                  snapshot.VehicleID,
		routeID:                    snapshot.RouteID,
		cargoRequirement:           snapshot.CargoRequirement,
		status:                     snapshot.Status,
		version:                    snapshot.Version,
		lastReachedCheckpointIndex: snapshot.LastReachedCheckpointIndex,
		checkpoints:                append([]TripCheckpoint(nil), snapshot.Checkpoints...),
		seenStartRequestIDs:        seen,
		recordedEvents:             append([]Event(nil), recorded...),
	}
}

// Clone returns a deep-enough copy for store implementations that hand out
// aggregates across goroutine boundaries. Uncommitted events are not copied.
func (t *Trip) Clone() *Trip {
	return RestoreTrip(t.Snapshot(), t.recordedEvents)
}

// ---- internals -------------------------------------------------------------

func (t *Trip) ensureActive() error {
	if t.status != TripStatusActive {
		return ruleViolation(CodeTripNotActive, "trip must be active")
	}
	return nil
}

// findCheckpointIndex resolves a checkpoint name case-insensitively.
// Returns -1 when the name is not on the route.
func (t *Trip) findCheckpointIndex(name string) int {
	for i := range t.checkpoints {
		if strings.EqualFold(t.checkpoints[i].Name, name) {
			return i
		}
	}
	return -1
}

func (t *Trip) record(event Event) {
	t.recordedEvents = append(t.recordedEvents, event)
	t.uncommittedEvents = append(t.uncommittedEvents, event)
}
